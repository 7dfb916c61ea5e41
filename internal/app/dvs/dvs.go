package dvs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/dvs/internal/cache"
	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/config"
	authhandler "github.com/magabrotheeeer/dvs/internal/http/handlers/auth"
	calendarhandler "github.com/magabrotheeeer/dvs/internal/http/handlers/calendar"
	categorieshandler "github.com/magabrotheeeer/dvs/internal/http/handlers/categories"
	daylighthandler "github.com/magabrotheeeer/dvs/internal/http/handlers/daylight"
	goodtimingshandler "github.com/magabrotheeeer/dvs/internal/http/handlers/goodtimings"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/health"
	newsletterhandler "github.com/magabrotheeeer/dvs/internal/http/handlers/newsletter"
	usershandler "github.com/magabrotheeeer/dvs/internal/http/handlers/users"
	weatherhandler "github.com/magabrotheeeer/dvs/internal/http/handlers/weather"
	"github.com/magabrotheeeer/dvs/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dvs/internal/http/validate"
	"github.com/magabrotheeeer/dvs/internal/lib/jwt"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/lib/smtp"
	"github.com/magabrotheeeer/dvs/internal/migrations"
	authservice "github.com/magabrotheeeer/dvs/internal/services/auth"
	calendarservice "github.com/magabrotheeeer/dvs/internal/services/calendar"
	categoryservice "github.com/magabrotheeeer/dvs/internal/services/categories"
	daylightservice "github.com/magabrotheeeer/dvs/internal/services/daylight"
	goodtimingservice "github.com/magabrotheeeer/dvs/internal/services/goodtimings"
	newsletterservice "github.com/magabrotheeeer/dvs/internal/services/newsletter"
	senderservice "github.com/magabrotheeeer/dvs/internal/services/sender"
	userservice "github.com/magabrotheeeer/dvs/internal/services/users"
	weatherservice "github.com/magabrotheeeer/dvs/internal/services/weather"
	"github.com/magabrotheeeer/dvs/internal/storage/repository"
	"github.com/magabrotheeeer/dvs/internal/sunrise"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервер API со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключает хранилище, применяет миграции и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	app := &App{logger: logger, db: db}
	var categoryCache categoryservice.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, category cache disabled", sl.Err(err))
		} else {
			app.cache = cacheRedis
			categoryCache = cacheRedis
		}
	}

	loc, err := time.LoadLocation(cfg.Weather.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", slog.String("timezone", cfg.Weather.Timezone), sl.Err(err))
		loc = time.UTC
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, logger)
	if err := authService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		app.close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	resolver := calendar.NewResolver(logger)
	categoryService := categoryservice.NewCategoryService(db, categoryCache, cfg.CategoryTTL, logger)
	senderService := senderservice.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), logger)
	newsletterService := newsletterservice.NewNewsletterService(db, senderService, resolver,
		cfg.SendInterval, cfg.UnsubscribeURL, loc, logger)

	v := validate.New()
	handlers := Handlers{
		Auth:        authhandler.New(logger, authService, v),
		Users:       usershandler.New(logger, userservice.NewUserService(db, logger), v),
		Categories:  categorieshandler.New(logger, categoryService, v),
		GoodTimings: goodtimingshandler.New(logger, goodtimingservice.NewGoodTimingService(db, logger), v),
		Daylight:    daylighthandler.New(logger, daylightservice.NewDaylightService(db, cfg.Retention, logger), v),
		Calendar: calendarhandler.New(logger, calendarservice.NewCalendarService(db, categoryService, resolver,
			cfg.DemoEntriesPath, loc, logger), v),
		Newsletter: newsletterhandler.New(logger, newsletterService, v),
		Weather: weatherhandler.New(logger, weatherservice.NewWeatherService(db,
			sunrise.NewClient(cfg.BaseURL, cfg.Weather.Timeout), cfg.Weather, cfg.Retention, logger), v),
		Health: health.New(logger, db),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, handlers, RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Debug:          cfg.Debug(),
		TrustProxy:     cfg.TrustProxy,
		Limiter:        middlewarectx.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, 2*cfg.RateWindow),
		Authenticator:  authService,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
