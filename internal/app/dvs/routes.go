// Package dvs собирает HTTP-приложение: маршруты, middleware и зависимости.
package dvs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/dvs/internal/http/handlers/auth"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/calendar"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/categories"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/daylight"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/goodtimings"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/health"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/newsletter"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/users"
	"github.com/magabrotheeeer/dvs/internal/http/handlers/weather"
	"github.com/magabrotheeeer/dvs/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dvs/internal/http/response"
	"github.com/magabrotheeeer/dvs/internal/lib/metrics"
)

// Handlers — обработчики всех ресурсов API.
type Handlers struct {
	Auth        *auth.Handler
	Users       *users.Handler
	Categories  *categories.Handler
	GoodTimings *goodtimings.Handler
	Daylight    *daylight.Handler
	Calendar    *calendar.Handler
	Newsletter  *newsletter.Handler
	Weather     *weather.Handler
	Health      *health.Handler
}

// RouterOptions — настройки общего middleware.
type RouterOptions struct {
	AllowedOrigins []string
	Debug          bool
	// TrustProxy включает разбор X-Forwarded-For и X-Real-IP. Без него
	// адрес клиента для лимитера берётся из соединения.
	TrustProxy     bool
	Limiter        *middlewarectx.RateLimiter
	Authenticator  middlewarectx.Authenticator
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, h Handlers, opts RouterOptions) {
	// Глобальные middleware
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(
		middleware.Logger,
		middlewarectx.Recoverer(logger),
		response.WithDebug(opts.Debug),
		cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		metrics.Middleware,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Not found", "Route "+r.Method+" "+r.URL.Path+" not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed", r.Method+" is not supported for "+r.URL.Path))
	})

	authn := middlewarectx.JWTMiddleware(opts.Authenticator, logger)
	admin := middlewarectx.RequireAdmin(logger)

	r.Route("/api", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware(logger))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(authn).Get("/me", h.Auth.Me)
			r.With(authn).Post("/logout", h.Auth.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn)
			r.With(admin).Get("/", h.Users.List)
			r.Get("/{id}", h.Users.Get)
			r.Put("/{id}", h.Users.Update)
			r.With(admin).Delete("/{id}", h.Users.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.Categories.List)
			r.With(admin).Get("/all", h.Categories.ListAll)
			r.Get("/{id}", h.Categories.Get)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.Categories.Create)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})

		r.Route("/good-timings", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.GoodTimings.List)
			r.Get("/{id}", h.GoodTimings.Get)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.GoodTimings.Create)
				r.Put("/{id}", h.GoodTimings.Update)
				r.Delete("/{id}", h.GoodTimings.Delete)
				r.Post("/{id}/time-slots", h.GoodTimings.CreateSlot)
				r.Put("/{id}/time-slots/{slotId}", h.GoodTimings.UpdateSlot)
				r.Delete("/{id}/time-slots/{slotId}", h.GoodTimings.DeleteSlot)
				r.Put("/time-slots/{slotId}", h.GoodTimings.UpdateSlot)
				r.Delete("/time-slots/{slotId}", h.GoodTimings.DeleteSlot)
			})
		})

		r.Route("/daylight", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.Daylight.List)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/admin/all", h.Daylight.ListAll)
				r.Put("/bulk", h.Daylight.Bulk)
				r.Delete("/all", h.Daylight.DeleteAll)
				r.Put("/{date}", h.Daylight.Upsert)
				r.Delete("/{date}", h.Daylight.Delete)
			})
			r.Get("/{date}", h.Daylight.Get)
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.Calendar.List)
			r.Get("/categories/list", h.Calendar.Categories)
			r.Get("/day/{date}", h.Calendar.Day)
			r.Get("/agenda", h.Calendar.Agenda)
			r.Get("/{id}", h.Calendar.Get)
			r.Post("/", h.Calendar.Create)
			r.Put("/{id}", h.Calendar.Update)
			r.Delete("/{id}", h.Calendar.Delete)
		})

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/subscribe", h.Newsletter.Subscribe)
			r.Post("/unsubscribe", h.Newsletter.Unsubscribe)
			r.Get("/unsubscribe", h.Newsletter.Unsubscribe)
			r.Group(func(r chi.Router) {
				r.Use(authn, admin)
				r.Get("/subscribers", h.Newsletter.Subscribers)
				r.Post("/send-daily", h.Newsletter.SendDaily)
				r.Get("/preview", h.Newsletter.Preview)
				r.Post("/test-email", h.Newsletter.TestEmail)
			})
		})

		r.Route("/weather/daylight", func(r chi.Router) {
			r.Get("/range", h.Weather.Range)
			r.Get("/{date}", h.Weather.Get)
			r.With(authn, admin).Put("/{date}", h.Weather.Put)
		})
	})

	r.Handle("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

}
