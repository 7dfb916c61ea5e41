// Package services проксирует внешний API восхода/заката и кеширует ответы
// в таблице daylight.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	// Часовые пояса встроены в бинарник для образов без tzdata.
	_ "time/tzdata"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/config"
	"github.com/magabrotheeeer/dvs/internal/lib/metrics"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
	"github.com/magabrotheeeer/dvs/internal/sunrise"
)

// MaxRangeDays — наибольшая длина диапазона для Range.
const MaxRangeDays = 31

// ErrRangeTooLong возвращается, если диапазон длиннее MaxRangeDays.
var ErrRangeTooLong = fmt.Errorf("%w: date range must not exceed 31 days", models.ErrInvalidInput)

const clockLayout = "15:04:05"

// Fetcher получает восход и закат из внешнего источника.
type Fetcher interface {
	Fetch(ctx context.Context, date string, lat, lng float64) (*sunrise.Result, error)
}

// DaylightRepository — часть хранилища, нужная для кеша.
type DaylightRepository interface {
	GetDaylight(ctx context.Context, date string) (*models.Daylight, error)
	ListDaylightRange(ctx context.Context, from, to string) ([]models.Daylight, error)
	UpsertDaylight(ctx context.Context, date string, req models.DaylightRequest, updatedBy *int) (*models.Daylight, error)
	TrimDaylight(ctx context.Context, keep int) (int64, error)
}

// Result — запись светового дня и признак того, что она взята из хранилища.
type Result struct {
	Daylight *models.Daylight `json:"daylight"`
	Cached   bool             `json:"cached"`
}

// WeatherService отдаёт данные о световом дне, обращаясь к внешнему API
// только если сохранённая запись отсутствует или устарела.
type WeatherService struct {
	repo      DaylightRepository
	fetcher   Fetcher
	cfg       config.Weather
	retention int
	location  *time.Location
	log       *slog.Logger
	now       func() time.Time
}

// NewWeatherService создает новый экземпляр WeatherService. Неизвестный
// часовой пояс из конфигурации заменяется на UTC.
func NewWeatherService(repo DaylightRepository, fetcher Fetcher, cfg config.Weather, retention int, log *slog.Logger) *WeatherService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("unknown weather timezone, using UTC", slog.String("timezone", cfg.Timezone), sl.Err(err))
		loc = time.UTC
		cfg.Timezone = "UTC"
	}
	return &WeatherService{
		repo:      repo,
		fetcher:   fetcher,
		cfg:       cfg,
		retention: retention,
		location:  loc,
		log:       log,
		now:       time.Now,
	}
}

// Coordinates возвращает lat/lng, подставляя значения по умолчанию из конфигурации.
func (s *WeatherService) Coordinates(lat, lng *float64) (float64, float64) {
	la, ln := s.cfg.Latitude, s.cfg.Longitude
	if lat != nil {
		la = *lat
	}
	if lng != nil {
		ln = *lng
	}
	return la, ln
}

// GetOrFetch возвращает сохранённую запись, если она моложе порога свежести,
// иначе запрашивает внешний API, сохраняет ответ и применяет ротацию.
// Сбой внешнего API даёт models.ErrUpstream, устаревшие данные не отдаются.
func (s *WeatherService) GetOrFetch(ctx context.Context, date string, lat, lng float64) (*Result, error) {
	const op = "weather.GetOrFetch"
	day, err := calendar.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := s.repo.GetDaylight(ctx, day.String())
	switch {
	case err == nil:
		if s.now().Sub(stored.UpdatedAt) < s.cfg.Freshness {
			metrics.DaylightCache.WithLabelValues("hit").Inc()
			return &Result{Daylight: stored, Cached: true}, nil
		}
	case errors.Is(err, models.ErrNotFound):
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.DaylightCache.WithLabelValues("miss").Inc()

	d, err := s.fetchAndStore(ctx, day.String(), lat, lng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.trim(ctx)
	return &Result{Daylight: d, Cached: false}, nil
}

// Put сохраняет запись, введённую вручную.
func (s *WeatherService) Put(ctx context.Context, actor models.Actor, date string, req models.DaylightRequest) (*models.Daylight, error) {
	const op = "weather.Put"
	day, err := calendar.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Timezone == "" {
		req.Timezone = s.cfg.Timezone
	}
	var by *int
	if actor.UserID > 0 {
		id := actor.UserID
		by = &id
	}
	d, err := s.repo.UpsertDaylight(ctx, day.String(), req, by)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.trim(ctx)
	return d, nil
}

// Range возвращает записи за from..to включительно. Отсутствующие даты
// запрашиваются у внешнего API с паузой между запросами; даты, для которых
// API вернул ошибку, пропускаются.
func (s *WeatherService) Range(ctx context.Context, from, to string, lat, lng float64) ([]models.Daylight, error) {
	const op = "weather.Range"
	start, err := calendar.ParseDay(from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end, err := calendar.ParseDay(to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%s: %w: start date after end date", op, models.ErrInvalidInput)
	}
	if start.AddDays(MaxRangeDays - 1).Before(end) {
		return nil, fmt.Errorf("%s: %w", op, ErrRangeTooLong)
	}

	stored, err := s.repo.ListDaylightRange(ctx, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byDate := make(map[string]models.Daylight, len(stored))
	for _, d := range stored {
		byDate[d.Date] = d
	}

	limiter := rate.NewLimiter(rate.Every(s.cfg.RangePacing), 1)
	result := make([]models.Daylight, 0, MaxRangeDays)
	fetched := 0
	for day := start; !day.After(end); day = day.AddDays(1) {
		if d, ok := byDate[day.String()]; ok {
			result = append(result, d)
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		d, err := s.fetchAndStore(ctx, day.String(), lat, lng)
		if err != nil {
			s.log.Warn("skipping date in range", sl.Date(day.String()), sl.Err(err))
			continue
		}
		fetched++
		result = append(result, *d)
	}
	if fetched > 0 {
		s.trim(ctx)
	}
	return result, nil
}

func (s *WeatherService) fetchAndStore(ctx context.Context, date string, lat, lng float64) (*models.Daylight, error) {
	res, err := s.fetcher.Fetch(ctx, date, lat, lng)
	if err != nil {
		s.log.Error("sunrise api request failed", sl.Date(date), sl.Err(err))
		return nil, fmt.Errorf("%w: %w", models.ErrUpstream, err)
	}

	la, ln := lat, lng
	req := models.DaylightRequest{
		SunriseTime: res.Sunrise.In(s.location).Format(clockLayout),
		SunsetTime:  res.Sunset.In(s.location).Format(clockLayout),
		Timezone:    s.cfg.Timezone,
		Latitude:    &la,
		Longitude:   &ln,
	}
	d, err := s.repo.UpsertDaylight(ctx, date, req, nil)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *WeatherService) trim(ctx context.Context) {
	if s.retention <= 0 {
		return
	}
	if _, err := s.repo.TrimDaylight(ctx, s.retention); err != nil {
		s.log.Warn("failed to trim daylight records", sl.Err(err))
	}
}
