// Package metrics объявляет счётчики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvs_http_requests_total",
		Help: "Number of handled HTTP requests.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dvs_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// NewsletterDeliveries считает письма рассылки по результату (success/failure).
	NewsletterDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvs_newsletter_deliveries_total",
		Help: "Newsletter deliveries by result.",
	}, []string{"result"})

	SunriseRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvs_sunrise_requests_total",
		Help: "Requests to the sunrise/sunset API by result.",
	}, []string{"result"})

	// DaylightCache: hit, если запись взята из таблицы daylight, miss, если пришлось идти во внешний API.
	DaylightCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dvs_daylight_cache_total",
		Help: "Daylight lookups served from storage (hit) or upstream (miss).",
	}, []string{"result"})
)

// Middleware считает запросы по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
