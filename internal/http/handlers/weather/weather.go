// Package weather реализует HTTP-обработчики прокси светового дня: данные
// берутся из хранилища, а при их отсутствии или устаревании из внешнего API.
package weather

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dvs/internal/http/request"
	"github.com/magabrotheeeer/dvs/internal/http/response"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
	services "github.com/magabrotheeeer/dvs/internal/services/weather"
)

// Service описывает операции прокси.
type Service interface {
	Coordinates(lat, lng *float64) (float64, float64)
	GetOrFetch(ctx context.Context, date string, lat, lng float64) (*services.Result, error)
	Put(ctx context.Context, actor models.Actor, date string, req models.DaylightRequest) (*models.Daylight, error)
	Range(ctx context.Context, from, to string, lat, lng float64) ([]models.Daylight, error)
}

// Handler обслуживает /api/weather.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, validate *validator.Validate) *Handler {
	return &Handler{log: log, service: service, validate: validate}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) coordinates(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, ok := request.OptionalFloat(w, r, "lat")
	if !ok {
		return 0, 0, false
	}
	lng, ok := request.OptionalFloat(w, r, "lng")
	if !ok {
		return 0, 0, false
	}
	if (lat != nil && (*lat < -90 || *lat > 90)) || (lng != nil && (*lng < -180 || *lng > 180)) {
		response.BadRequest(w, r, "lat/lng out of range")
		return 0, 0, false
	}
	la, ln := h.service.Coordinates(lat, lng)
	return la, ln, true
}

// Get godoc
// @Summary Световой день на дату
// @Description Возвращает сохранённую запись, если она свежая, иначе запрашивает внешний API.
// @Tags Weather
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Param lat query number false "Широта"
// @Param lng query number false "Долгота"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse "Внешний API недоступен"
// @Router /weather/daylight/{date} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weather.Get"
	log := h.logger(r, op)

	lat, lng, ok := h.coordinates(w, r)
	if !ok {
		return
	}
	date := chi.URLParam(r, "date")
	res, err := h.service.GetOrFetch(r.Context(), date, lat, lng)
	if err != nil {
		log.Error("failed to get daylight", sl.Date(date), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Debug("daylight served", sl.Date(date), slog.Bool("cached", res.Cached))
	render.JSON(w, r, response.OK(res))
}

// Put сохраняет запись, введённую администратором вручную.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weather.Put"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	var req models.DaylightRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	date := chi.URLParam(r, "date")
	d, err := h.service.Put(r.Context(), actor, date, req)
	if err != nil {
		log.Info("failed to store daylight", sl.Date(date), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(d))
}

func (h *Handler) Range(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weather.Range"
	log := h.logger(r, op)

	q := r.URL.Query()
	from, to := q.Get("start_date"), q.Get("end_date")
	if from == "" || to == "" {
		response.BadRequest(w, r, "start_date and end_date are required")
		return
	}
	lat, lng, ok := h.coordinates(w, r)
	if !ok {
		return
	}
	list, err := h.service.Range(r.Context(), from, to, lat, lng)
	if err != nil {
		log.Error("failed to get daylight range", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}
