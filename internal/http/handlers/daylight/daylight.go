// Package daylight реализует HTTP-обработчики записей светового дня.
package daylight

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
)

// Service описывает операции над записями светового дня.
type Service interface {
	List(ctx context.Context, r models.DateRange) ([]models.Daylight, error)
	ListRange(ctx context.Context, from, to string) ([]models.Daylight, error)
	Get(ctx context.Context, date string) (*models.Daylight, error)
	Upsert(ctx context.Context, actor models.Actor, date string, req models.DaylightRequest) (*models.Daylight, error)
	UpsertBulk(ctx context.Context, actor models.Actor, items []models.BulkDaylightItem) (int, error)
	Delete(ctx context.Context, date string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Handler обслуживает /api/daylight.
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

func dateRange(r *http.Request) models.DateRange {
	q := r.URL.Query()
	return models.DateRange{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
}

// List godoc
// @Summary Записи светового дня
// @Description Без обеих границ возвращает семь последних записей, новые первыми.
// @Tags Daylight
// @Produce json
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /daylight [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.List"
	log := h.logger(r, op)

	rng := dateRange(r)
	if !request.Validate(w, r, log, h.validate, rng) {
		return
	}
	list, err := h.service.List(r.Context(), rng)
	if err != nil {
		log.Error("failed to list daylight", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

// ListAll отдаёт администратору записи за диапазон; обе границы обязательны.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.ListAll"
	log := h.logger(r, op)

	rng := dateRange(r)
	if !rng.Complete() {
		response.BadRequest(w, r, "start_date and end_date are required")
		return
	}
	if !request.Validate(w, r, log, h.validate, rng) {
		return
	}
	list, err := h.service.ListRange(r.Context(), rng.StartDate, rng.EndDate)
	if err != nil {
		log.Error("failed to list daylight range", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.Get"
	log := h.logger(r, op)

	date := chi.URLParam(r, "date")
	d, err := h.service.Get(r.Context(), date)
	if err != nil {
		log.Info("failed to get daylight", sl.Date(date), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(d))
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.Upsert"
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
	d, err := h.service.Upsert(r.Context(), actor, date, req)
	if err != nil {
		log.Info("failed to save daylight", sl.Date(date), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("daylight saved", sl.Date(d.Date))
	render.JSON(w, r, response.OK(d))
}

// Bulk сохраняет пачку записей; при ошибке в любой не сохраняется ничего.
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.Bulk"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	var req models.BulkDaylightRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	n, err := h.service.UpsertBulk(r.Context(), actor, req.Items)
	if err != nil {
		log.Info("failed to save daylight batch", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(map[string]int{"updated": n}))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.Delete"
	log := h.logger(r, op)

	date := chi.URLParam(r, "date")
	if err := h.service.Delete(r.Context(), date); err != nil {
		log.Info("failed to delete daylight", sl.Date(date), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Daylight data deleted successfully"})
}

func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.daylight.DeleteAll"
	log := h.logger(r, op)

	n, err := h.service.DeleteAll(r.Context())
	if err != nil {
		log.Error("failed to clear daylight", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(map[string]int64{"deleted": n}))
}
