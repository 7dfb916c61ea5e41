// Package goodtimings реализует HTTP-обработчики благоприятных интервалов
// и их временных слотов.
package goodtimings

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

// Service описывает операции над интервалами и слотами.
type Service interface {
	List(ctx context.Context, f models.GoodTimingFilter) ([]models.GoodTiming, error)
	Get(ctx context.Context, id int) (*models.GoodTiming, error)
	Create(ctx context.Context, actor models.Actor, req models.GoodTimingRequest) (*models.GoodTiming, error)
	Update(ctx context.Context, id int, req models.GoodTimingRequest) (*models.GoodTiming, error)
	Delete(ctx context.Context, id int) error
	CreateSlot(ctx context.Context, goodTimingID int, req models.TimeSlotRequest) (*models.TimeSlot, error)
	UpdateSlot(ctx context.Context, goodTimingID, slotID int, req models.UpdateTimeSlotRequest) (*models.TimeSlot, error)
	DeleteSlot(ctx context.Context, goodTimingID, slotID int) error
}

// Handler обслуживает /api/good-timings.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, validate *validator.Validate) *Handler {
	return &Handler{log: log, service: service, validate: validate}
}

type listQuery struct {
	models.DateRange
	Day string `json:"day" validate:"omitempty,weekday"`
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Список благоприятных интервалов
// @Tags GoodTimings
// @Produce json
// @Param start_date query string false "Начало не раньше (YYYY-MM-DD)"
// @Param end_date query string false "Конец не позже (YYYY-MM-DD)"
// @Param day query string false "День недели"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /good-timings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.List"
	log := h.logger(r, op)

	q := r.URL.Query()
	query := listQuery{
		DateRange: models.DateRange{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")},
		Day:       q.Get("day"),
	}
	if !request.Validate(w, r, log, h.validate, query) {
		return
	}

	list, err := h.service.List(r.Context(), models.GoodTimingFilter{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Day:       query.Day,
	})
	if err != nil {
		log.Error("failed to list good timings", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.Get"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	gt, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Info("failed to get good timing", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(gt))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.Create"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	var req models.GoodTimingRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	gt, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		log.Error("failed to create good timing", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("good timing created", slog.Int("id", gt.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(gt))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.Update"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	var req models.GoodTimingRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	gt, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Info("failed to update good timing", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("good timing updated", slog.Int("id", id))
	render.JSON(w, r, response.OK(gt))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.Delete"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Info("failed to delete good timing", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("good timing deleted", slog.Int("id", id))
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Good timing deleted successfully"})
}

// CreateSlot добавляет слот в интервал {id}.
func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.CreateSlot"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	var req models.TimeSlotRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	slot, err := h.service.CreateSlot(r.Context(), id, req)
	if err != nil {
		log.Info("failed to create time slot", slog.Int("good_timing_id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("time slot created", slog.Int("id", slot.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(slot))
}

// UpdateSlot частично обновляет слот. Маршрут может не содержать {id}
// интервала, тогда слот ищется только по {slotId}.
func (h *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.UpdateSlot"
	log := h.logger(r, op)

	gtID, slotID, ok := slotParams(w, r)
	if !ok {
		return
	}
	var req models.UpdateTimeSlotRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	slot, err := h.service.UpdateSlot(r.Context(), gtID, slotID, req)
	if err != nil {
		log.Info("failed to update time slot", slog.Int("id", slotID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("time slot updated", slog.Int("id", slotID))
	render.JSON(w, r, response.OK(slot))
}

func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.goodtimings.DeleteSlot"
	log := h.logger(r, op)

	gtID, slotID, ok := slotParams(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSlot(r.Context(), gtID, slotID); err != nil {
		log.Info("failed to delete time slot", slog.Int("id", slotID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("time slot deleted", slog.Int("id", slotID))
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Time slot deleted successfully"})
}

func slotParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	gtID := 0
	if chi.URLParam(r, "id") != "" {
		id, ok := request.IntParam(w, r, "id")
		if !ok {
			return 0, 0, false
		}
		gtID = id
	}
	slotID, ok := request.IntParam(w, r, "slotId")
	return gtID, slotID, ok
}
