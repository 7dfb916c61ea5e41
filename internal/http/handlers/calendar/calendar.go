// Package calendar реализует HTTP-обработчики событий календаря, а также
// выдачу разрешённых окон за день и за диапазон дат.
package calendar

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/http/request"
	"github.com/magabrotheeeer/dvs/internal/http/response"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
	services "github.com/magabrotheeeer/dvs/internal/services/calendar"
)

// Service описывает операции календаря.
type Service interface {
	List(ctx context.Context, f models.CalendarEventFilter) ([]models.CalendarEvent, error)
	Get(ctx context.Context, id int) (*models.CalendarEvent, error)
	Create(ctx context.Context, actor models.Actor, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	Update(ctx context.Context, actor models.Actor, id int, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	Delete(ctx context.Context, actor models.Actor, id int) error
	Categories(ctx context.Context) ([]models.Category, error)
	Day(ctx context.Context, date string) (*services.Day, error)
	Agenda(ctx context.Context, from, to string, limit int) ([]calendar.DayResult, error)
}

// Handler обслуживает /api/calendar.
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

// List godoc
// @Summary События календаря
// @Tags Calendar
// @Produce json
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param category_id query int false "Категория"
// @Success 200 {object} response.Response
// @Router /calendar [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.List"
	log := h.logger(r, op)

	q := r.URL.Query()
	rng := models.DateRange{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
	if !request.Validate(w, r, log, h.validate, rng) {
		return
	}
	categoryID, ok := request.OptionalInt(w, r, "category_id")
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), models.CalendarEventFilter{
		StartDate:  rng.StartDate,
		EndDate:    rng.EndDate,
		CategoryID: categoryID,
	})
	if err != nil {
		log.Error("failed to list events", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Get"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	ev, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Info("failed to get event", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(ev))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Create"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	var req models.CalendarEventRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	ev, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		log.Info("failed to create event", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("event created", slog.Int("id", ev.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(ev))
}

// Update заменяет событие; разрешено администратору и автору.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Update"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	var req models.CalendarEventRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	ev, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		log.Info("failed to update event", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("event updated", slog.Int("id", id))
	render.JSON(w, r, response.OK(ev))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Delete"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		log.Info("failed to delete event", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("event deleted", slog.Int("id", id))
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Event deleted successfully"})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Categories"
	log := h.logger(r, op)

	list, err := h.service.Categories(r.Context())
	if err != nil {
		log.Error("failed to list categories", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

// Day godoc
// @Summary Окна одного дня
// @Description Благоприятные интервалы, события и демо-записи даты, отсортированные по времени начала.
// @Tags Calendar
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /calendar/day/{date} [get]
func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Day"
	log := h.logger(r, op)

	date := chi.URLParam(r, "date")
	day, err := h.service.Day(r.Context(), date)
	if err != nil {
		log.Info("failed to resolve day", sl.Date(date), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(day))
}

// Agenda godoc
// @Summary Окна за диапазон дат
// @Tags Calendar
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param limit query int false "Не более limit окон на день"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /calendar/agenda [get]
func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar.Agenda"
	log := h.logger(r, op)

	q := r.URL.Query()
	from, to := q.Get("start_date"), q.Get("end_date")
	if from == "" || to == "" {
		response.BadRequest(w, r, "start_date and end_date are required")
		return
	}
	limit, ok := request.OptionalInt(w, r, "limit")
	if !ok {
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	days, err := h.service.Agenda(r.Context(), from, to, n)
	if err != nil {
		log.Info("failed to build agenda", slog.String("from", from), slog.String("to", to), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Debug("agenda built", slog.Int("days", len(days)), slog.Int("limit", n))
	render.JSON(w, r, response.OK(days))
}
