// Package categories реализует HTTP-обработчики справочника категорий.
package categories

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dvs/internal/http/request"
	"github.com/magabrotheeeer/dvs/internal/http/response"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// Service описывает операции над категориями.
type Service interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int) (*models.Category, error)
	Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	Update(ctx context.Context, id int, req models.UpdateCategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, id int) error
}

// Handler обслуживает /api/categories.
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
// @Summary Активные категории
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.categories.List"
	log := h.logger(r, op)

	list, err := h.service.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list categories", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

// ListAll возвращает все категории, включая выключенные.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.categories.ListAll"
	log := h.logger(r, op)

	list, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error("failed to list categories", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.categories.Get"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Info("failed to get category", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(c))
}

// Create godoc
// @Summary Создать категорию
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCategoryRequest true "Категория"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Имя уже занято"
// @Failure 403 {object} response.ErrorResponse
// @Router /categories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.categories.Create"
	log := h.logger(r, op)

	var req models.CreateCategoryRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Info("failed to create category", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("category created", slog.Int("id", c.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.categories.Update"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateCategoryRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Info("failed to update category", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("category updated", slog.Int("id", id))
	render.JSON(w, r, response.OK(c))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.categories.Delete"
	log := h.logger(r, op)

	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Info("failed to delete category", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("category deleted", slog.Int("id", id))
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Category deleted successfully"})
}
