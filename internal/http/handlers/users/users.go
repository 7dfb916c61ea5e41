// Package users реализует HTTP-обработчики ресурса пользователей.
package users

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

// Service описывает операции над пользователями. Права проверяет сервис.
type Service interface {
	List(ctx context.Context, actor models.Actor) ([]models.User, error)
	Get(ctx context.Context, actor models.Actor, id int) (*models.User, error)
	Update(ctx context.Context, actor models.Actor, id int, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor models.Actor, id int) error
}

// Handler обслуживает /api/users.
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.List"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Get"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		log.Info("failed to get user", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(user))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Update"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		log.Info("failed to update user", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("user updated", slog.Int("id", id))
	render.JSON(w, r, response.OK(user))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Delete"
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
		log.Info("failed to delete user", slog.Int("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("user deleted", slog.Int("id", id))
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "User deleted successfully"})
}
