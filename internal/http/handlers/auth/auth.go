// Package auth реализует HTTP-обработчики регистрации, входа и выхода.
package auth

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

// Service описывает бизнес-логику аутентификации.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
}

// Handler обслуживает /api/auth.
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

// Register godoc
// @Summary Регистрация пользователя
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Данные пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Register"
	log := h.logger(r, op)

	var req models.RegisterRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("user registered", slog.Int("user_id", res.User.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(res))
}

// Login godoc
// @Summary Вход по email и паролю
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Учётные данные"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверный email или пароль"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"
	log := h.logger(r, op)

	var req models.LoginRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		log.Info("login failed", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("user logged in", slog.Int("user_id", res.User.ID))
	render.JSON(w, r, response.OK(res))
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Me"
	log := h.logger(r, op)

	actor, ok := request.Actor(w, r)
	if !ok {
		return
	}
	user, err := h.service.Me(r.Context(), actor)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(user))
}

// Logout подтверждает выход. Токены не хранятся на сервере, клиент просто
// забывает свой.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Logged out successfully"})
}
