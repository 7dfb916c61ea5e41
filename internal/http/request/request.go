// Package request разбирает входные данные HTTP-запросов: JSON-тело,
// параметры маршрута и строки запроса. При ошибке функции сами пишут ответ
// и возвращают false.
package request

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dvs/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dvs/internal/http/response"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// DecodeJSON читает тело в dst и проверяет его валидатором v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return false
	}
	return Validate(w, r, log, v, dst)
}

// Validate проверяет значение и отвечает 400 с подробностями по полям.
func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, value any) bool {
	if err := v.Struct(value); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Fail(w, r, err)
		return false
	}
	return true
}

// IntParam возвращает положительный целый параметр маршрута name.
func IntParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		response.BadRequest(w, r, "Valid "+name+" is required")
		return 0, false
	}
	return id, true
}

// OptionalFloat разбирает необязательный query-параметр с числом.
func OptionalFloat(w http.ResponseWriter, r *http.Request, name string) (*float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		response.BadRequest(w, r, name+" must be a number")
		return nil, false
	}
	return &f, true
}

// OptionalInt разбирает необязательный query-параметр с положительным целым.
func OptionalInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		response.BadRequest(w, r, name+" must be a positive integer")
		return nil, false
	}
	return &n, true
}

// Actor достаёт пользователя, положенного в контекст JWTMiddleware.
func Actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middlewarectx.ActorFromContext(r.Context())
	if !ok {
		response.Fail(w, r, models.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}
