// Package middlewarectx содержит HTTP middleware API: проверку bearer-токена,
// проверку роли, ограничение частоты запросов и перехват паник.
//
// JWTMiddleware проверяет токен через сервис аутентификации и кладёт в контекст
// models.Actor; обработчики достают его через ActorFromContext.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dvs/internal/http/response"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// ActorKey — ключ текущего пользователя в контексте.
const ActorKey Key = "actor"

// Authenticator проверяет bearer-токен.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Actor, error)
}

// JWTMiddleware возвращает middleware, который требует заголовок
// Authorization: Bearer <token> и при успешной проверке добавляет
// пользователя в контекст, иначе отвечает 401.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				sl.Op(op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Debug("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Access denied", "No token provided"))
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			actor, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				log.Info("token rejected", sl.Err(err))
				response.Fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin пропускает только администраторов. Должен стоять после JWTMiddleware.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Access denied", "No token provided"))
				return
			}
			if !actor.IsAdmin() {
				log.Info("admin access denied",
					slog.Int("user_id", actor.UserID),
					slog.String("path", r.URL.Path))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("Access denied", "Admin privileges required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor возвращает контекст с пользователем.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext возвращает пользователя, положенного JWTMiddleware.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	return actor, ok
}

// IsAdminOrOwner сообщает, может ли текущий пользователь менять ресурс владельца ownerID.
func IsAdminOrOwner(ctx context.Context, ownerID int) bool {
	actor, ok := ActorFromContext(ctx)
	return ok && actor.CanModify(ownerID)
}
