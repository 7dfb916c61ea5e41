// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков и сопоставления доменных
// ошибок со статусами HTTP.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/models"
)

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// FieldError — нарушение правила валидации одного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status  string       `json:"status"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Details []FieldError `json:"details,omitempty"`
	Data    any          `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status  string `json:"status" example:"Error"`
	Error   string `json:"error" example:"Not found"`
	Message string `json:"message" example:"not found"`
}

// OK возвращает успешный Response с переданными данными.
func OK(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и поясняющим сообщением.
func Error(title, msg string) Response {
	return Response{
		Status:  StatusError,
		Error:   title,
		Message: msg,
	}
}

// ValidationError формирует ответ 400 из ошибок валидатора.
func ValidationError(errs validator.ValidationErrors) Response {
	details := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		details = append(details, FieldError{Field: err.Field(), Message: fieldMessage(err)})
	}
	return Response{
		Status:  StatusError,
		Error:   "Validation failed",
		Message: "Request contains invalid fields",
		Details: details,
	}
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Valid email is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), strings.ReplaceAll(err.Param(), " ", ", "))
	case "hhmm":
		return fmt.Sprintf("%s must be in HH:MM format", err.Field())
	case "hhmmss":
		return fmt.Sprintf("%s must be in HH:MM or HH:MM:SS format", err.Field())
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
	case "isodatetime":
		return fmt.Sprintf("%s must be a valid date", err.Field())
	case "weekday":
		return "Day must be a valid day of the week"
	case "phone":
		return "Valid phone number is required"
	case "gtefield", "ltefield", "after":
		return fmt.Sprintf("%s must not be before %s", err.Field(), err.Param())
	case "before":
		return fmt.Sprintf("%s must be before %s", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s is not valid", err.Field())
	}
}

type debugKey struct{}

// WithDebug сохраняет в контексте запроса признак, разрешающий отдавать
// клиенту текст внутренних ошибок.
func WithDebug(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), debugKey{}, debug)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func debugEnabled(ctx context.Context) bool {
	debug, _ := ctx.Value(debugKey{}).(bool)
	return debug
}

// Status сопоставляет ошибку со статусом HTTP и телом ответа.
func Status(ctx context.Context, err error) (int, Response) {
	var verrs validator.ValidationErrors
	var perr *time.ParseError
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, ValidationError(verrs)
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, calendar.ErrEmptyDate),
		errors.As(err, &perr):
		return http.StatusBadRequest, Error("Invalid request", lastMessage(err))
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, Error("Invalid credentials", "Email or password is incorrect")
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, Error("Access denied", "Invalid or expired token")
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, Error("Access denied", "You do not have permission to perform this action")
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, Error("Not found", "The requested resource was not found")
	case errors.Is(err, models.ErrCategoryExists):
		return http.StatusBadRequest, Error("Category exists", models.ErrCategoryExists.Error())
	case errors.Is(err, models.ErrCategoryInUse):
		return http.StatusBadRequest, Error("Category in use", models.ErrCategoryInUse.Error())
	case errors.Is(err, models.ErrInvalidCategory):
		return http.StatusBadRequest, Error("Invalid category", models.ErrInvalidCategory.Error())
	case errors.Is(err, models.ErrSelfDelete):
		return http.StatusBadRequest, Error("Cannot delete yourself", models.ErrSelfDelete.Error())
	case errors.Is(err, models.ErrNoUpdates):
		return http.StatusBadRequest, Error("No updates provided", models.ErrNoUpdates.Error())
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, Error("Conflict", "Resource already exists")
	case errors.Is(err, models.ErrUpstream):
		return http.StatusInternalServerError, Error("Upstream service error", lastMessage(err))
	}
	msg := "Something went wrong"
	if debugEnabled(ctx) {
		msg = err.Error()
	}
	return http.StatusInternalServerError, Error("Internal server error", msg)
}

// Fail пишет ответ с ошибкой err.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Status(r.Context(), err)
	render.Status(r, status)
	render.JSON(w, r, body)
}

// BadRequest пишет ответ 400 с сообщением msg.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("Bad request", msg))
}

// lastMessage возвращает последнее звено цепочки "op: op: причина".
func lastMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
