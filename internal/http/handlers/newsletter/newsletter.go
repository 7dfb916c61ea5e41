// Package newsletter реализует HTTP-обработчики подписки на ежедневную
// рассылку и административные операции с ней.
package newsletter

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
	services "github.com/magabrotheeeer/dvs/internal/services/newsletter"
)

// Service описывает операции рассылки.
type Service interface {
	Subscribe(ctx context.Context, email string) (*services.SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) error
	Subscribers(ctx context.Context) ([]models.Subscriber, error)
	Preview(ctx context.Context) (*services.Digest, error)
	SendDaily(ctx context.Context, job models.NewsletterJob) (*services.Report, error)
	TestEmail(ctx context.Context, email string) error
}

// Handler обслуживает /api/newsletter.
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

// Subscribe godoc
// @Summary Подписаться на рассылку
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param request body models.EmailRequest true "Email"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Уже подписан"
// @Router /newsletter/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Subscribe"
	log := h.logger(r, op)

	var req models.EmailRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		log.Info("failed to subscribe", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("subscriber added", slog.Int("id", res.Subscriber.ID), slog.Bool("welcome_sent", res.EmailSent))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(res))
}

// Unsubscribe принимает email в теле запроса или в параметре ?email=,
// как в ссылке из письма.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Unsubscribe"
	log := h.logger(r, op)

	req := models.EmailRequest{Email: r.URL.Query().Get("email")}
	if req.Email == "" && r.Method != http.MethodGet {
		if !request.DecodeJSON(w, r, log, h.validate, &req) {
			return
		}
	} else if !request.Validate(w, r, log, h.validate, req) {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req.Email); err != nil {
		log.Info("failed to unsubscribe", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Successfully unsubscribed from newsletter"})
}

func (h *Handler) Subscribers(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Subscribers"
	log := h.logger(r, op)

	list, err := h.service.Subscribers(r.Context())
	if err != nil {
		log.Error("failed to list subscribers", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(list))
}

// Preview отдаёт письмо на сегодня без отправки.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Preview"
	log := h.logger(r, op)

	digest, err := h.service.Preview(r.Context())
	if err != nil {
		log.Error("failed to build preview", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK(digest))
}

// SendDaily godoc
// @Summary Разослать письмо на сегодня
// @Description Необязательный параметр date задаёт дату письма (YYYY-MM-DD).
// @Tags Newsletter
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /newsletter/send-daily [post]
func (h *Handler) SendDaily(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.SendDaily"
	log := h.logger(r, op)

	job := models.NewsletterJob{
		RunID: middleware.GetReqID(r.Context()),
		Date:  r.URL.Query().Get("date"),
	}
	report, err := h.service.SendDaily(r.Context(), job)
	if err != nil {
		log.Error("failed to send newsletter", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("newsletter sent",
		slog.Int("sent", report.EmailsSent),
		slog.Int("failed", report.EmailsFailed),
	)
	render.JSON(w, r, response.OK(report))
}

func (h *Handler) TestEmail(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.TestEmail"
	log := h.logger(r, op)

	var req models.EmailRequest
	if !request.DecodeJSON(w, r, log, h.validate, &req) {
		return
	}
	if err := h.service.TestEmail(r.Context(), req.Email); err != nil {
		log.Warn("test email failed", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.Response{Status: response.StatusOK, Message: "Test email sent successfully"})
}
