// Package sender содержит приложение, которое забирает задания рассылки
// из очереди и отправляет письма подписчикам.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/config"
	"github.com/magabrotheeeer/dvs/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/lib/smtp"
	"github.com/magabrotheeeer/dvs/internal/models"
	newsletterservice "github.com/magabrotheeeer/dvs/internal/services/newsletter"
	senderservice "github.com/magabrotheeeer/dvs/internal/services/sender"
	"github.com/magabrotheeeer/dvs/internal/storage/repository"
)

// DailySender рассылает письмо по заданию.
type DailySender interface {
	SendDaily(ctx context.Context, job models.NewsletterJob) (*newsletterservice.Report, error)
}

type App struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	db         *repository.Storage
	newsletter DailySender
	logger     *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitRetries, cfg.RabbitDelay)
	if err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NewsletterExchange, rabbitmq.NewsletterQueues())
	if err != nil {
		conn.Close()
		_ = db.DB.Close()
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Weather.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", slog.String("timezone", cfg.Weather.Timezone), sl.Err(err))
		loc = time.UTC
	}

	senderService := senderservice.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), logger)
	newsletterService := newsletterservice.NewNewsletterService(db, senderService, calendar.NewResolver(logger),
		cfg.SendInterval, cfg.UnsubscribeURL, loc, logger)

	return &App{
		conn:       conn,
		ch:         ch,
		db:         db,
		newsletter: newsletterService,
		logger:     logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.NewsletterQueue, a.HandleJob)
	if err != nil {
		a.logger.Error("failed to start newsletter consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}

// HandleJob декодирует задание и выполняет рассылку. Ошибка разбора не
// возвращается: повторная доставка того же тела ничего не изменит.
func (a *App) HandleJob(ctx context.Context, body []byte) error {
	const op = "sender.HandleJob"
	var job models.NewsletterJob
	if err := json.Unmarshal(body, &job); err != nil {
		a.logger.Error("dropping malformed newsletter job", sl.Op(op), sl.Err(err))
		return nil
	}

	report, err := a.newsletter.SendDaily(ctx, job)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Info("newsletter job done",
		sl.RunID(report.RunID),
		slog.Int("subscribers", report.SubscriberCount),
		slog.Int("sent", report.EmailsSent),
		slog.Int("failed", report.EmailsFailed),
	)
	return nil
}
