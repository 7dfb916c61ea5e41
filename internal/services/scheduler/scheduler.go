// Package services периодически ставит в очередь задание ежедневной рассылки.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// SchedulerService публикует NewsletterJob при старте и затем раз в interval.
type SchedulerService struct {
	interval time.Duration
	location *time.Location
	log      *slog.Logger
	now      func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(interval time.Duration, loc *time.Location, log *slog.Logger) *SchedulerService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerService{
		interval: interval,
		location: loc,
		log:      log,
		now:      time.Now,
	}
}

// Run публикует задания, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context, ch rabbitmq.Publisher) {
	s.runPublishDailyNewsletter(ch)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("newsletter scheduler stopped")
			return
		case <-ticker.C:
			s.runPublishDailyNewsletter(ch)
		}
	}
}

func (s *SchedulerService) runPublishDailyNewsletter(ch rabbitmq.Publisher) {
	job, err := s.PublishDailyNewsletter(ch)
	if err != nil {
		s.log.Error("failed to publish newsletter job", sl.Err(err))
		return
	}
	s.log.Info("newsletter job published", sl.RunID(job.RunID), sl.Date(job.Date))
}

// PublishDailyNewsletter публикует задание на сегодняшнюю дату.
func (s *SchedulerService) PublishDailyNewsletter(ch rabbitmq.Publisher) (*models.NewsletterJob, error) {
	const op = "scheduler.PublishDailyNewsletter"
	job := &models.NewsletterJob{
		RunID: uuid.NewString(),
		Date:  calendar.NewDate(s.now().In(s.location)).String(),
	}
	if err := rabbitmq.PublishMessage(ch, rabbitmq.NewsletterExchange, rabbitmq.NewsletterRoutingKey, job); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return job, nil
}
