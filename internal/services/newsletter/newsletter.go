// Package services собирает ежедневный дайджест благоприятных интервалов и
// рассылает его подписчикам.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/lib/metrics"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

const (
	subjectPrefix = "Your Daily Good Timings - "
	subjectLayout = "Monday, January 2"
	longLayout    = "Monday, January 2, 2006"

	welcomeSubject = "Welcome to DVS Daily Newsletter!"
	testSubject    = "DVS Email Test - Newsletter System"
)

var quotes = []string{
	"The way to get started is to quit talking and begin doing. - Walt Disney",
	"Don't be afraid to give up the good to go for the great. - John D. Rockefeller",
	"Innovation distinguishes between a leader and a follower. - Steve Jobs",
	"The future belongs to those who believe in the beauty of their dreams. - Eleanor Roosevelt",
	"Success is not final, failure is not fatal: it is the courage to continue that counts. - Winston Churchill",
	"The only way to do great work is to love what you do. - Steve Jobs",
	"If you really look closely, most overnight successes took a long time. - Steve Jobs",
	"Life is what happens to you while you're busy making other plans. - John Lennon",
	"It always seems impossible until it's done. - Nelson Mandela",
	"Your time is limited, don't waste it living someone else's life. - Steve Jobs",
}

// Repository — данные, из которых собирается рассылка.
type Repository interface {
	Subscribe(ctx context.Context, email string) (*models.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context, activeOnly bool) ([]models.Subscriber, error)
	ListGoodTimingsOverlapping(ctx context.Context, from, to string) ([]models.GoodTiming, error)
	GetDaylight(ctx context.Context, date string) (*models.Daylight, error)
}

// Mailer отправляет одно HTML-письмо.
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, html string) error
}

// Digest — содержимое ежедневного письма.
type Digest struct {
	Date     string           `json:"date"`
	Subject  string           `json:"subject"`
	Timings  []calendar.Slot  `json:"timings"`
	Daylight *models.Daylight `json:"daylight,omitempty"`
	Quote    string           `json:"quote"`
	HTML     string           `json:"email_content"`
}

// DeliveryResult — итог отправки одному получателю.
type DeliveryResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Report — итог запуска рассылки.
type Report struct {
	RunID           string           `json:"run_id"`
	Subject         string           `json:"subject"`
	SubscriberCount int              `json:"subscriber_count"`
	EmailsSent      int              `json:"emails_sent"`
	EmailsFailed    int              `json:"emails_failed"`
	HasTimings      bool             `json:"has_timings"`
	HasDaylight     bool             `json:"has_daylight"`
	Quote           string           `json:"quote"`
	Results         []DeliveryResult `json:"results"`
}

// SubscribeResult — новый подписчик и признак отправки приветствия.
type SubscribeResult struct {
	Subscriber *models.Subscriber `json:"subscriber"`
	EmailSent  bool               `json:"email_sent"`
}

// NewsletterService реализует операции рассылки.
type NewsletterService struct {
	repo           Repository
	mailer         Mailer
	resolver       *calendar.Resolver
	interval       time.Duration
	unsubscribeURL string
	location       *time.Location
	log            *slog.Logger
	now            func() time.Time
	pick           func(n int) int
}

// NewNewsletterService создает новый экземпляр NewsletterService. interval
// задаёт паузу между письмами, loc определяет «сегодня».
func NewNewsletterService(repo Repository, mailer Mailer, resolver *calendar.Resolver, interval time.Duration,
	unsubscribeURL string, loc *time.Location, log *slog.Logger) *NewsletterService {
	if loc == nil {
		loc = time.UTC
	}
	return &NewsletterService{
		repo:           repo,
		mailer:         mailer,
		resolver:       resolver,
		interval:       interval,
		unsubscribeURL: unsubscribeURL,
		location:       loc,
		log:            log,
		now:            time.Now,
		pick:           rand.IntN,
	}
}

// Today возвращает текущую дату в часовом поясе сервиса.
func (s *NewsletterService) Today() calendar.Date {
	return calendar.NewDate(s.now().In(s.location))
}

// Subscribe добавляет адрес и отправляет приветственное письмо.
// Ошибка отправки не отменяет подписку.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	const op = "newsletter.Subscribe"
	email = strings.ToLower(strings.TrimSpace(email))

	sub, err := s.repo.Subscribe(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("newsletter subscriber added", slog.Int("id", sub.ID))

	res := &SubscribeResult{Subscriber: sub}
	html, err := render(welcomeTemplate, map[string]any{
		"Email":          email,
		"UnsubscribeURL": template.URL(s.unsubscribeLink(email)),
	})
	if err == nil {
		err = s.mailer.SendHTML(ctx, email, welcomeSubject, html)
	}
	if err != nil {
		s.log.Warn("failed to send welcome email", slog.String("email", email), sl.Err(err))
		return res, nil
	}
	res.EmailSent = true
	return res, nil
}

// Unsubscribe отключает адрес от рассылки.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	const op = "newsletter.Unsubscribe"
	if err := s.repo.Unsubscribe(ctx, strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribers возвращает активных подписчиков.
func (s *NewsletterService) Subscribers(ctx context.Context) ([]models.Subscriber, error) {
	const op = "newsletter.Subscribers"
	subs, err := s.repo.ListSubscribers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// BuildDailyDigest собирает письмо на дату today: слоты благоприятных
// интервалов, запись светового дня и случайную цитату.
func (s *NewsletterService) BuildDailyDigest(ctx context.Context, today calendar.Date) (*Digest, error) {
	const op = "newsletter.BuildDailyDigest"
	date := today.String()

	timings, err := s.repo.ListGoodTimingsOverlapping(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slots := make([]calendar.Slot, 0)
	for _, w := range s.resolver.Resolve(today, timings, nil, nil) {
		slots = append(slots, w.TimeSlots...)
	}
	calendar.SortSlots(slots)

	daylight, err := s.repo.GetDaylight(ctx, date)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := &Digest{
		Date:     date,
		Subject:  subjectPrefix + today.Time().Format(subjectLayout),
		Timings:  slots,
		Daylight: daylight,
		Quote:    quotes[s.pick(len(quotes))],
	}
	if d.HTML, err = s.renderDigest(d, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// Preview собирает сегодняшнее письмо без отправки.
func (s *NewsletterService) Preview(ctx context.Context) (*Digest, error) {
	return s.BuildDailyDigest(ctx, s.Today())
}

// Deliver отправляет дайджест подписчикам по одному, выдерживая интервал
// между письмами. Ошибка одного получателя не прерывает цикл; отмена ctx
// останавливает его, и оставшиеся получатели считаются неуспешными.
func (s *NewsletterService) Deliver(ctx context.Context, subscribers []models.Subscriber, digest *Digest) []DeliveryResult {
	limit := rate.Inf
	if s.interval > 0 {
		limit = rate.Every(s.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]DeliveryResult, 0, len(subscribers))
	for i, sub := range subscribers {
		if err := limiter.Wait(ctx); err != nil {
			for _, rest := range subscribers[i:] {
				results = append(results, s.failed(rest.Email, err))
			}
			s.log.Warn("newsletter delivery interrupted", slog.Int("remaining", len(subscribers)-i), sl.Err(err))
			break
		}

		html, err := s.renderDigest(digest, sub.Email)
		if err == nil {
			err = s.mailer.SendHTML(ctx, sub.Email, digest.Subject, html)
		}
		if err != nil {
			s.log.Error("failed to send newsletter", slog.String("email", sub.Email), sl.Err(err))
			results = append(results, s.failed(sub.Email, err))
			continue
		}
		metrics.NewsletterDeliveries.WithLabelValues("success").Inc()
		results = append(results, DeliveryResult{Email: sub.Email, Success: true})
	}
	return results
}

// SendDaily собирает дайджест на дату задания и рассылает его всем активным
// подписчикам. Пустые RunID и Date заменяются новым uuid и сегодняшней датой.
func (s *NewsletterService) SendDaily(ctx context.Context, job models.NewsletterJob) (*Report, error) {
	const op = "newsletter.SendDaily"
	if job.RunID == "" {
		job.RunID = uuid.NewString()
	}
	today := s.Today()
	if job.Date != "" {
		d, err := calendar.ParseDay(job.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		today = d
	}
	log := s.log.With(sl.Op(op), sl.RunID(job.RunID))

	digest, err := s.BuildDailyDigest(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := s.repo.ListSubscribers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &Report{
		RunID:           job.RunID,
		Subject:         digest.Subject,
		SubscriberCount: len(subs),
		HasTimings:      len(digest.Timings) > 0,
		HasDaylight:     digest.Daylight != nil,
		Quote:           digest.Quote,
		Results:         make([]DeliveryResult, 0),
	}
	if len(subs) == 0 {
		log.Info("no active subscribers")
		return report, nil
	}

	report.Results = s.Deliver(ctx, subs, digest)
	for _, r := range report.Results {
		if r.Success {
			report.EmailsSent++
		} else {
			report.EmailsFailed++
		}
	}
	log.Info("daily newsletter sent",
		slog.Int("sent", report.EmailsSent),
		slog.Int("failed", report.EmailsFailed))
	return report, nil
}

// TestEmail отправляет проверочное письмо. Ошибка SMTP возвращается как ErrUpstream.
func (s *NewsletterService) TestEmail(ctx context.Context, email string) error {
	const op = "newsletter.TestEmail"
	html, err := render(testTemplate, map[string]any{
		"Email": email,
		"Time":  s.now().In(s.location).Format(time.RFC1123),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.mailer.SendHTML(ctx, email, testSubject, html); err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrUpstream, err)
	}
	return nil
}

func (s *NewsletterService) failed(email string, err error) DeliveryResult {
	metrics.NewsletterDeliveries.WithLabelValues("failure").Inc()
	return DeliveryResult{Email: email, Error: err.Error()}
}

func (s *NewsletterService) renderDigest(d *Digest, email string) (string, error) {
	date, err := calendar.ParseDay(d.Date)
	if err != nil {
		return "", err
	}
	return render(digestTemplate, map[string]any{
		"Subject":        d.Subject,
		"LongDate":       date.Time().Format(longLayout),
		"Timings":        d.Timings,
		"Daylight":       d.Daylight,
		"Quote":          d.Quote,
		"UnsubscribeURL": template.URL(s.unsubscribeLink(email)),
	})
}

// unsubscribeLink добавляет адрес получателя к ссылке отписки.
func (s *NewsletterService) unsubscribeLink(email string) string {
	if s.unsubscribeURL == "" {
		return "#"
	}
	if email == "" {
		return s.unsubscribeURL
	}
	u, err := url.Parse(s.unsubscribeURL)
	if err != nil {
		return s.unsubscribeURL
	}
	q := u.Query()
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String()
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
