// Package services содержит бизнес-логику событий календаря и построение
// представлений дня и повестки через calendar.Resolver.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// MaxAgendaDays — наибольшая длина диапазона повестки.
const MaxAgendaDays = 62

// ErrRangeTooLong возвращается для слишком длинного диапазона повестки.
var ErrRangeTooLong = fmt.Errorf("%w: agenda range must not exceed 62 days", models.ErrInvalidInput)

// EventRepository определяет методы хранилища, нужные календарю.
type EventRepository interface {
	ListCalendarEvents(ctx context.Context, f models.CalendarEventFilter) ([]models.CalendarEvent, error)
	ListCalendarEventsOverlapping(ctx context.Context, from, to string) ([]models.CalendarEvent, error)
	GetCalendarEvent(ctx context.Context, id int) (*models.CalendarEvent, error)
	CreateCalendarEvent(ctx context.Context, req models.CalendarEventRequest, createdBy int) (*models.CalendarEvent, error)
	UpdateCalendarEvent(ctx context.Context, id int, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	DeleteCalendarEvent(ctx context.Context, id int) error
	ListGoodTimingsOverlapping(ctx context.Context, from, to string) ([]models.GoodTiming, error)
}

// CategoryLister отдаёт активные категории.
type CategoryLister interface {
	ListActive(ctx context.Context) ([]models.Category, error)
}

// Day — разрешённые окна одной даты.
type Day struct {
	Date    string            `json:"date"`
	Weekday string            `json:"weekday"`
	Windows []calendar.Window `json:"windows"`
}

// CalendarService реализует операции календаря.
type CalendarService struct {
	repo       EventRepository
	categories CategoryLister
	resolver   *calendar.Resolver
	demoPath   string
	location   *time.Location
	log        *slog.Logger
	now        func() time.Time
}

// NewCalendarService создает новый экземпляр CalendarService. demoPath —
// YAML с демонстрационными записями, пустая строка их отключает. loc задаёт
// часовой пояс, в котором считается «сегодня».
func NewCalendarService(repo EventRepository, categories CategoryLister, resolver *calendar.Resolver,
	demoPath string, loc *time.Location, log *slog.Logger) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{
		repo:       repo,
		categories: categories,
		resolver:   resolver,
		demoPath:   demoPath,
		location:   loc,
		log:        log,
		now:        time.Now,
	}
}

// List возвращает события по фильтрам.
func (s *CalendarService) List(ctx context.Context, f models.CalendarEventFilter) ([]models.CalendarEvent, error) {
	const op = "calendar.List"
	var err error
	if f.StartDate, err = normalizeOptional(f.StartDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if f.EndDate, err = normalizeOptional(f.EndDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	events, err := s.repo.ListCalendarEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// Get возвращает событие.
func (s *CalendarService) Get(ctx context.Context, id int) (*models.CalendarEvent, error) {
	const op = "calendar.Get"
	e, err := s.repo.GetCalendarEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// Create сохраняет событие от имени actor.
func (s *CalendarService) Create(ctx context.Context, actor models.Actor, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	const op = "calendar.Create"
	req, err := normalizeEvent(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e, err := s.repo.CreateCalendarEvent(ctx, req, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("calendar event created", slog.Int("id", e.ID), slog.Int("by", actor.UserID))
	return e, nil
}

// Update меняет событие. Разрешено администратору и создателю.
func (s *CalendarService) Update(ctx context.Context, actor models.Actor, id int, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	const op = "calendar.Update"
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := normalizeEvent(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e, err := s.repo.UpdateCalendarEvent(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// Delete удаляет событие. Разрешено администратору и создателю.
func (s *CalendarService) Delete(ctx context.Context, actor models.Actor, id int) error {
	const op = "calendar.Delete"
	if err := s.authorize(ctx, actor, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteCalendarEvent(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("calendar event deleted", slog.Int("id", id), slog.Int("by", actor.UserID))
	return nil
}

// Categories возвращает активные категории для формы события.
func (s *CalendarService) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "calendar.Categories"
	list, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Day возвращает окна даты, отсортированные по времени начала.
func (s *CalendarService) Day(ctx context.Context, date string) (*Day, error) {
	const op = "calendar.Day"
	day, err := calendar.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	timings, events, demos, err := s.sources(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	windows := s.resolver.Resolve(day, timings, events, demos)
	calendar.SortByStartTime(windows)
	return &Day{Date: day.String(), Weekday: day.Weekday().String(), Windows: windows}, nil
}

// Agenda возвращает окна каждой даты from..to. limit > 0 оставляет не более
// limit окон на дату, остаток считается в More.
func (s *CalendarService) Agenda(ctx context.Context, from, to string, limit int) ([]calendar.DayResult, error) {
	const op = "calendar.Agenda"
	start, err := calendar.ParseDay(from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end, err := calendar.ParseDay(to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%s: %w: start date after end date", op, models.ErrInvalidInput)
	}
	if start.AddDays(MaxAgendaDays - 1).Before(end) {
		return nil, fmt.Errorf("%s: %w", op, ErrRangeTooLong)
	}

	timings, events, demos, err := s.sources(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	days := s.resolver.ResolveRange(start, end, timings, events, demos)
	if limit > 0 {
		for i := range days {
			days[i].Windows, days[i].More = calendar.Truncate(days[i].Windows, limit)
		}
	}
	return days, nil
}

func (s *CalendarService) sources(ctx context.Context, from, to calendar.Date) ([]models.GoodTiming, []models.CalendarEvent, []calendar.DemoEntry, error) {
	timings, err := s.repo.ListGoodTimingsOverlapping(ctx, from.String(), to.String())
	if err != nil {
		return nil, nil, nil, err
	}
	events, err := s.repo.ListCalendarEventsOverlapping(ctx, from.String(), to.String())
	if err != nil {
		return nil, nil, nil, err
	}
	demos, err := calendar.LoadDemoEntries(s.demoPath, s.Today())
	if err != nil {
		s.log.Warn("failed to load demo entries", sl.Err(err))
		demos = nil
	}
	return timings, events, demos, nil
}

// Today возвращает текущую дату в часовом поясе сервиса.
func (s *CalendarService) Today() calendar.Date {
	return calendar.NewDate(s.now().In(s.location))
}

func (s *CalendarService) authorize(ctx context.Context, actor models.Actor, id int) error {
	e, err := s.repo.GetCalendarEvent(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(e.CreatedBy) {
		return models.ErrForbidden
	}
	return nil
}

func normalizeEvent(req models.CalendarEventRequest) (models.CalendarEventRequest, error) {
	start, err := calendar.ParseDay(req.StartDate)
	if err != nil {
		return req, err
	}
	end, err := calendar.ParseDay(req.EndDate)
	if err != nil {
		return req, err
	}
	req.StartDate = start.String()
	req.EndDate = end.String()
	return req, nil
}

func normalizeOptional(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	d, err := calendar.ParseDay(v)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}
