// Package services содержит бизнес-логику записей светового дня с ротацией
// по количеству хранимых дат.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// DefaultListSize — число последних записей, возвращаемых без диапазона.
const DefaultListSize = 7

// DaylightRepository определяет методы хранилища светового дня.
type DaylightRepository interface {
	ListLatestDaylight(ctx context.Context, limit int) ([]models.Daylight, error)
	ListDaylightRange(ctx context.Context, from, to string) ([]models.Daylight, error)
	GetDaylight(ctx context.Context, date string) (*models.Daylight, error)
	UpsertDaylight(ctx context.Context, date string, req models.DaylightRequest, updatedBy *int) (*models.Daylight, error)
	UpsertDaylightBulk(ctx context.Context, items []models.BulkDaylightItem, updatedBy *int) (int, error)
	DeleteDaylight(ctx context.Context, date string) error
	DeleteAllDaylight(ctx context.Context) (int64, error)
	TrimDaylight(ctx context.Context, keep int) (int64, error)
}

// DaylightService реализует операции над записями светового дня.
type DaylightService struct {
	repo      DaylightRepository
	retention int
	log       *slog.Logger
}

// NewDaylightService создает новый экземпляр DaylightService. retention —
// сколько самых новых дат хранить после каждой записи.
func NewDaylightService(repo DaylightRepository, retention int, log *slog.Logger) *DaylightService {
	return &DaylightService{repo: repo, retention: retention, log: log}
}

// List возвращает записи диапазона по возрастанию, если заданы обе границы,
// иначе последние DefaultListSize записей, новые первыми.
func (s *DaylightService) List(ctx context.Context, r models.DateRange) ([]models.Daylight, error) {
	const op = "daylight.List"
	if !r.Complete() {
		list, err := s.repo.ListLatestDaylight(ctx, DefaultListSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return list, nil
	}
	list, err := s.repo.ListDaylightRange(ctx, r.StartDate, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListRange возвращает записи диапазона по возрастанию.
func (s *DaylightService) ListRange(ctx context.Context, from, to string) ([]models.Daylight, error) {
	const op = "daylight.ListRange"
	list, err := s.repo.ListDaylightRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get возвращает запись за дату.
func (s *DaylightService) Get(ctx context.Context, date string) (*models.Daylight, error) {
	const op = "daylight.Get"
	day, err := calendar.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d, err := s.repo.GetDaylight(ctx, day.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// Upsert создаёт или заменяет запись за дату и применяет ротацию.
func (s *DaylightService) Upsert(ctx context.Context, actor models.Actor, date string, req models.DaylightRequest) (*models.Daylight, error) {
	const op = "daylight.Upsert"
	day, err := calendar.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d, err := s.repo.UpsertDaylight(ctx, day.String(), req, updatedBy(actor))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.Trim(ctx)
	return d, nil
}

// UpsertBulk сохраняет все записи атомарно и применяет ротацию.
func (s *DaylightService) UpsertBulk(ctx context.Context, actor models.Actor, items []models.BulkDaylightItem) (int, error) {
	const op = "daylight.UpsertBulk"
	for i := range items {
		day, err := calendar.ParseDay(items[i].Date)
		if err != nil {
			return 0, fmt.Errorf("%s: item %d: %w", op, i, err)
		}
		items[i].Date = day.String()
	}
	n, err := s.repo.UpsertDaylightBulk(ctx, items, updatedBy(actor))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.Trim(ctx)
	s.log.Info("daylight bulk update", slog.Int("count", n))
	return n, nil
}

// Delete удаляет запись за дату.
func (s *DaylightService) Delete(ctx context.Context, date string) error {
	const op = "daylight.Delete"
	day, err := calendar.ParseDay(date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteDaylight(ctx, day.String()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteAll очищает все записи.
func (s *DaylightService) DeleteAll(ctx context.Context) (int64, error) {
	const op = "daylight.DeleteAll"
	n, err := s.repo.DeleteAllDaylight(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("daylight cleared", slog.Int64("deleted", n))
	return n, nil
}

// Trim оставляет retention самых новых дат. Ошибка только логируется:
// запись уже сохранена.
func (s *DaylightService) Trim(ctx context.Context) {
	if s.retention <= 0 {
		return
	}
	n, err := s.repo.TrimDaylight(ctx, s.retention)
	if err != nil {
		s.log.Warn("failed to trim daylight records", sl.Err(err))
		return
	}
	if n > 0 {
		s.log.Debug("daylight records trimmed", slog.Int64("deleted", n))
	}
}

func updatedBy(actor models.Actor) *int {
	if actor.UserID <= 0 {
		return nil
	}
	id := actor.UserID
	return &id
}
