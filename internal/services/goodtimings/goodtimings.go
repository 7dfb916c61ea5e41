// Package services содержит бизнес-логику благоприятных интервалов и их слотов.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// GoodTimingRepository определяет методы хранилища интервалов.
type GoodTimingRepository interface {
	ListGoodTimings(ctx context.Context, f models.GoodTimingFilter) ([]models.GoodTiming, error)
	GetGoodTiming(ctx context.Context, id int) (*models.GoodTiming, error)
	CreateGoodTiming(ctx context.Context, req models.GoodTimingRequest, createdBy int) (*models.GoodTiming, error)
	UpdateGoodTiming(ctx context.Context, id int, req models.GoodTimingRequest) (*models.GoodTiming, error)
	DeleteGoodTiming(ctx context.Context, id int) error
	CreateTimeSlot(ctx context.Context, goodTimingID int, req models.TimeSlotRequest) (*models.TimeSlot, error)
	UpdateTimeSlot(ctx context.Context, goodTimingID, slotID int, req models.UpdateTimeSlotRequest) (*models.TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, goodTimingID, slotID int) error
}

// GoodTimingService реализует операции над интервалами.
type GoodTimingService struct {
	repo GoodTimingRepository
	log  *slog.Logger
}

// NewGoodTimingService создает новый экземпляр GoodTimingService.
func NewGoodTimingService(repo GoodTimingRepository, log *slog.Logger) *GoodTimingService {
	return &GoodTimingService{repo: repo, log: log}
}

// List возвращает интервалы по фильтрам. Даты фильтра приводятся к YYYY-MM-DD.
func (s *GoodTimingService) List(ctx context.Context, f models.GoodTimingFilter) ([]models.GoodTiming, error) {
	const op = "goodtimings.List"
	var err error
	if f.StartDate, err = normalizeOptional(f.StartDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if f.EndDate, err = normalizeOptional(f.EndDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err := s.repo.ListGoodTimings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get возвращает интервал со слотами.
func (s *GoodTimingService) Get(ctx context.Context, id int) (*models.GoodTiming, error) {
	const op = "goodtimings.Get"
	gt, err := s.repo.GetGoodTiming(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return gt, nil
}

// Create создаёт интервал от имени actor.
func (s *GoodTimingService) Create(ctx context.Context, actor models.Actor, req models.GoodTimingRequest) (*models.GoodTiming, error) {
	const op = "goodtimings.Create"
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	gt, err := s.repo.CreateGoodTiming(ctx, req, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("good timing created", slog.Int("id", gt.ID), slog.String("day", gt.Day))
	return gt, nil
}

// Update заменяет день и диапазон дат интервала.
func (s *GoodTimingService) Update(ctx context.Context, id int, req models.GoodTimingRequest) (*models.GoodTiming, error) {
	const op = "goodtimings.Update"
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	gt, err := s.repo.UpdateGoodTiming(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return gt, nil
}

// Delete удаляет интервал вместе со слотами.
func (s *GoodTimingService) Delete(ctx context.Context, id int) error {
	const op = "goodtimings.Delete"
	if err := s.repo.DeleteGoodTiming(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("good timing deleted", slog.Int("id", id))
	return nil
}

// CreateSlot добавляет слот к интервалу.
func (s *GoodTimingService) CreateSlot(ctx context.Context, goodTimingID int, req models.TimeSlotRequest) (*models.TimeSlot, error) {
	const op = "goodtimings.CreateSlot"
	slot, err := s.repo.CreateTimeSlot(ctx, goodTimingID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slot, nil
}

// UpdateSlot частично обновляет слот. goodTimingID == 0 не проверяет родителя.
func (s *GoodTimingService) UpdateSlot(ctx context.Context, goodTimingID, slotID int, req models.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	const op = "goodtimings.UpdateSlot"
	if req.StartTime == nil && req.EndTime == nil && req.CategoryID == nil && req.Description == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoUpdates)
	}
	slot, err := s.repo.UpdateTimeSlot(ctx, goodTimingID, slotID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slot, nil
}

// DeleteSlot удаляет слот.
func (s *GoodTimingService) DeleteSlot(ctx context.Context, goodTimingID, slotID int) error {
	const op = "goodtimings.DeleteSlot"
	if err := s.repo.DeleteTimeSlot(ctx, goodTimingID, slotID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func normalizeRequest(req models.GoodTimingRequest) (models.GoodTimingRequest, error) {
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
