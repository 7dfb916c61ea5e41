// Package services содержит бизнес-логику категорий с кешированием
// списка активных категорий.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// ActiveCacheKey — ключ кеша со списком активных категорий.
const ActiveCacheKey = "categories:active"

// CategoryRepository определяет методы хранилища категорий.
type CategoryRepository interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, req models.UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// CategoryService реализует операции над категориями.
type CategoryService struct {
	repo  CategoryRepository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCategoryService создает новый экземпляр CategoryService.
func NewCategoryService(repo CategoryRepository, cache Cache, ttl time.Duration, log *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, cache: cache, ttl: ttl, log: log}
}

// ListActive возвращает активные категории, сначала из кеша.
// Ошибки кеша не мешают ответу из базы.
func (s *CategoryService) ListActive(ctx context.Context) ([]models.Category, error) {
	const op = "categories.ListActive"
	var cached []models.Category
	found, err := s.cache.Get(ctx, ActiveCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read categories from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	list, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, ActiveCacheKey, list, s.ttl); err != nil {
		s.log.Warn("failed to cache categories", slog.String("key", ActiveCacheKey), sl.Err(err))
	}
	return list, nil
}

// ListAll возвращает все категории, включая неактивные.
func (s *CategoryService) ListAll(ctx context.Context) ([]models.Category, error) {
	const op = "categories.ListAll"
	list, err := s.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get возвращает категорию по id.
func (s *CategoryService) Get(ctx context.Context, id int) (*models.Category, error) {
	const op = "categories.Get"
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Create создаёт категорию. Занятое имя даёт models.ErrCategoryExists.
func (s *CategoryService) Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	const op = "categories.Create"
	c, err := s.repo.CreateCategory(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, nameConflict(err))
	}
	s.invalidate(ctx)
	s.log.Info("category created", slog.Int("id", c.ID), slog.String("name", c.Name))
	return c, nil
}

// Update частично обновляет категорию.
func (s *CategoryService) Update(ctx context.Context, id int, req models.UpdateCategoryRequest) (*models.Category, error) {
	const op = "categories.Update"
	if req.Name == nil && req.ColorToken == nil && req.IsActive == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoUpdates)
	}
	c, err := s.repo.UpdateCategory(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, nameConflict(err))
	}
	s.invalidate(ctx)
	return c, nil
}

// Delete удаляет категорию, если на неё не ссылается ни один слот.
func (s *CategoryService) Delete(ctx context.Context, id int) error {
	const op = "categories.Delete"
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	s.log.Info("category deleted", slog.Int("id", id))
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ActiveCacheKey); err != nil {
		s.log.Warn("failed to invalidate categories cache", sl.Err(err))
	}
}

func nameConflict(err error) error {
	if errors.Is(err, models.ErrConflict) {
		return models.ErrCategoryExists
	}
	return err
}
