package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dvs/internal/cache"
	"github.com/magabrotheeeer/dvs/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockRepository) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockRepository) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockRepository) UpdateCategory(ctx context.Context, id int, req models.UpdateCategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockRepository) DeleteCategory(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCategoryService_ListActiveUsesCache(t *testing.T) {
	redisCache, mr := newRedisCache(t)
	repo := new(MockRepository)
	repo.On("ListCategories", mock.Anything, true).
		Return([]models.Category{{ID: 1, Name: "Business", ColorToken: "blue", IsActive: true}}, nil).Once()
	svc := NewCategoryService(repo, redisCache, time.Minute, discard())

	first, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	second, err := svc.ListActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(ActiveCacheKey))
	repo.AssertExpectations(t)
}

func TestCategoryService_WritesInvalidateCache(t *testing.T) {
	redisCache, mr := newRedisCache(t)
	repo := new(MockRepository)
	repo.On("ListCategories", mock.Anything, true).Return([]models.Category{{ID: 1}}, nil).Twice()
	repo.On("CreateCategory", mock.Anything, mock.Anything).Return(&models.Category{ID: 2, Name: "Finance"}, nil).Once()
	repo.On("DeleteCategory", mock.Anything, 2).Return(nil).Once()
	svc := NewCategoryService(repo, redisCache, time.Minute, discard())
	ctx := context.Background()

	_, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(ActiveCacheKey))

	_, err = svc.Create(ctx, models.CreateCategoryRequest{Name: "Finance", ColorToken: "amber"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(ActiveCacheKey))

	_, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 2))
	assert.False(t, mr.Exists(ActiveCacheKey))
	repo.AssertExpectations(t)
}

func TestCategoryService_CacheFailureFallsBackToRepository(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListCategories", mock.Anything, true).Return([]models.Category{{ID: 1}}, nil).Once()
	c := new(MockCache)
	c.On("Get", mock.Anything, ActiveCacheKey, mock.Anything).Return(false, errors.New("redis down")).Once()
	c.On("Set", mock.Anything, ActiveCacheKey, mock.Anything, time.Minute).Return(errors.New("redis down")).Once()
	svc := NewCategoryService(repo, c, time.Minute, discard())

	list, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	c.AssertExpectations(t)
}

func TestCategoryService_Errors(t *testing.T) {
	name := "Business"
	tests := []struct {
		name    string
		call    func(svc *CategoryService) error
		setup   func(r *MockRepository)
		wantErr error
	}{
		{
			name: "создание с занятым именем",
			setup: func(r *MockRepository) {
				r.On("CreateCategory", mock.Anything, mock.Anything).Return(nil, models.ErrConflict).Once()
			},
			call: func(svc *CategoryService) error {
				_, err := svc.Create(context.Background(), models.CreateCategoryRequest{Name: "Business", ColorToken: "blue"})
				return err
			},
			wantErr: models.ErrCategoryExists,
		},
		{
			name: "переименование в занятое имя",
			setup: func(r *MockRepository) {
				r.On("UpdateCategory", mock.Anything, 3, mock.Anything).Return(nil, models.ErrConflict).Once()
			},
			call: func(svc *CategoryService) error {
				_, err := svc.Update(context.Background(), 3, models.UpdateCategoryRequest{Name: &name})
				return err
			},
			wantErr: models.ErrCategoryExists,
		},
		{
			name:  "пустое обновление",
			setup: func(_ *MockRepository) {},
			call: func(svc *CategoryService) error {
				_, err := svc.Update(context.Background(), 3, models.UpdateCategoryRequest{})
				return err
			},
			wantErr: models.ErrNoUpdates,
		},
		{
			name: "удаление используемой категории",
			setup: func(r *MockRepository) {
				r.On("DeleteCategory", mock.Anything, 1).Return(models.ErrCategoryInUse).Once()
			},
			call:    func(svc *CategoryService) error { return svc.Delete(context.Background(), 1) },
			wantErr: models.ErrCategoryInUse,
		},
		{
			name: "удаление несуществующей",
			setup: func(r *MockRepository) {
				r.On("DeleteCategory", mock.Anything, 99).Return(models.ErrNotFound).Once()
			},
			call:    func(svc *CategoryService) error { return svc.Delete(context.Background(), 99) },
			wantErr: models.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)
			c := new(MockCache)
			c.On("Invalidate", mock.Anything, ActiveCacheKey).Return(nil).Maybe()
			svc := NewCategoryService(repo, c, time.Minute, discard())

			assert.ErrorIs(t, tt.call(svc), tt.wantErr)
			c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
			repo.AssertExpectations(t)
		})
	}
}
