package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/dvs/internal/config"
	"github.com/magabrotheeeer/dvs/internal/migrations"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	storage, err := New(ctx, config.Storage{
		ConnectionString: dsn,
		MaxOpenConns:     5,
		MaxIdleConns:     1,
		RetryAttempts:    2,
		RetryDelay:       500 * time.Millisecond,
	}, log)
	require.NoError(t, err, "failed to create storage")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}

// TestDataFactory создаёт тестовые данные напрямую через хранилище.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт пользователя и возвращает его id.
func (f *TestDataFactory) CreateUser(t *testing.T, email, role string) int {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         role,
		Name:         "Test User",
	})
	require.NoError(t, err)
	return u.ID
}

// CategoryID возвращает id засеянной категории по имени.
func (f *TestDataFactory) CategoryID(t *testing.T, name string) int {
	t.Helper()
	var id int
	err := f.storage.DB.QueryRow(`SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateGoodTiming создаёт интервал и возвращает его id.
func (f *TestDataFactory) CreateGoodTiming(t *testing.T, day, start, end string, createdBy int) int {
	t.Helper()
	gt, err := f.storage.CreateGoodTiming(context.Background(),
		models.GoodTimingRequest{Day: day, StartDate: start, EndDate: end}, createdBy)
	require.NoError(t, err)
	return gt.ID
}

// CreateDaylight сохраняет запись светового дня за дату.
func (f *TestDataFactory) CreateDaylight(t *testing.T, date string) {
	t.Helper()
	_, err := f.storage.UpsertDaylight(context.Background(), date,
		models.DaylightRequest{SunriseTime: "06:00:00", SunsetTime: "18:30:00"}, nil)
	require.NoError(t, err)
}

// TestVerification проверяет состояние базы после операций.
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создаёт объект проверок.
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// CountRows возвращает количество строк в таблице.
func (v *TestVerification) CountRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count)
	require.NoError(t, err)
	return count
}
