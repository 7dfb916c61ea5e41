// Package repository реализует хранилище DVS поверх PostgreSQL: пользователи,
// категории, благоприятные интервалы со слотами, световой день, события
// календаря и подписчики рассылки.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/dvs/internal/config"
	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier — общее подмножество *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage инкапсулирует пул соединений с PostgreSQL.
type Storage struct {
	DB      *sql.DB
	log     *slog.Logger
	retries int
	delay   time.Duration
}

// New открывает пул соединений и проверяет доступность базы.
func New(ctx context.Context, cfg config.Storage, log *slog.Logger) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	s := &Storage{DB: db, log: log, retries: cfg.RetryAttempts, delay: cfg.RetryDelay}
	if err = s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Ping проверяет доступность базы данных.
func (s *Storage) Ping(ctx context.Context) error {
	return s.retry(ctx, "storage.Ping", func() error {
		var one int
		return s.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// WithTx выполняет fn в отдельной транзакции. Ошибка или паника в fn
// откатывают транзакцию, иначе она фиксируется.
func (s *Storage) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	const op = "storage.WithTx"
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("failed to rollback transaction", sl.Err(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// exec выполняет команду с повтором при обрыве соединения.
func (s *Storage) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.retry(ctx, "storage.exec", func() error {
		var err error
		res, err = s.DB.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// query выполняет выборку с повтором при обрыве соединения.
func (s *Storage) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.retry(ctx, "storage.query", func() error {
		var err error
		rows, err = s.DB.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// queryRow выполняет выборку одной строки и сканирует её в dest.
func (s *Storage) queryRow(ctx context.Context, dest []any, query string, args ...any) error {
	return s.retry(ctx, "storage.queryRow", func() error {
		return s.DB.QueryRowContext(ctx, query, args...).Scan(dest...)
	})
}

func (s *Storage) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || attempt >= s.retries || !isConnectionError(err) {
			return err
		}
		if s.log != nil {
			s.log.Warn("database connection error, retrying",
				sl.Op(op),
				slog.Int("attempt", attempt+1),
				sl.Err(err))
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(s.delay):
		}
	}
}

// isConnectionError сообщает, что ошибка вызвана обрывом или недоступностью соединения.
func isConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	return pgconn.SafeToRetry(err)
}

// mapError переводит ошибки драйвера в доменные.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", models.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

// nullIfEmpty превращает пустую строку в NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// rowsAffected возвращает ErrNotFound, если команда не затронула ни одной строки.
func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
