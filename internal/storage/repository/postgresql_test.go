package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/dvs/internal/models"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad conn", err: driver.ErrBadConn, want: true},
		{name: "обёрнутый bad conn", err: fmt.Errorf("query: %w", driver.ErrBadConn), want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "connection refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: true},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "db"}, want: true},
		{name: "ошибка postgres", err: &pgconn.PgError{Code: pgUniqueViolation}, want: false},
		{name: "нет строк", err: sql.ErrNoRows, want: false},
		{name: "отмена контекста", err: context.Canceled, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), models.ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key"}), models.ErrConflict)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: pgForeignKeyViolation})))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.False(t, isForeignKeyViolation(errors.New("x")))
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{name: "успех с первой попытки", errs: []error{nil}, wantCalls: 1},
		{name: "успех после обрыва", errs: []error{driver.ErrBadConn, nil}, wantCalls: 2},
		{name: "попытки исчерпаны", errs: []error{driver.ErrBadConn, driver.ErrBadConn, driver.ErrBadConn}, wantCalls: 3, wantErr: true},
		{name: "ошибка не повторяется", errs: []error{sql.ErrNoRows}, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Storage{retries: 2, delay: time.Millisecond}
			calls := 0
			err := s.retry(context.Background(), "test", func() error {
				err := tt.errs[calls]
				calls++
				return err
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	s := &Storage{retries: 5, delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := s.retry(ctx, "test", func() error {
		calls++
		return driver.ErrBadConn
	})
	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.Equal(t, 1, calls)
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullString(sql.NullString{}))
	assert.Equal(t, "x", *nullString(sql.NullString{String: "x", Valid: true}))
	assert.Nil(t, nullInt(sql.NullInt64{}))
	assert.Equal(t, 7, *nullInt(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Nil(t, nullFloat(sql.NullFloat64{}))
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "a", nullIfEmpty("a"))
}
