package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/dvs/internal/models"
)

const defaultTimezone = "Asia/Kolkata"

const daylightSelect = `
	SELECT d.id, d.date::text, d.sunrise_time::text, d.sunset_time::text, d.timezone,
	       d.latitude::float8, d.longitude::float8, d.notes, d.updated_by, u.name, d.updated_at
	FROM daylight d
	LEFT JOIN users u ON d.updated_by = u.id`

func scanDaylight(scan func(dest ...any) error) (*models.Daylight, error) {
	var d models.Daylight
	var lat, lng sql.NullFloat64
	var notes, updatedByName sql.NullString
	var updatedBy sql.NullInt64
	if err := scan(&d.ID, &d.Date, &d.SunriseTime, &d.SunsetTime, &d.Timezone,
		&lat, &lng, &notes, &updatedBy, &updatedByName, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Latitude = nullFloat(lat)
	d.Longitude = nullFloat(lng)
	d.Notes = nullString(notes)
	d.UpdatedBy = nullInt(updatedBy)
	d.UpdatedByName = nullString(updatedByName)
	return &d, nil
}

func (s *Storage) listDaylight(ctx context.Context, op, query string, args ...any) ([]models.Daylight, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Daylight, 0)
	for rows.Next() {
		d, err := scanDaylight(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListLatestDaylight возвращает limit последних записей, новые первыми.
func (s *Storage) ListLatestDaylight(ctx context.Context, limit int) ([]models.Daylight, error) {
	const op = "storage.ListLatestDaylight"
	return s.listDaylight(ctx, op, daylightSelect+` ORDER BY d.date DESC LIMIT $1`, limit)
}

// ListDaylightRange возвращает записи в диапазоне дат включительно по возрастанию.
func (s *Storage) ListDaylightRange(ctx context.Context, from, to string) ([]models.Daylight, error) {
	const op = "storage.ListDaylightRange"
	return s.listDaylight(ctx, op,
		daylightSelect+` WHERE d.date BETWEEN $1::date AND $2::date ORDER BY d.date ASC`, from, to)
}

// GetDaylight возвращает запись за дату.
func (s *Storage) GetDaylight(ctx context.Context, date string) (*models.Daylight, error) {
	const op = "storage.GetDaylight"
	d, err := getDaylight(ctx, s, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func getDaylight(ctx context.Context, s *Storage, date string) (*models.Daylight, error) {
	var d *models.Daylight
	err := s.retry(ctx, "storage.getDaylight", func() error {
		var err error
		d, err = scanDaylight(s.DB.QueryRowContext(ctx, daylightSelect+` WHERE d.date = $1::date`, date).Scan)
		return err
	})
	return d, mapError(err)
}

const daylightUpsert = `
	INSERT INTO daylight (date, sunrise_time, sunset_time, timezone, latitude, longitude, notes, updated_by, updated_at)
	VALUES ($1::date, $2::time, $3::time, COALESCE($4, $9), $5, $6, $7, $8, NOW())
	ON CONFLICT (date) DO UPDATE SET
	    sunrise_time = EXCLUDED.sunrise_time,
	    sunset_time = EXCLUDED.sunset_time,
	    timezone = EXCLUDED.timezone,
	    latitude = EXCLUDED.latitude,
	    longitude = EXCLUDED.longitude,
	    notes = EXCLUDED.notes,
	    updated_by = EXCLUDED.updated_by,
	    updated_at = NOW()`

func upsertDaylight(ctx context.Context, q querier, date string, req models.DaylightRequest, updatedBy *int) error {
	_, err := q.ExecContext(ctx, daylightUpsert,
		date, req.SunriseTime, req.SunsetTime, nullIfEmpty(req.Timezone),
		req.Latitude, req.Longitude, req.Notes, updatedBy, defaultTimezone)
	return err
}

// UpsertDaylight создаёт или заменяет запись за дату.
func (s *Storage) UpsertDaylight(ctx context.Context, date string, req models.DaylightRequest, updatedBy *int) (*models.Daylight, error) {
	const op = "storage.UpsertDaylight"
	err := s.retry(ctx, op, func() error {
		return upsertDaylight(ctx, s.DB, date, req, updatedBy)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return s.GetDaylight(ctx, date)
}

// UpsertDaylightBulk сохраняет все записи в одной транзакции: либо все, либо ни одной.
func (s *Storage) UpsertDaylightBulk(ctx context.Context, items []models.BulkDaylightItem, updatedBy *int) (int, error) {
	const op = "storage.UpsertDaylightBulk"
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			if err := upsertDaylight(ctx, tx, item.Date, item.DaylightRequest, updatedBy); err != nil {
				return fmt.Errorf("date %s: %w", item.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return len(items), nil
}

// DeleteDaylight удаляет запись за дату.
func (s *Storage) DeleteDaylight(ctx context.Context, date string) error {
	const op = "storage.DeleteDaylight"
	res, err := s.exec(ctx, `DELETE FROM daylight WHERE date = $1::date`, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteAllDaylight очищает таблицу и возвращает число удалённых строк.
func (s *Storage) DeleteAllDaylight(ctx context.Context) (int64, error) {
	const op = "storage.DeleteAllDaylight"
	res, err := s.exec(ctx, `DELETE FROM daylight`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// TrimDaylight оставляет keep самых новых по дате записей.
func (s *Storage) TrimDaylight(ctx context.Context, keep int) (int64, error) {
	const op = "storage.TrimDaylight"
	res, err := s.exec(ctx,
		`DELETE FROM daylight
		 WHERE id NOT IN (SELECT id FROM daylight ORDER BY date DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
