package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/dvs/internal/models"
)

const goodTimingSelect = `
	SELECT gt.id, gt.day, gt.start_date::text, gt.end_date::text,
	       gt.created_by, u.name, gt.created_at, gt.updated_at,
	       COALESCE(
	           json_agg(
	               json_build_object(
	                   'id', tsc.id,
	                   'time_slot_id', tsc.time_slot_id,
	                   'start_time', tsc.start_time::text,
	                   'end_time', tsc.end_time::text,
	                   'category_id', tsc.category_id,
	                   'category_name', c.name,
	                   'category_color', c.color_token,
	                   'description', tsc.description,
	                   'created_at', tsc.created_at
	               ) ORDER BY tsc.start_time, tsc.id
	           ) FILTER (WHERE tsc.id IS NOT NULL),
	           '[]'
	       ) AS time_slots
	FROM good_timings gt
	LEFT JOIN time_slot_child tsc ON gt.id = tsc.time_slot_id
	LEFT JOIN categories c ON tsc.category_id = c.id
	LEFT JOIN users u ON gt.created_by = u.id`

const goodTimingGroup = ` GROUP BY gt.id, u.name`

const timeSlotSelect = `
	SELECT tsc.id, tsc.time_slot_id, tsc.start_time::text, tsc.end_time::text,
	       tsc.category_id, c.name, c.color_token, tsc.description, tsc.created_at
	FROM time_slot_child tsc
	JOIN categories c ON tsc.category_id = c.id`

func scanGoodTiming(scan func(dest ...any) error) (*models.GoodTiming, error) {
	var gt models.GoodTiming
	var createdBy sql.NullInt64
	var createdByName sql.NullString
	var slots []byte
	if err := scan(&gt.ID, &gt.Day, &gt.StartDate, &gt.EndDate,
		&createdBy, &createdByName, &gt.CreatedAt, &gt.UpdatedAt, &slots); err != nil {
		return nil, err
	}
	gt.CreatedBy = nullInt(createdBy)
	gt.CreatedByName = nullString(createdByName)
	gt.TimeSlots = make([]models.TimeSlot, 0)
	if err := json.Unmarshal(slots, &gt.TimeSlots); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}
	return &gt, nil
}

func scanTimeSlot(scan func(dest ...any) error) (*models.TimeSlot, error) {
	var ts models.TimeSlot
	var description sql.NullString
	if err := scan(&ts.ID, &ts.GoodTimingID, &ts.StartTime, &ts.EndTime,
		&ts.CategoryID, &ts.CategoryName, &ts.CategoryColor, &description, &ts.CreatedAt); err != nil {
		return nil, err
	}
	ts.Description = nullString(description)
	return &ts, nil
}

func (s *Storage) listGoodTimings(ctx context.Context, op, where string, args []any) ([]models.GoodTiming, error) {
	rows, err := s.query(ctx, goodTimingSelect+where+goodTimingGroup+` ORDER BY gt.start_date, gt.day, gt.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.GoodTiming, 0)
	for rows.Next() {
		gt, err := scanGoodTiming(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *gt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListGoodTimings возвращает интервалы со слотами. Фильтры: start_date не
// раньше заданной, end_date не позже заданной, день недели без учёта регистра.
func (s *Storage) ListGoodTimings(ctx context.Context, f models.GoodTimingFilter) ([]models.GoodTiming, error) {
	const op = "storage.ListGoodTimings"
	var conds []string
	var args []any
	if f.StartDate != "" {
		args = append(args, f.StartDate)
		conds = append(conds, fmt.Sprintf("gt.start_date >= $%d", len(args)))
	}
	if f.EndDate != "" {
		args = append(args, f.EndDate)
		conds = append(conds, fmt.Sprintf("gt.end_date <= $%d", len(args)))
	}
	if f.Day != "" {
		args = append(args, f.Day)
		conds = append(conds, fmt.Sprintf("LOWER(gt.day) = LOWER($%d)", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return s.listGoodTimings(ctx, op, where, args)
}

// ListGoodTimingsOverlapping возвращает интервалы, пересекающие [from, to].
func (s *Storage) ListGoodTimingsOverlapping(ctx context.Context, from, to string) ([]models.GoodTiming, error) {
	const op = "storage.ListGoodTimingsOverlapping"
	return s.listGoodTimings(ctx, op, ` WHERE gt.start_date <= $2 AND gt.end_date >= $1`, []any{from, to})
}

// GetGoodTiming возвращает интервал со слотами.
func (s *Storage) GetGoodTiming(ctx context.Context, id int) (*models.GoodTiming, error) {
	const op = "storage.GetGoodTiming"
	var gt *models.GoodTiming
	err := s.retry(ctx, op, func() error {
		var err error
		gt, err = scanGoodTiming(s.DB.QueryRowContext(ctx,
			goodTimingSelect+` WHERE gt.id = $1`+goodTimingGroup, id).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return gt, nil
}

// CreateGoodTiming создаёт интервал без слотов.
func (s *Storage) CreateGoodTiming(ctx context.Context, req models.GoodTimingRequest, createdBy int) (*models.GoodTiming, error) {
	const op = "storage.CreateGoodTiming"
	var id int
	if err := s.queryRow(ctx, []any{&id},
		`INSERT INTO good_timings (day, start_date, end_date, created_by)
		 VALUES ($1, $2::date, $3::date, $4)
		 RETURNING id`,
		req.Day, req.StartDate, req.EndDate, createdBy); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return s.GetGoodTiming(ctx, id)
}

// UpdateGoodTiming заменяет день и диапазон дат интервала.
func (s *Storage) UpdateGoodTiming(ctx context.Context, id int, req models.GoodTimingRequest) (*models.GoodTiming, error) {
	const op = "storage.UpdateGoodTiming"
	res, err := s.exec(ctx,
		`UPDATE good_timings
		 SET day = $1, start_date = $2::date, end_date = $3::date, updated_at = NOW()
		 WHERE id = $4`,
		req.Day, req.StartDate, req.EndDate, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetGoodTiming(ctx, id)
}

// DeleteGoodTiming удаляет интервал вместе со слотами.
func (s *Storage) DeleteGoodTiming(ctx context.Context, id int) error {
	const op = "storage.DeleteGoodTiming"
	res, err := s.exec(ctx, `DELETE FROM good_timings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func requireActiveCategory(ctx context.Context, q querier, categoryID int) error {
	var active bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND is_active = true)`,
		categoryID).Scan(&active); err != nil {
		return err
	}
	if !active {
		return models.ErrInvalidCategory
	}
	return nil
}

func getTimeSlot(ctx context.Context, q querier, id int) (*models.TimeSlot, error) {
	ts, err := scanTimeSlot(q.QueryRowContext(ctx, timeSlotSelect+` WHERE tsc.id = $1`, id).Scan)
	if err != nil {
		return nil, mapError(err)
	}
	return ts, nil
}

// CreateTimeSlot добавляет слот к интервалу goodTimingID. Возвращает
// ErrNotFound, если интервала нет, и ErrInvalidCategory, если категория
// не существует или выключена.
func (s *Storage) CreateTimeSlot(ctx context.Context, goodTimingID int, req models.TimeSlotRequest) (*models.TimeSlot, error) {
	const op = "storage.CreateTimeSlot"
	var created *models.TimeSlot
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM good_timings WHERE id = $1)`, goodTimingID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return models.ErrNotFound
		}
		if err := requireActiveCategory(ctx, tx, req.CategoryID); err != nil {
			return err
		}

		var id int
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO time_slot_child (time_slot_id, start_time, end_time, category_id, description)
			 VALUES ($1, $2::time, $3::time, $4, $5)
			 RETURNING id`,
			goodTimingID, req.StartTime, req.EndTime, req.CategoryID, req.Description).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE good_timings SET updated_at = NOW() WHERE id = $1`, goodTimingID); err != nil {
			return err
		}

		var err error
		created, err = getTimeSlot(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// UpdateTimeSlot частично обновляет слот. goodTimingID > 0 дополнительно
// требует, чтобы слот принадлежал этому интервалу.
func (s *Storage) UpdateTimeSlot(ctx context.Context, goodTimingID, slotID int, req models.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	const op = "storage.UpdateTimeSlot"
	var updated *models.TimeSlot
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := getTimeSlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if goodTimingID > 0 && current.GoodTimingID != goodTimingID {
			return models.ErrNotFound
		}
		if req.CategoryID != nil {
			if err := requireActiveCategory(ctx, tx, *req.CategoryID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE time_slot_child
			 SET start_time = COALESCE($1::time, start_time),
			     end_time = COALESCE($2::time, end_time),
			     category_id = COALESCE($3, category_id),
			     description = COALESCE($4, description)
			 WHERE id = $5`,
			req.StartTime, req.EndTime, req.CategoryID, req.Description, slotID); err != nil {
			return err
		}

		updated, err = getTimeSlot(ctx, tx, slotID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return updated, nil
}

// GetTimeSlot возвращает слот по идентификатору.
func (s *Storage) GetTimeSlot(ctx context.Context, id int) (*models.TimeSlot, error) {
	const op = "storage.GetTimeSlot"
	var ts *models.TimeSlot
	err := s.retry(ctx, op, func() error {
		var err error
		ts, err = getTimeSlot(ctx, s.DB, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ts, nil
}

// DeleteTimeSlot удаляет слот. goodTimingID > 0 ограничивает удаление этим интервалом.
func (s *Storage) DeleteTimeSlot(ctx context.Context, goodTimingID, slotID int) error {
	const op = "storage.DeleteTimeSlot"
	query := `DELETE FROM time_slot_child WHERE id = $1`
	args := []any{slotID}
	if goodTimingID > 0 {
		query += ` AND time_slot_id = $2`
		args = append(args, goodTimingID)
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
