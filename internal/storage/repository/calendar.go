package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/dvs/internal/models"
)

const defaultEventColor = "blue"

const calendarEventSelect = `
	SELECT ce.id, ce.title, ce.description, ce.start_date::text, ce.end_date::text,
	       ce.start_time::text, ce.end_time::text, ce.category_id, c.name, c.color_token,
	       ce.is_all_day, ce.color, ce.created_by, u.name, ce.created_at, ce.updated_at
	FROM calendar_events ce
	LEFT JOIN categories c ON ce.category_id = c.id
	LEFT JOIN users u ON ce.created_by = u.id`

func scanCalendarEvent(scan func(dest ...any) error) (*models.CalendarEvent, error) {
	var e models.CalendarEvent
	var description, startTime, endTime, categoryName, categoryColor, createdByName sql.NullString
	var categoryID sql.NullInt64
	if err := scan(&e.ID, &e.Title, &description, &e.StartDate, &e.EndDate,
		&startTime, &endTime, &categoryID, &categoryName, &categoryColor,
		&e.IsAllDay, &e.Color, &e.CreatedBy, &createdByName, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Description = nullString(description)
	e.StartTime = nullString(startTime)
	e.EndTime = nullString(endTime)
	e.CategoryID = nullInt(categoryID)
	e.CategoryName = nullString(categoryName)
	e.CategoryColor = nullString(categoryColor)
	e.CreatedByName = nullString(createdByName)
	return &e, nil
}

func (s *Storage) listCalendarEvents(ctx context.Context, op, where string, args []any) ([]models.CalendarEvent, error) {
	rows, err := s.query(ctx, calendarEventSelect+where+` ORDER BY ce.start_date, ce.start_time NULLS FIRST, ce.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.CalendarEvent, 0)
	for rows.Next() {
		e, err := scanCalendarEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListCalendarEvents возвращает события. Фильтры: start_date не раньше
// заданной, end_date не позже заданной, категория.
func (s *Storage) ListCalendarEvents(ctx context.Context, f models.CalendarEventFilter) ([]models.CalendarEvent, error) {
	const op = "storage.ListCalendarEvents"
	var conds []string
	var args []any
	if f.StartDate != "" {
		args = append(args, f.StartDate)
		conds = append(conds, fmt.Sprintf("ce.start_date >= $%d::date", len(args)))
	}
	if f.EndDate != "" {
		args = append(args, f.EndDate)
		conds = append(conds, fmt.Sprintf("ce.end_date <= $%d::date", len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("ce.category_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return s.listCalendarEvents(ctx, op, where, args)
}

// ListCalendarEventsOverlapping возвращает события, пересекающие [from, to].
func (s *Storage) ListCalendarEventsOverlapping(ctx context.Context, from, to string) ([]models.CalendarEvent, error) {
	const op = "storage.ListCalendarEventsOverlapping"
	return s.listCalendarEvents(ctx, op,
		` WHERE ce.start_date <= $2::date AND ce.end_date >= $1::date`, []any{from, to})
}

// GetCalendarEvent возвращает событие по идентификатору.
func (s *Storage) GetCalendarEvent(ctx context.Context, id int) (*models.CalendarEvent, error) {
	const op = "storage.GetCalendarEvent"
	var e *models.CalendarEvent
	err := s.retry(ctx, op, func() error {
		var err error
		e, err = scanCalendarEvent(s.DB.QueryRowContext(ctx, calendarEventSelect+` WHERE ce.id = $1`, id).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return e, nil
}

// CreateCalendarEvent сохраняет событие. Цвет по умолчанию blue,
// is_all_day по умолчанию false.
func (s *Storage) CreateCalendarEvent(ctx context.Context, req models.CalendarEventRequest, createdBy int) (*models.CalendarEvent, error) {
	const op = "storage.CreateCalendarEvent"
	color := defaultEventColor
	if req.Color != nil {
		color = *req.Color
	}
	isAllDay := req.IsAllDay != nil && *req.IsAllDay

	var id int
	if err := s.queryRow(ctx, []any{&id},
		`INSERT INTO calendar_events
		     (title, description, start_date, end_date, start_time, end_time, category_id, is_all_day, color, created_by)
		 VALUES ($1, $2, $3::date, $4::date, $5::time, $6::time, $7, $8, $9, $10)
		 RETURNING id`,
		req.Title, req.Description, req.StartDate, req.EndDate, req.StartTime, req.EndTime,
		req.CategoryID, isAllDay, color, createdBy); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCategory)
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return s.GetCalendarEvent(ctx, id)
}

// UpdateCalendarEvent заменяет поля события. Необязательные поля,
// не переданные в запросе, сохраняют прежние значения.
func (s *Storage) UpdateCalendarEvent(ctx context.Context, id int, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	const op = "storage.UpdateCalendarEvent"
	res, err := s.exec(ctx,
		`UPDATE calendar_events
		 SET title = $1,
		     description = COALESCE($2, description),
		     start_date = $3::date,
		     end_date = $4::date,
		     start_time = COALESCE($5::time, start_time),
		     end_time = COALESCE($6::time, end_time),
		     category_id = COALESCE($7, category_id),
		     is_all_day = COALESCE($8, is_all_day),
		     color = COALESCE($9, color),
		     updated_at = NOW()
		 WHERE id = $10`,
		req.Title, req.Description, req.StartDate, req.EndDate, req.StartTime, req.EndTime,
		req.CategoryID, req.IsAllDay, req.Color, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCategory)
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = rowsAffected(res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetCalendarEvent(ctx, id)
}

// DeleteCalendarEvent удаляет событие.
func (s *Storage) DeleteCalendarEvent(ctx context.Context, id int) error {
	const op = "storage.DeleteCalendarEvent"
	res, err := s.exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
