package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/dvs/internal/models"
)

const categoryColumns = `id, name, color_token, is_active, created_at`

func scanCategory(scan func(dest ...any) error) (*models.Category, error) {
	var c models.Category
	if err := scan(&c.ID, &c.Name, &c.ColorToken, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories возвращает категории. activeOnly оставляет только активные,
// отсортированные по имени; иначе активные идут первыми.
func (s *Storage) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	const op = "storage.ListCategories"
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE is_active = true ORDER BY name`
	if !activeOnly {
		query = `SELECT ` + categoryColumns + ` FROM categories ORDER BY is_active DESC, name`
	}

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCategory возвращает категорию по идентификатору.
func (s *Storage) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	const op = "storage.GetCategory"
	var c *models.Category
	err := s.retry(ctx, op, func() error {
		var err error
		c, err = scanCategory(s.DB.QueryRowContext(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return c, nil
}

// CreateCategory создаёт активную категорию. Занятое имя даёт ErrConflict.
func (s *Storage) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	const op = "storage.CreateCategory"
	var c *models.Category
	err := s.retry(ctx, op, func() error {
		var err error
		c, err = scanCategory(s.DB.QueryRowContext(ctx,
			`INSERT INTO categories (name, color_token) VALUES ($1, $2) RETURNING `+categoryColumns,
			req.Name, req.ColorToken).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return c, nil
}

// UpdateCategory частично обновляет категорию.
func (s *Storage) UpdateCategory(ctx context.Context, id int, req models.UpdateCategoryRequest) (*models.Category, error) {
	const op = "storage.UpdateCategory"
	query := `UPDATE categories
			  SET name = COALESCE($1, name),
			      color_token = COALESCE($2, color_token),
			      is_active = COALESCE($3, is_active)
			  WHERE id = $4
			  RETURNING ` + categoryColumns
	var c *models.Category
	err := s.retry(ctx, op, func() error {
		var err error
		c, err = scanCategory(s.DB.QueryRowContext(ctx, query, req.Name, req.ColorToken, req.IsActive, id).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return c, nil
}

// DeleteCategory удаляет категорию. Категория, на которую ссылается хотя бы
// один временной слот, не удаляется: возвращается ErrCategoryInUse.
func (s *Storage) DeleteCategory(ctx context.Context, id int) error {
	const op = "storage.DeleteCategory"
	var inUse bool
	if err := s.queryRow(ctx, []any{&inUse},
		`SELECT EXISTS (SELECT 1 FROM time_slot_child WHERE category_id = $1)`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if inUse {
		return fmt.Errorf("%s: %w", op, models.ErrCategoryInUse)
	}

	res, err := s.exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrCategoryInUse)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsCategoryActive сообщает, существует ли активная категория с id.
func (s *Storage) IsCategoryActive(ctx context.Context, id int) (bool, error) {
	const op = "storage.IsCategoryActive"
	var active bool
	if err := s.queryRow(ctx, []any{&active},
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND is_active = true)`, id); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return active, nil
}
