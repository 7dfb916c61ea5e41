package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/dvs/internal/models"
)

const userColumns = `id, email, password_hash, role, name, phone_number, created_at, updated_at`

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	if err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.PhoneNumber = nullString(phone)
	return &u, nil
}

// CreateUser сохраняет нового пользователя. Занятый email даёт ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	query := `INSERT INTO users (email, password_hash, role, name, phone_number)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + userColumns
	var created *models.User
	err := s.retry(ctx, op, func() error {
		var err error
		created, err = scanUser(s.DB.QueryRowContext(ctx, query,
			strings.ToLower(user.Email), user.PasswordHash, user.Role, user.Name, user.PhoneNumber).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

// GetUser возвращает пользователя по идентификатору.
func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUser"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Storage) getUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var u *models.User
	err := s.retry(ctx, op, func() error {
		var err error
		u, err = scanUser(s.DB.QueryRowContext(ctx, query, arg).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListUsers"
	rows, err := s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser частично обновляет пользователя. Nil-поля не меняются.
func (s *Storage) UpdateUser(ctx context.Context, id int, req models.UpdateUserRequest) (*models.User, error) {
	const op = "storage.UpdateUser"
	query := `UPDATE users
			  SET name = COALESCE($1, name),
			      phone_number = COALESCE($2, phone_number),
			      role = COALESCE($3, role),
			      updated_at = NOW()
			  WHERE id = $4
			  RETURNING ` + userColumns
	var u *models.User
	err := s.retry(ctx, op, func() error {
		var err error
		u, err = scanUser(s.DB.QueryRowContext(ctx, query, req.Name, req.PhoneNumber, req.Role, id).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// DeleteUser удаляет пользователя.
func (s *Storage) DeleteUser(ctx context.Context, id int) error {
	const op = "storage.DeleteUser"
	res, err := s.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
