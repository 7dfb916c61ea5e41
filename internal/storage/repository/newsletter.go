package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/dvs/internal/models"
)

const subscriberColumns = `id, email, subscribed_at, is_active, unsubscribed_at`

func scanSubscriber(scan func(dest ...any) error) (*models.Subscriber, error) {
	var sub models.Subscriber
	var unsubscribedAt sql.NullTime
	if err := scan(&sub.ID, &sub.Email, &sub.SubscribedAt, &sub.IsActive, &unsubscribedAt); err != nil {
		return nil, err
	}
	if unsubscribedAt.Valid {
		sub.UnsubscribedAt = &unsubscribedAt.Time
	}
	return &sub, nil
}

// Subscribe добавляет адрес в рассылку. Уже известный адрес даёт ErrConflict,
// в том числе если подписка была отменена.
func (s *Storage) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.Subscribe"
	var sub *models.Subscriber
	err := s.retry(ctx, op, func() error {
		var err error
		sub, err = scanSubscriber(s.DB.QueryRowContext(ctx,
			`INSERT INTO newsletter_subscribers (email) VALUES ($1) RETURNING `+subscriberColumns,
			strings.ToLower(email)).Scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// Unsubscribe помечает адрес неактивным. Строка не удаляется.
func (s *Storage) Unsubscribe(ctx context.Context, email string) error {
	const op = "storage.Unsubscribe"
	res, err := s.exec(ctx,
		`UPDATE newsletter_subscribers
		 SET is_active = false, unsubscribed_at = NOW()
		 WHERE email = $1`, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = rowsAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSubscribers возвращает подписчиков, новые первыми. activeOnly
// оставляет только активных.
func (s *Storage) ListSubscribers(ctx context.Context, activeOnly bool) ([]models.Subscriber, error) {
	const op = "storage.ListSubscribers"
	query := `SELECT ` + subscriberColumns + ` FROM newsletter_subscribers`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY subscribed_at DESC, id DESC`

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriber(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
