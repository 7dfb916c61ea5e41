// Package services содержит бизнес-логику управления учётными записями.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/dvs/internal/models"
)

// UserRepository определяет методы хранилища пользователей.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	UpdateUser(ctx context.Context, id int, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

// UserService проверяет права и делегирует операции хранилищу.
type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, log *slog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// List возвращает всех пользователей. Только для администратора.
func (s *UserService) List(ctx context.Context, actor models.Actor) ([]models.User, error) {
	const op = "users.List"
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Get возвращает пользователя администратору или ему самому.
func (s *UserService) Get(ctx context.Context, actor models.Actor, id int) (*models.User, error) {
	const op = "users.Get"
	if !actor.CanModify(id) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Update обновляет профиль. Роль может менять только администратор.
func (s *UserService) Update(ctx context.Context, actor models.Actor, id int, req models.UpdateUserRequest) (*models.User, error) {
	const op = "users.Update"
	if !actor.CanModify(id) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if req.Role != nil && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: only administrators can change roles: %w", op, models.ErrForbidden)
	}
	if req.Empty() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoUpdates)
	}
	u, err := s.repo.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user updated", slog.Int("user_id", id), slog.Int("by", actor.UserID))
	return u, nil
}

// Delete удаляет пользователя. Только администратор и не самого себя.
func (s *UserService) Delete(ctx context.Context, actor models.Actor, id int) error {
	const op = "users.Delete"
	if !actor.IsAdmin() {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if actor.UserID == id {
		return fmt.Errorf("%s: %w", op, models.ErrSelfDelete)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.Int("user_id", id), slog.Int("by", actor.UserID))
	return nil
}
