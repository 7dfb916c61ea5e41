// Package services содержит логику регистрации, входа и проверки токенов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/dvs/internal/config"
	"github.com/magabrotheeeer/dvs/internal/lib/jwt"
	"github.com/magabrotheeeer/dvs/internal/lib/password"
	"github.com/magabrotheeeer/dvs/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email или models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по id или models.ErrNotFound.
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// AuthService отвечает за регистрацию, вход и проверку JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создаёт пользователя с ролью user и сразу выпускает токен.
// Занятый email даёт models.ErrConflict.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	const op = "auth.Register"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		Role:         models.RoleUser,
		Name:         strings.TrimSpace(req.Name),
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.issue(op, user)
}

// Login проверяет пароль. Неизвестный email и неверный пароль неразличимы
// для клиента: оба дают models.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	return s.issue(op, user)
}

func (s *AuthService) issue(op string, user *models.User) (*models.AuthResult, error) {
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{User: user, Token: token}, nil
}

// Authenticate проверяет подпись и срок токена и что пользователь всё ещё
// существует. Роль берётся из базы, а не из токена.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	const op = "auth.Authenticate"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%s: %w: %w", op, models.ErrUnauthorized, err)
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Actor{}, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
		}
		return models.Actor{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Me возвращает профиль текущего пользователя.
func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	const op = "auth.Me"
	user, err := s.users.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// EnsureAdmin создаёт администратора из конфигурации, если пользователя с
// таким email ещё нет. Пустой email ничего не делает.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.Admin) error {
	const op = "auth.EnsureAdmin"
	if cfg.AdminEmail == "" {
		return nil
	}
	_, err := s.users.GetUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("%s: admin password is not set", op)
	}

	hashed, err := password.GetHash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Email:        strings.ToLower(cfg.AdminEmail),
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
		Name:         cfg.AdminName,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("bootstrap admin created", slog.Int("user_id", user.ID), slog.String("email", user.Email))
	return nil
}
