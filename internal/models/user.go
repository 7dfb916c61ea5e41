// Package models содержит доменные структуры DVS: пользователей, категории,
// благоприятные интервалы, данные о световом дне, события календаря и
// подписчиков рассылки, а также DTO для приёма JSON-запросов.
package models

import "time"

const (
	// RoleAdmin — роль администратора.
	RoleAdmin = "admin"
	// RoleUser — роль обычного пользователя.
	RoleUser = "user"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // admin или user
	Name         string    `json:"name"`
	PhoneNumber  *string   `json:"phone_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// RegisterRequest используется для приёма данных регистрации.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,phone"`
}

// LoginRequest используется для приёма учётных данных.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest описывает частичное обновление пользователя.
// Пустые указатели означают «не менять».
type UpdateUserRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,phone"`
	Role        *string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// Empty сообщает, что в запросе нет ни одного поля для обновления.
func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.PhoneNumber == nil && r.Role == nil
}

// AuthResult возвращается после успешной регистрации или входа.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
