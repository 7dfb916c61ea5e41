package models

import "errors"

// Доменные ошибки. Хранилище и сервисы оборачивают их через %w,
// HTTP-слой сопоставляет их со статусами ответа.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrCategoryInUse      = errors.New("category is used by time slots")
	ErrCategoryExists     = errors.New("category with this name already exists")
	ErrInvalidCategory    = errors.New("category not found or inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfDelete         = errors.New("administrators cannot delete their own account")
	ErrNoUpdates          = errors.New("no updates provided")
	ErrUpstream           = errors.New("upstream service failure")
	ErrInvalidInput       = errors.New("invalid input")
)
