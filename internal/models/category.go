package models

import "time"

// Category — именованная цветная метка для временных слотов и событий.
type Category struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	ColorToken string    `json:"color_token"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCategoryRequest — тело запроса на создание категории.
type CreateCategoryRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	ColorToken string `json:"color_token" validate:"required,oneof=blue green teal amber"`
}

// UpdateCategoryRequest — частичное обновление категории.
type UpdateCategoryRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	ColorToken *string `json:"color_token,omitempty" validate:"omitempty,oneof=blue green teal amber"`
	IsActive   *bool   `json:"is_active,omitempty"`
}
