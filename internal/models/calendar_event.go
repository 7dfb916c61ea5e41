package models

import "time"

// CalendarEvent — пользовательское событие календаря, возможно многодневное
// и/или на весь день.
type CalendarEvent struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	StartTime     *string   `json:"start_time,omitempty"`
	EndTime       *string   `json:"end_time,omitempty"`
	CategoryID    *int      `json:"category_id,omitempty"`
	CategoryName  *string   `json:"category_name,omitempty"`
	CategoryColor *string   `json:"category_color,omitempty"`
	IsAllDay      bool      `json:"is_all_day"`
	Color         string    `json:"color"`
	CreatedBy     int       `json:"created_by"`
	CreatedByName *string   `json:"created_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CalendarEventRequest — тело запроса на создание или обновление события.
type CalendarEventRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	StartDate   string  `json:"start_date" validate:"required,isodatetime"`
	EndDate     string  `json:"end_date" validate:"required,isodatetime"`
	StartTime   *string `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime     *string `json:"end_time,omitempty" validate:"omitempty,hhmm"`
	CategoryID  *int    `json:"category_id,omitempty" validate:"omitempty,min=1"`
	IsAllDay    *bool   `json:"is_all_day,omitempty"`
	Color       *string `json:"color,omitempty" validate:"omitempty,oneof=blue green teal amber red yellow orange purple pink"`
}

// CalendarEventFilter — фильтры списка событий.
type CalendarEventFilter struct {
	StartDate  string
	EndDate    string
	CategoryID *int
}
