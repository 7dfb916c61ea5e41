package models

import "time"

// GoodTiming — благоприятный интервал, привязанный к дню недели и
// действующий в диапазоне дат [StartDate, EndDate] включительно.
// Даты хранятся строками в формате YYYY-MM-DD.
type GoodTiming struct {
	ID            int        `json:"id"`
	Day           string     `json:"day"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	CreatedBy     *int       `json:"created_by"`
	CreatedByName *string    `json:"created_by_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	TimeSlots     []TimeSlot `json:"time_slots"`
}

// TimeSlot — дочерний временной слот благоприятного интервала.
// Время хранится строками HH:MM:SS.
type TimeSlot struct {
	ID            int       `json:"id"`
	GoodTimingID  int       `json:"time_slot_id"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	CategoryID    int       `json:"category_id"`
	CategoryName  string    `json:"category_name,omitempty"`
	CategoryColor string    `json:"category_color,omitempty"`
	Description   *string   `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// GoodTimingFilter: пустое поле не фильтрует.
type GoodTimingFilter struct {
	StartDate string
	EndDate   string
	Day       string
}

// GoodTimingRequest — тело запроса на создание/обновление интервала.
type GoodTimingRequest struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartDate string `json:"start_date" validate:"required,isodatetime"`
	EndDate   string `json:"end_date" validate:"required,isodatetime"`
}

type TimeSlotRequest struct {
	StartTime   string  `json:"start_time" validate:"required,hhmm"`
	EndTime     string  `json:"end_time" validate:"required,hhmm"`
	CategoryID  int     `json:"category_id" validate:"required,min=1"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateTimeSlotRequest меняет только переданные поля.
type UpdateTimeSlotRequest struct {
	StartTime   *string `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime     *string `json:"end_time,omitempty" validate:"omitempty,hhmm"`
	CategoryID  *int    `json:"category_id,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}
