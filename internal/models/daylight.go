package models

import "time"

// Daylight — время восхода и заката для конкретной даты.
type Daylight struct {
	ID            int       `json:"id"`
	Date          string    `json:"date"`
	SunriseTime   string    `json:"sunrise_time"`
	SunsetTime    string    `json:"sunset_time"`
	Timezone      string    `json:"timezone"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	UpdatedBy     *int      `json:"updated_by,omitempty"`
	UpdatedByName *string   `json:"updated_by_name,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DaylightRequest — тело запроса на создание или обновление записи по дате.
type DaylightRequest struct {
	SunriseTime string   `json:"sunrise_time" validate:"required,hhmmss"`
	SunsetTime  string   `json:"sunset_time" validate:"required,hhmmss"`
	Timezone    string   `json:"timezone,omitempty" validate:"omitempty,min=3,max=50"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Notes       *string  `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type BulkDaylightItem struct {
	Date string `json:"date" validate:"required,isodate"`
	DaylightRequest
}

// BulkDaylightRequest тело PUT /daylight/bulk.
type BulkDaylightRequest struct {
	Items []BulkDaylightItem `json:"daylight_data" validate:"required,min=1,dive"`
}

// DateRange — необязательный диапазон дат из query-параметров.
type DateRange struct {
	StartDate string `json:"start_date" validate:"omitempty,isodate"`
	EndDate   string `json:"end_date" validate:"omitempty,isodate"`
}

// Complete сообщает, что заданы обе границы диапазона.
func (r DateRange) Complete() bool {
	return r.StartDate != "" && r.EndDate != ""
}
