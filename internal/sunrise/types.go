package sunrise

import "time"

// StatusOK — значение поля status успешного ответа API.
const StatusOK = "OK"

// apiResponse — ответ {base}/json при formatted=0.
type apiResponse struct {
	Results struct {
		Sunrise   time.Time `json:"sunrise"`
		Sunset    time.Time `json:"sunset"`
		SolarNoon time.Time `json:"solar_noon"`
		DayLength int       `json:"day_length"` // секунды
	} `json:"results"`
	Status string `json:"status"`
}

// Result — моменты восхода и заката в UTC.
type Result struct {
	Date      string
	Sunrise   time.Time
	Sunset    time.Time
	DayLength time.Duration
}
