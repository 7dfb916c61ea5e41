// Package validate настраивает validator для тел запросов API: имена полей
// берутся из json-тегов, добавлены форматы времени и дат и правила,
// связывающие несколько полей структуры.
package validate

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dvs/internal/calendar"
	"github.com/magabrotheeeer/dvs/internal/models"
)

var (
	hhmmRe   = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
	hhmmssRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	phoneRe  = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,18}[0-9]$`)

	weekdays = map[string]struct{}{
		"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
		"friday": {}, "saturday": {}, "sunday": {},
	}
)

// New возвращает валидатор со всеми правилами API.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("hhmm", matches(hhmmRe))
	_ = v.RegisterValidation("hhmmss", matches(hhmmssRe))
	_ = v.RegisterValidation("isodate", isoDate)
	_ = v.RegisterValidation("isodatetime", isoDateTime)
	_ = v.RegisterValidation("weekday", weekday)
	_ = v.RegisterValidation("phone", matches(phoneRe))

	v.RegisterStructValidation(goodTimingRule, models.GoodTimingRequest{})
	v.RegisterStructValidation(timeSlotRule, models.TimeSlotRequest{})
	v.RegisterStructValidation(daylightRule, models.DaylightRequest{})
	v.RegisterStructValidation(dateRangeRule, models.DateRange{})
	v.RegisterStructValidation(calendarEventRule, models.CalendarEventRequest{})
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func isoDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(calendar.DateLayout, s)
	return err == nil
}

func isoDateTime(fl validator.FieldLevel) bool {
	_, err := calendar.ParseDay(fl.Field().String())
	return err == nil
}

func weekday(fl validator.FieldLevel) bool {
	_, ok := weekdays[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	return ok
}

// dateOrder сообщает об ошибке на поле end, если обе даты разобраны и end раньше start.
func dateOrder(sl validator.StructLevel, start, end any, endField, endName string) {
	s, errS := calendar.ParseDay(start.(string))
	e, errE := calendar.ParseDay(end.(string))
	if errS != nil || errE != nil {
		return
	}
	if e.Before(s) {
		sl.ReportError(end, endName, endField, "after", "start_date")
	}
}

func goodTimingRule(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.GoodTimingRequest)
	dateOrder(sl, req.StartDate, req.EndDate, "EndDate", "end_date")
}

func calendarEventRule(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.CalendarEventRequest)
	dateOrder(sl, req.StartDate, req.EndDate, "EndDate", "end_date")
}

func dateRangeRule(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.DateRange)
	if req.StartDate == "" || req.EndDate == "" {
		return
	}
	dateOrder(sl, req.StartDate, req.EndDate, "EndDate", "end_date")
}

func timeSlotRule(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.TimeSlotRequest)
	if !hhmmRe.MatchString(req.StartTime) || !hhmmRe.MatchString(req.EndTime) {
		return
	}
	if clock(req.EndTime) <= clock(req.StartTime) {
		sl.ReportError(req.EndTime, "end_time", "EndTime", "after", "start_time")
	}
}

func daylightRule(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.DaylightRequest)
	if !hhmmssRe.MatchString(req.SunriseTime) || !hhmmssRe.MatchString(req.SunsetTime) {
		return
	}
	if clock(req.SunsetTime)[:5] <= clock(req.SunriseTime)[:5] {
		sl.ReportError(req.SunsetTime, "sunset_time", "SunsetTime", "after", "sunrise_time")
	}
}

// clock приводит "9:05" и "09:05:30" к сравнимому виду "09:05:00"/"09:05:30".
func clock(s string) string {
	parts := strings.Split(s, ":")
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		}
	}
	for len(parts) < 3 {
		parts = append(parts, "00")
	}
	return strings.Join(parts[:3], ":")
}
