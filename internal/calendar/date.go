// Package calendar определяет, какие благоприятные интервалы, события
// календаря и демонстрационные записи относятся к заданной дате, и
// приводит их к единой форме Window.
//
// Пакет не выполняет ввода-вывода и не изменяет входные данные.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout — формат календарной даты.
const DateLayout = "2006-01-02"

// ErrEmptyDate возвращается для пустой строки даты.
var ErrEmptyDate = errors.New("empty date")

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// Date — календарная дата без времени и часового пояса.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate возвращает дату, записанную в t (без перевода в UTC).
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDay разбирает строку YYYY-MM-DD или ISO datetime. Для datetime
// берётся дата в том виде, в котором она записана: время суток и смещение
// часового пояса отбрасываются.
func ParseDay(s string) (Date, error) {
	const op = "calendar.ParseDay"
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%s: %w", op, ErrEmptyDate)
	}
	if !strings.ContainsAny(s, "T ") {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Date{}, fmt.Errorf("%s: %w", op, err)
		}
		return NewDate(t), nil
	}
	var lastErr error
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewDate(t), nil
		}
		lastErr = err
	}
	return Date{}, fmt.Errorf("%s: %w", op, lastErr)
}

// MustParseDay как ParseDay, но паникует на ошибке. Только для констант и тестов.
func MustParseDay(s string) Date {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time возвращает полночь даты в UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare возвращает -1, 0 или 1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before сообщает, что d строго раньше o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After сообщает, что d строго позже o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal сообщает о совпадении дат.
func (d Date) Equal(o Date) bool { return d == o }

// Between сообщает, что from <= d <= to.
func (d Date) Between(from, to Date) bool {
	return !d.Before(from) && !d.After(to)
}

// AddDays сдвигает дату на n дней.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Time().AddDate(0, 0, n))
}

// Weekday возвращает день недели даты.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalText сериализует дату как YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText разбирает дату через ParseDay.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
