package calendar

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/dvs/internal/lib/sl"
	"github.com/magabrotheeeer/dvs/internal/models"
)

const (
	// SourceGoodTiming — окно построено из благоприятного интервала.
	SourceGoodTiming = "good_timing"
	// SourceEvent — окно построено из события календаря.
	SourceEvent = "calendar_event"
	// SourceDemo — окно построено из демонстрационной записи.
	SourceDemo = "demo"

	// DayStart и DayEnd подставляются вместо отсутствующего времени.
	DayStart = "00:00"
	DayEnd   = "23:59"

	defaultEventCategory = "Event"
	defaultEventColor    = "blue"
)

// Slot — временной слот в общей форме.
type Slot struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
	Description   string `json:"description"`
	IsAllDay      bool   `json:"is_all_day"`
}

// Window — элемент результата для одной даты.
type Window struct {
	Source    string `json:"source"`
	SourceID  string `json:"source_id"`
	Label     string `json:"window_label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TimeSlots []Slot `json:"time_slots"`
}

// Resolver подбирает записи трёх источников для даты.
// Нулевое значение пригодно к использованию и ничего не логирует.
type Resolver struct {
	log *slog.Logger
}

// NewResolver создает Resolver. Исключённые кандидаты пишутся в log на уровне debug.
func NewResolver(log *slog.Logger) *Resolver {
	return &Resolver{log: log}
}

// Resolve возвращает окна, относящиеся к дате day. Порядок результата:
// сначала благоприятные интервалы, затем события, затем демо-записи; внутри
// источника сохраняется входной порядок.
func (r *Resolver) Resolve(day Date, timings []models.GoodTiming, events []models.CalendarEvent, demos []DemoEntry) []Window {
	result := make([]Window, 0)
	for i := range timings {
		if w, ok := r.matchGoodTiming(day, &timings[i]); ok {
			result = append(result, w)
		}
	}
	for i := range events {
		if w, ok := r.matchEvent(day, &events[i]); ok {
			result = append(result, w)
		}
	}
	for i := range demos {
		if w, ok := r.matchDemo(day, &demos[i]); ok {
			result = append(result, w)
		}
	}
	return result
}

// DayResult — окна одной даты в составе диапазона.
type DayResult struct {
	Date    string   `json:"date"`
	Windows []Window `json:"windows"`
	More    int      `json:"more,omitempty"`
}

// ResolveRange применяет Resolve к каждой дате from..to включительно.
// Окна каждой даты отсортированы по времени начала.
func (r *Resolver) ResolveRange(from, to Date, timings []models.GoodTiming, events []models.CalendarEvent, demos []DemoEntry) []DayResult {
	var days []DayResult
	for d := from; !d.After(to); d = d.AddDays(1) {
		windows := r.Resolve(d, timings, events, demos)
		SortByStartTime(windows)
		days = append(days, DayResult{Date: d.String(), Windows: windows})
	}
	return days
}

func (r *Resolver) matchGoodTiming(day Date, gt *models.GoodTiming) (Window, bool) {
	start, err := ParseDay(gt.StartDate)
	if err != nil {
		r.skip("good timing has invalid start_date", gt.ID, err)
		return Window{}, false
	}
	end, err := ParseDay(gt.EndDate)
	if err != nil {
		r.skip("good timing has invalid end_date", gt.ID, err)
		return Window{}, false
	}
	// День недели не проверяется: диапазон дат уже задаёт применимость.
	if !day.Between(start, end) {
		return Window{}, false
	}

	slots := make([]Slot, 0, len(gt.TimeSlots))
	for _, ts := range gt.TimeSlots {
		slots = append(slots, Slot{
			StartTime:     ts.StartTime,
			EndTime:       ts.EndTime,
			CategoryName:  ts.CategoryName,
			CategoryColor: ts.CategoryColor,
			Description:   deref(ts.Description),
		})
	}
	return Window{
		Source:    SourceGoodTiming,
		SourceID:  strconv.Itoa(gt.ID),
		Label:     gt.Day,
		StartDate: start.String(),
		EndDate:   end.String(),
		TimeSlots: slots,
	}, true
}

func (r *Resolver) matchEvent(day Date, ev *models.CalendarEvent) (Window, bool) {
	if ev.StartDate == "" || ev.EndDate == "" {
		r.skip("calendar event has missing dates", ev.ID, nil)
		return Window{}, false
	}
	start, err := ParseDay(ev.StartDate)
	if err != nil {
		r.skip("calendar event has invalid start_date", ev.ID, err)
		return Window{}, false
	}
	end, err := ParseDay(ev.EndDate)
	if err != nil {
		r.skip("calendar event has invalid end_date", ev.ID, err)
		return Window{}, false
	}

	if start.Equal(end) {
		if !day.Equal(start) {
			return Window{}, false
		}
	} else if !day.Between(start, end) {
		return Window{}, false
	}

	description := deref(ev.Description)
	if description == "" {
		description = ev.Title
	}
	categoryName := deref(ev.CategoryName)
	if categoryName == "" {
		categoryName = defaultEventCategory
	}
	color := ev.Color
	if color == "" {
		color = defaultEventColor
	}

	return Window{
		Source:    SourceEvent,
		SourceID:  strconv.Itoa(ev.ID),
		Label:     ev.Title,
		StartDate: start.String(),
		EndDate:   end.String(),
		TimeSlots: []Slot{{
			StartTime:     orDefault(deref(ev.StartTime), DayStart),
			EndTime:       orDefault(deref(ev.EndTime), DayEnd),
			CategoryName:  categoryName,
			CategoryColor: color,
			Description:   description,
			IsAllDay:      ev.IsAllDay,
		}},
	}, true
}

func (r *Resolver) matchDemo(day Date, d *DemoEntry) (Window, bool) {
	if d.Date.IsZero() || !d.Date.Equal(day) {
		return Window{}, false
	}
	description := d.Description
	if description == "" {
		description = d.Title
	}
	return Window{
		Source:    SourceDemo,
		SourceID:  d.ID,
		Label:     d.Title,
		StartDate: d.Date.String(),
		EndDate:   d.Date.String(),
		TimeSlots: []Slot{{
			StartTime:     orDefault(d.StartTime, DayStart),
			EndTime:       orDefault(d.EndTime, DayEnd),
			CategoryName:  d.CategoryName,
			CategoryColor: d.CategoryColor,
			Description:   description,
			IsAllDay:      d.IsAllDay,
		}},
	}, true
}

func (r *Resolver) skip(msg string, id int, err error) {
	if r == nil || r.log == nil {
		return
	}
	attrs := []any{slog.Int("id", id)}
	if err != nil {
		attrs = append(attrs, sl.Err(err))
	}
	r.log.Debug(msg, attrs...)
}

// SortByStartTime упорядочивает окна по времени начала первого слота.
// Окна без слотов идут последними. Сортировка устойчивая.
func SortByStartTime(windows []Window) {
	sort.SliceStable(windows, func(i, j int) bool {
		a, b := firstStart(windows[i]), firstStart(windows[j])
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return normalizeClock(a) < normalizeClock(b)
	})
}

// SortSlots упорядочивает слоты по времени начала.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return normalizeClock(slots[i].StartTime) < normalizeClock(slots[j].StartTime)
	})
}

// Truncate оставляет первые n окон и возвращает количество скрытых.
// n <= 0 означает «без ограничения».
func Truncate(windows []Window, n int) ([]Window, int) {
	if n <= 0 || len(windows) <= n {
		return windows, 0
	}
	return windows[:n], len(windows) - n
}

func firstStart(w Window) string {
	start := ""
	for _, s := range w.TimeSlots {
		if start == "" || normalizeClock(s.StartTime) < normalizeClock(start) {
			start = s.StartTime
		}
	}
	return start
}

// normalizeClock приводит "9:00" и "09:00:00" к сравнимому виду "09:00:00".
func normalizeClock(s string) string {
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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
