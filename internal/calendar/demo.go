package calendar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DemoEntry — демонстрационная запись, показываемая в календаре наравне с
// событиями. Дата задаётся либо абсолютно, либо смещением от текущего дня.
type DemoEntry struct {
	ID            string
	Title         string
	Description   string
	Date          Date
	StartTime     string
	EndTime       string
	CategoryName  string
	CategoryColor string
	IsAllDay      bool
}

type demoFile struct {
	Entries []demoRecord `yaml:"entries"`
}

type demoRecord struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Date          string `yaml:"date"`
	OffsetDays    *int   `yaml:"offset_days"`
	StartTime     string `yaml:"start_time"`
	EndTime       string `yaml:"end_time"`
	CategoryName  string `yaml:"category_name"`
	CategoryColor string `yaml:"category_color"`
	IsAllDay      bool   `yaml:"is_all_day"`
}

// LoadDemoEntries читает YAML-файл демонстрационных записей. Пустой path
// означает отсутствие демо-записей.
func LoadDemoEntries(path string, today Date) ([]DemoEntry, error) {
	const op = "calendar.LoadDemoEntries"
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries, err := ParseDemoEntries(data, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// ParseDemoEntries разбирает содержимое файла демо-записей.
func ParseDemoEntries(data []byte, today Date) ([]DemoEntry, error) {
	const op = "calendar.ParseDemoEntries"
	var f demoFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]DemoEntry, 0, len(f.Entries))
	for i, rec := range f.Entries {
		var day Date
		switch {
		case rec.Date != "":
			d, err := ParseDay(rec.Date)
			if err != nil {
				return nil, fmt.Errorf("%s: entry %d: %w", op, i, err)
			}
			day = d
		case rec.OffsetDays != nil:
			day = today.AddDays(*rec.OffsetDays)
		default:
			return nil, fmt.Errorf("%s: entry %d: neither date nor offset_days set", op, i)
		}

		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("demo-%d", i+1)
		}
		entries = append(entries, DemoEntry{
			ID:            id,
			Title:         rec.Title,
			Description:   rec.Description,
			Date:          day,
			StartTime:     rec.StartTime,
			EndTime:       rec.EndTime,
			CategoryName:  rec.CategoryName,
			CategoryColor: rec.CategoryColor,
			IsAllDay:      rec.IsAllDay,
		})
	}
	return entries, nil
}
