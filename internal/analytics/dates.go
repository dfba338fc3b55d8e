package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Invoice dates are always read day first: D/M/Y.
func splitDate(date string) (day, month, year string) {
	parts := strings.Split(strings.TrimSpace(date), "/")
	if len(parts) > 0 {
		day = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		month = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		year = strings.TrimSpace(parts[2])
	}
	return day, month, year
}

type civilDate struct {
	year  int
	month int
	day   int
}

func (d civilDate) before(other civilDate) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}

func (d civilDate) label() string {
	return fmt.Sprintf("%02d/%02d/%d", d.day, d.month, d.year)
}

func parseCivilDate(date string) (civilDate, bool) {
	dayText, monthText, yearText := splitDate(date)
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return civilDate{}, false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return civilDate{}, false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return civilDate{}, false
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return civilDate{}, false
	}
	return civilDate{year: year, month: month, day: day}, true
}

// ParseDate reads a D/M/Y invoice date at midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, bool) {
	d, ok := parseCivilDate(date)
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, time.Month(d.month), d.day, 0, 0, 0, 0, loc), true
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

func parseClock(value string) (time.Time, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InvoiceInstant combines the D/M/Y date with the optional time of day.
// A missing or unreadable time means start of day.
func InvoiceInstant(date string, clock string, loc *time.Location) (time.Time, bool) {
	day, ok := ParseDate(date, loc)
	if !ok {
		return time.Time{}, false
	}
	if t, ok := parseClock(clock); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), true
	}
	return day, true
}
