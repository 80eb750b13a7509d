// Package recurrence computes the next occurrence of a recurring task.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tgienger/eisen/internal/models"
)

// Next returns midnight of the day the pattern next fires after ref,
// in ref's location. The result is always strictly after ref.
func Next(ref time.Time, p models.RecurrencePattern) time.Time {
	day := startOfDay(ref)

	switch p.Type {
	case models.RecurDaily:
		interval := p.Interval
		if interval <= 0 {
			interval = 1
		}
		return day.AddDate(0, 0, interval)
	case models.RecurWeekdays:
		return firstAfter(day, func(d time.Weekday) bool {
			return d >= time.Monday && d <= time.Friday
		})
	case models.RecurWeekends:
		return firstAfter(day, func(d time.Weekday) bool {
			return d == time.Saturday || d == time.Sunday
		})
	case models.RecurCustom:
		if len(p.DaysOfWeek) == 0 {
			return day.AddDate(0, 0, 7)
		}
		set := make(map[time.Weekday]bool, len(p.DaysOfWeek))
		for _, d := range p.DaysOfWeek {
			set[d] = true
		}
		return firstAfter(day, func(d time.Weekday) bool { return set[d] })
	}

	// weekly, and anything unrecognised
	return day.AddDate(0, 0, 7)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func firstAfter(day time.Time, match func(time.Weekday) bool) time.Time {
	for i := 1; i <= 7; i++ {
		next := day.AddDate(0, 0, i)
		if match(next.Weekday()) {
			return next
		}
	}
	return day.AddDate(0, 0, 7)
}

// WithTime sets the time of day on day from an "HH:MM" string.
// An empty or malformed value leaves day unchanged.
func WithTime(day time.Time, hhmm string) time.Time {
	h, m, ok := ParseClock(hhmm)
	if !ok {
		return day
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, day.Location())
}

// ParseClock parses "HH:MM" into hours and minutes
func ParseClock(hhmm string) (int, int, bool) {
	hs, ms, found := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

var shortDays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Describe renders a pattern for display, e.g. "every 3 days" or "Mon, Wed"
func Describe(p models.RecurrencePattern) string {
	switch p.Type {
	case models.RecurDaily:
		if p.Interval <= 1 {
			return "every day"
		}
		return fmt.Sprintf("every %d days", p.Interval)
	case models.RecurWeekly:
		return "every week"
	case models.RecurWeekdays:
		return "weekdays"
	case models.RecurWeekends:
		return "weekends"
	case models.RecurCustom:
		if len(p.DaysOfWeek) == 0 {
			return "custom"
		}
		names := make([]string, 0, len(p.DaysOfWeek))
		for _, d := range p.DaysOfWeek {
			if d >= time.Sunday && d <= time.Saturday {
				names = append(names, shortDays[d])
			}
		}
		return strings.Join(names, ", ")
	}
	return "repeats"
}
