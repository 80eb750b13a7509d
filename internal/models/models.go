package models

import (
	"fmt"
	"time"
)

// Quadrant is one of the four cells of the Eisenhower matrix
type Quadrant string

const (
	UrgentImportant       Quadrant = "urgent-important"
	ImportantNotUrgent    Quadrant = "important-not-urgent"
	UrgentNotImportant    Quadrant = "urgent-not-important"
	NotUrgentNotImportant Quadrant = "not-urgent-not-important"
)

// Quadrants lists the quadrants in board order (left to right, top to bottom)
var Quadrants = []Quadrant{
	UrgentImportant,
	ImportantNotUrgent,
	UrgentNotImportant,
	NotUrgentNotImportant,
}

// Valid reports whether q is one of the four known quadrants
func (q Quadrant) Valid() bool {
	switch q {
	case UrgentImportant, ImportantNotUrgent, UrgentNotImportant, NotUrgentNotImportant:
		return true
	}
	return false
}

// Label returns the display name of the quadrant
func (q Quadrant) Label() string {
	switch q {
	case UrgentImportant:
		return "Do: urgent & important"
	case ImportantNotUrgent:
		return "Plan: important, not urgent"
	case UrgentNotImportant:
		return "Delegate: urgent, not important"
	case NotUrgentNotImportant:
		return "Drop: neither"
	}
	return string(q)
}

// RecurrenceKind selects how the next occurrence of a recurring task is computed
type RecurrenceKind string

const (
	RecurDaily    RecurrenceKind = "daily"
	RecurWeekly   RecurrenceKind = "weekly"
	RecurWeekdays RecurrenceKind = "weekdays"
	RecurWeekends RecurrenceKind = "weekends"
	RecurCustom   RecurrenceKind = "custom"
)

// RecurrencePattern describes when a recurring task comes back.
// Interval is only read for daily patterns, DaysOfWeek only for custom ones.
type RecurrencePattern struct {
	Type       RecurrenceKind `json:"type"`
	Interval   int            `json:"interval,omitempty"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"`
}

// Validate checks the pattern kind and weekday range
func (p RecurrencePattern) Validate() error {
	switch p.Type {
	case RecurDaily, RecurWeekly, RecurWeekdays, RecurWeekends:
	case RecurCustom:
		for _, d := range p.DaysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("invalid day of week %d", d)
			}
		}
	default:
		return fmt.Errorf("unknown recurrence type %q", p.Type)
	}
	return nil
}

// Project groups tasks; projects are listed in the sidebar by Order
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Archived  bool      `json:"archived,omitempty"`
	Order     *int      `json:"order,omitempty"`
}

// Task represents a single task placed in a quadrant of one project
type Task struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	Completed         bool               `json:"completed"`
	CreatedAt         time.Time          `json:"createdAt"`
	Deadline          *time.Time         `json:"deadline,omitempty"`
	DeadlineTime      string             `json:"deadlineTime,omitempty"` // "HH:MM", empty when the deadline is date-only
	Quadrant          Quadrant           `json:"quadrant"`
	ProjectID         string             `json:"projectId"`
	Archived          bool               `json:"archived,omitempty"`
	Order             *int               `json:"order,omitempty"`
	IsRecurring       bool               `json:"isRecurring,omitempty"`
	RecurrencePattern *RecurrencePattern `json:"recurrencePattern,omitempty"`
}

// IsOverdue reports whether the deadline has passed on an open task
func (t Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && !t.Completed && t.Deadline.Before(now)
}

// IntPtr returns a pointer to v, for the optional Order fields
func IntPtr(v int) *int {
	return &v
}
