package views

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/recurrence"
	"github.com/tgienger/eisen/internal/ui/styles"
)

// OpenMatrix asks the app to show the selected project's matrix
type OpenMatrix struct{}

// ShowProjects asks the app to show the project list
type ShowProjects struct{}

// ShowArchive asks the app to show the archive
type ShowArchive struct{}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// truncate shortens s to width cells, marking the cut with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// deadlineLabel formats a task deadline for a list row, in loc
func deadlineLabel(t models.Task, loc *time.Location) string {
	if t.Deadline == nil {
		return ""
	}
	d := t.Deadline.In(loc)
	if t.DeadlineTime != "" {
		return d.Format("Jan 2 15:04")
	}
	return d.Format("Jan 2")
}

// taskMeta is the dim suffix shown after a task title
func taskMeta(t models.Task, loc *time.Location) string {
	var parts []string
	if label := deadlineLabel(t, loc); label != "" {
		parts = append(parts, label)
	}
	if t.IsRecurring && t.RecurrencePattern != nil {
		parts = append(parts, "↻ "+recurrence.Describe(*t.RecurrencePattern))
	}
	return strings.Join(parts, " · ")
}

// parseDeadline reads the date and time fields of the task form as a
// wall-clock time in loc. An empty date means no deadline.
func parseDeadline(date, clock string, loc *time.Location) (*time.Time, string, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		if clock != "" {
			return nil, "", errors.New("a time needs a date")
		}
		return nil, "", nil
	}
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return nil, "", errors.New("date must look like 2006-01-02")
	}
	if clock != "" {
		if _, _, ok := recurrence.ParseClock(clock); !ok {
			return nil, "", errors.New("time must look like 15:04")
		}
	}
	deadline := recurrence.WithTime(day, clock)
	return &deadline, clock, nil
}

// helpLine renders "key desc • key desc" for the given bindings
func helpLine(s *styles.Styles, bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, s.HelpKey.Render(h.Key)+" "+s.HelpDesc.Render(h.Desc))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// helpPopup renders the full binding list in a box
func helpPopup(s *styles.Styles, width, height int, bindings ...key.Binding) string {
	rows := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, b := range bindings {
		h := b.Help()
		rows = append(rows, s.HelpKey.Render(fmt.Sprintf("%-8s", h.Key))+" "+s.HelpDesc.Render(h.Desc))
	}
	rows = append(rows, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
	return styles.CenterView(centered, width, height)
}

// confirmBox renders a yes/no prompt
func confirmBox(s *styles.Styles, width, height int, title, detail string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}
