package views

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/eisen/internal/db"
	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/state"
	"github.com/tgienger/eisen/internal/ui/keys"
	"github.com/tgienger/eisen/internal/ui/styles"

	_ "time/tzdata"
)

func newStore(t *testing.T, opts ...state.Option) *state.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "eisen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	base := []state.Option{
		state.WithLocation(time.UTC),
		state.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	s := state.NewStore(database, append(base, opts...)...)
	require.NoError(t, s.LoadProjects())
	return s
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func newMatrix(t *testing.T) (*MatrixView, *state.Store) {
	t.Helper()
	s := newStore(t)
	_, err := s.CreateProject("Work")
	require.NoError(t, err)

	v := NewMatrixView(s)
	v.Init()
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return v, s
}

func TestMatrixCreateTask(t *testing.T) {
	v, s := newMatrix(t)

	press(v, runes("n"), runes("Write report"), tea.KeyMsg{Type: tea.KeyCtrlS})

	tasks := s.Snapshot().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Title)
	assert.Equal(t, models.UrgentImportant, tasks[0].Quadrant)
	assert.Equal(t, matrixBrowsing, v.mode)
}

func TestMatrixCreateTaskInFocusedQuadrant(t *testing.T) {
	v, s := newMatrix(t)

	press(v, tea.KeyMsg{Type: tea.KeyTab}, runes("n"), runes("Plan week"), tea.KeyMsg{Type: tea.KeyCtrlS})

	tasks := s.Snapshot().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, models.ImportantNotUrgent, tasks[0].Quadrant)
}

func TestMatrixEmptyTitleKeepsEditorOpen(t *testing.T) {
	v, s := newMatrix(t)

	press(v, runes("n"), tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Empty(t, s.Snapshot().Tasks)
	assert.Equal(t, matrixEditing, v.mode)
	assert.NotEmpty(t, v.formErr)
}

func TestMatrixRejectsBadDeadline(t *testing.T) {
	v, s := newMatrix(t)

	press(v, runes("n"), runes("Pay rent"),
		tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab},
		runes("tomorrow"), tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Empty(t, s.Snapshot().Tasks)
	assert.Equal(t, "date must look like 2006-01-02", v.formErr)
}

func TestMatrixMoveToggleDeleteUndo(t *testing.T) {
	v, s := newMatrix(t)
	press(v, runes("n"), runes("Call plumber"), tea.KeyMsg{Type: tea.KeyCtrlS})

	press(v, runes("3"))
	require.Len(t, s.Snapshot().Tasks, 1)
	assert.Equal(t, models.UrgentNotImportant, s.Snapshot().Tasks[0].Quadrant)

	// follow the task into its new quadrant
	press(v, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, runes("x"))
	assert.True(t, s.Snapshot().Tasks[0].Completed)

	press(v, runes("d"), runes("y"))
	assert.Empty(t, s.Snapshot().Tasks)

	press(v, runes("u"))
	require.Len(t, s.Snapshot().Tasks, 1)
	assert.Equal(t, "Call plumber", s.Snapshot().Tasks[0].Title)
}

func TestMatrixSearch(t *testing.T) {
	v, s := newMatrix(t)
	press(v, runes("n"), runes("Buy milk"), tea.KeyMsg{Type: tea.KeyCtrlS})
	press(v, runes("n"), runes("Fix bike"), tea.KeyMsg{Type: tea.KeyCtrlS})

	press(v, runes("/"), runes("MILK"))
	snap := s.Snapshot()
	assert.Equal(t, "MILK", snap.SearchQuery)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Buy milk", snap.Tasks[0].Title)

	press(v, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, s.Snapshot().SearchQuery)
	assert.Len(t, s.Snapshot().Tasks, 2)
}

func TestMatrixEscOpensProjects(t *testing.T) {
	v, _ := newMatrix(t)

	cmd := press(v, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, ShowProjects{}, cmd())
}

func TestProjectListCreate(t *testing.T) {
	s := newStore(t)
	v := NewProjectListView(s)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	cmd := press(v, runes("n"), runes("Home"), tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.IsType(t, OpenMatrix{}, cmd())
	snap := s.Snapshot()
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "Home", snap.Projects[0].Name)
	require.NotNil(t, snap.CurrentProject)
	assert.Equal(t, snap.Projects[0].ID, snap.CurrentProject.ID)
}

func TestProjectListDeleteNeedsConfirmation(t *testing.T) {
	s := newStore(t)
	_, err := s.CreateProject("Home")
	require.NoError(t, err)
	v := NewProjectListView(s)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	press(v, runes("d"), runes("n"))
	assert.Len(t, s.Snapshot().Projects, 1)

	press(v, runes("d"), runes("y"))
	assert.Empty(t, s.Snapshot().Projects)
}

func TestArchiveRestoreTask(t *testing.T) {
	s := newStore(t)
	_, err := s.CreateProject("Work")
	require.NoError(t, err)
	task, err := s.CreateTask(models.Task{Title: "Old idea"})
	require.NoError(t, err)
	require.NoError(t, s.ArchiveTask(task.ID))
	require.Empty(t, s.Snapshot().Tasks)

	v := NewArchiveView(s)
	v.Init()
	require.Len(t, v.entries, 1)

	press(v, runes("r"))
	assert.Empty(t, v.entries)
	require.Len(t, s.Snapshot().Tasks, 1)
	assert.Equal(t, "Old idea", s.Snapshot().Tasks[0].Title)
}

func TestArchivePermanentDelete(t *testing.T) {
	s := newStore(t)
	p, err := s.CreateProject("Old")
	require.NoError(t, err)
	require.NoError(t, s.ArchiveProject(p.ID))

	v := NewArchiveView(s)
	v.Init()
	require.Len(t, v.entries, 1)

	press(v, runes("d"), runes("y"))
	assert.Empty(t, v.entries)

	contents, err := s.Archived()
	require.NoError(t, err)
	assert.Empty(t, contents.Projects)
}

// Deadlines are read and shown in the store's zone, whatever the host zone is
func TestMatrixDeadlinesUseStoreLocation(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	hostZone := time.Local
	time.Local = newYork
	t.Cleanup(func() { time.Local = hostZone })

	// Thursday 15:00 in Moscow, Thursday 07:00 in New York
	clock := time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC)
	s := newStore(t, state.WithLocation(moscow), state.WithClock(func() time.Time { return clock }))
	_, err = s.CreateProject("Work")
	require.NoError(t, err)

	v := NewMatrixView(s)
	v.now = func() time.Time { return clock }
	v.Init()
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	task, err := s.CreateTask(models.Task{
		Title:             "Standup",
		IsRecurring:       true,
		RecurrencePattern: &models.RecurrencePattern{Type: models.RecurWeekdays},
	})
	require.NoError(t, err)
	require.NoError(t, s.ToggleComplete(task.ID))

	tasks := s.Snapshot().Tasks
	require.Len(t, tasks, 2)
	next := tasks[1]
	require.NotNil(t, next.Deadline)
	assert.Equal(t, time.Friday, next.Deadline.In(moscow).Weekday())
	assert.Equal(t, "Jan 5", deadlineLabel(next, s.Location()))

	// Thursday afternoon in New York is still before Friday in Moscow
	assert.False(t, next.IsOverdue(time.Date(2024, time.January, 4, 15, 0, 0, 0, newYork)))

	// the open occurrence sorts first; the editor shows and saves the same day
	press(v, runes("e"))
	assert.Equal(t, "2024-01-05", v.inputs[fieldDate].Value())
	press(v, tea.KeyMsg{Type: tea.KeyCtrlS})

	saved := s.Snapshot().Tasks[1]
	assert.Equal(t, next.ID, saved.ID)
	require.NotNil(t, saved.Deadline)
	assert.True(t, saved.Deadline.Equal(time.Date(2024, time.January, 5, 0, 0, 0, 0, moscow)), saved.Deadline)
}

func TestParseDeadlineUsesLocation(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	deadline, clock, err := parseDeadline("2024-01-05", "09:30", moscow)
	require.NoError(t, err)
	assert.Equal(t, "09:30", clock)
	assert.True(t, deadline.Equal(time.Date(2024, time.January, 5, 6, 30, 0, 0, time.UTC)), deadline)

	_, _, err = parseDeadline("", "09:30", moscow)
	assert.Error(t, err)
}

func TestHelpLineListsBindings(t *testing.T) {
	k := keys.DefaultKeyMap()

	line := helpLine(styles.NewStyles(), k.New, k.Undo)

	for _, b := range []string{k.New.Help().Key, k.New.Help().Desc, k.Undo.Help().Key, k.Undo.Help().Desc} {
		assert.True(t, strings.Contains(line, b), "missing %q in %q", b, line)
	}
}
