package ui

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/eisen/internal/state"
	"github.com/tgienger/eisen/internal/ui/styles"
	"github.com/tgienger/eisen/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewMatrix
	ViewArchive
)

// PurgedMsg is sent after the nightly purge of completed tasks
type PurgedMsg struct {
	Count int64
	Err   error
}

type loadedMsg struct{ err error }

// Status keeps the last notification for the status line. It is safe for
// concurrent use since the nightly purge notifies from its own goroutine.
type Status struct {
	mu   sync.Mutex
	last *state.Notification
}

// Notify implements state.Notifier
func (s *Status) Notify(n state.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &n
}

func (s *Status) get() (state.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return state.Notification{}, false
	}
	return *s.last, true
}

func (s *Status) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}

type App struct {
	store       *state.Store
	status      *Status
	styles      *styles.Styles
	currentView View
	loaded      bool
	projectList *views.ProjectListView
	matrix      *views.MatrixView
	archive     *views.ArchiveView
	width       int
	height      int
}

// NewApp creates the application. status must be the notifier the store
// was created with.
func NewApp(store *state.Store, status *Status) *App {
	return &App{
		store:       store,
		status:      status,
		styles:      styles.NewStyles(),
		currentView: ViewProjects,
		projectList: views.NewProjectListView(store),
		matrix:      views.NewMatrixView(store),
		archive:     views.NewArchiveView(store),
	}
}

func (a *App) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: a.store.LoadProjects()}
	}
}

func (a *App) show(v View) tea.Cmd {
	a.currentView = v

	var cmd tea.Cmd
	switch v {
	case ViewProjects:
		cmd = a.projectList.Init()
	case ViewMatrix:
		cmd = a.matrix.Init()
	case ViewArchive:
		cmd = a.archive.Init()
	}

	return tea.Batch(
		cmd,
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// leave a line for the status bar
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-1, 0)}
		a.projectList.Update(inner)
		a.matrix.Update(inner)
		a.archive.Update(inner)
		return a, nil

	case loadedMsg:
		a.loaded = true
		if msg.err == nil && a.store.Snapshot().CurrentProject != nil {
			return a, a.show(ViewMatrix)
		}
		return a, a.show(ViewProjects)

	case PurgedMsg:
		if msg.Err == nil && msg.Count > 0 {
			a.status.Notify(state.Notification{
				Level:   state.LevelInfo,
				Message: fmt.Sprintf("Cleared %d completed tasks", msg.Count),
			})
		}
		a.projectList.Refresh()
		a.matrix.Refresh()
		a.archive.Refresh()
		return a, nil

	case views.OpenMatrix:
		return a, a.show(ViewMatrix)

	case views.ShowProjects:
		return a, a.show(ViewProjects)

	case views.ShowArchive:
		return a, a.show(ViewArchive)

	case tea.KeyMsg:
		a.status.clear()
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewMatrix:
		_, cmd = a.matrix.Update(msg)
	case ViewArchive:
		_, cmd = a.archive.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	if !a.loaded {
		return a.styles.TitleMuted.Render("Loading...")
	}

	var content string
	switch a.currentView {
	case ViewMatrix:
		content = a.matrix.View()
	case ViewArchive:
		content = a.archive.View()
	default:
		content = a.projectList.View()
	}
	return content + "\n" + a.renderStatus()
}

func (a *App) renderStatus() string {
	n, ok := a.status.get()
	if !ok {
		return ""
	}
	if n.Level == state.LevelError {
		return a.styles.StatusError.Render(n.Message)
	}
	return a.styles.StatusBar.Render(n.Message)
}
