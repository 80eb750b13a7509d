package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/state"
	"github.com/tgienger/eisen/internal/ui/keys"
	"github.com/tgienger/eisen/internal/ui/styles"
)

// archiveEntry is one row: a project or a task
type archiveEntry struct {
	project *models.Project
	task    *models.Task
}

func (e archiveEntry) name() string {
	if e.project != nil {
		return e.project.Name
	}
	return e.task.Title
}

// ArchiveView lists archived projects and tasks
type ArchiveView struct {
	store  *state.Store
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	entries  []archiveEntry
	projects map[string]string // project id -> name, for task rows
	cursor   int

	confirmingDelete bool
}

// NewArchiveView creates the archive view
func NewArchiveView(store *state.Store) *ArchiveView {
	return &ArchiveView{
		store:  store,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
}

func (v *ArchiveView) Init() tea.Cmd {
	v.confirmingDelete = false
	v.Refresh()
	return nil
}

// Refresh reloads the archive from storage
func (v *ArchiveView) Refresh() {
	contents, err := v.store.Archived()
	if err != nil {
		return
	}

	v.projects = make(map[string]string)
	for _, p := range v.store.Snapshot().Projects {
		v.projects[p.ID] = p.Name
	}

	v.entries = v.entries[:0]
	for i := range contents.Projects {
		v.projects[contents.Projects[i].ID] = contents.Projects[i].Name
		v.entries = append(v.entries, archiveEntry{project: &contents.Projects[i]})
	}
	for i := range contents.Tasks {
		v.entries = append(v.entries, archiveEntry{task: &contents.Tasks[i]})
	}
	v.cursor = clamp(v.cursor, 0, max(len(v.entries)-1, 0))
}

func (v *ArchiveView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		return v.updateBrowsing(msg)
	}
	return v, nil
}

func (v *ArchiveView) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return ShowProjects{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.entries)-1 {
			v.cursor++
		}

	case key.Matches(msg, v.keys.Restore):
		if len(v.entries) == 0 {
			return v, nil
		}
		e := v.entries[v.cursor]
		if e.project != nil {
			v.store.RestoreProject(e.project.ID)
		} else {
			v.store.RestoreTask(e.task.ID)
		}
		v.Refresh()

	case key.Matches(msg, v.keys.Delete):
		if len(v.entries) > 0 {
			v.confirmingDelete = true
		}
	}
	return v, nil
}

func (v *ArchiveView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		e := v.entries[v.cursor]
		if e.project != nil {
			v.store.PermanentDeleteProject(e.project.ID)
		} else {
			v.store.PermanentDeleteTask(e.task.ID)
		}
		v.Refresh()
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

// View renders the view
func (v *ArchiveView) View() string {
	s := v.styles

	if v.confirmingDelete {
		return confirmBox(s, v.width, v.height, "Delete Forever?",
			fmt.Sprintf("%q cannot be restored afterwards", v.entries[v.cursor].name()))
	}

	width := styles.ContentWidth(v.width) - 8
	rows := []string{s.Title.Render("Archive"), ""}

	if len(v.entries) == 0 {
		rows = append(rows, s.TitleMuted.Render("Nothing archived"))
	}

	section := ""
	for i, e := range v.entries {
		heading, line := "Projects", e.name()
		if e.task != nil {
			heading = "Tasks"
			if name, ok := v.projects[e.task.ProjectID]; ok {
				line += "  · " + name
			}
		}
		if heading != section {
			section = heading
			rows = append(rows, s.TitleMuted.Render(heading))
		}

		if i == v.cursor {
			rows = append(rows, s.ListSelected.Width(width).Render(truncate(line, width-4)))
		} else {
			rows = append(rows, s.ListItem.Width(width).Render(truncate(line, width-4)))
		}
	}

	k := v.keys
	rows = append(rows, helpLine(s, k.Restore, k.Delete, k.Back, k.Quit))

	return styles.CenterView(s.List.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)), v.width, v.height)
}
