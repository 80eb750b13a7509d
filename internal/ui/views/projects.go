package views

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/state"
	"github.com/tgienger/eisen/internal/ui/keys"
	"github.com/tgienger/eisen/internal/ui/styles"
)

type projectItem struct {
	project models.Project
	current bool
	loc     *time.Location
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return "created " + i.project.CreatedAt.In(i.loc).Format("Jan 2, 2006") }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	name := p.Title()
	if p.current {
		name = "● " + name
	}
	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(truncate(name, width-4)), descStyle.Render(p.Description()))
}

type projectMode int

const (
	projectBrowsing projectMode = iota
	projectCreating
	projectRenaming
	projectConfirmDelete
)

// ProjectListView lists the active projects
type ProjectListView struct {
	store    *state.Store
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int

	mode       projectMode
	name       textinput.Model
	targetID   string
	targetName string

	// Help popup (shown with ?)
	showHelpPopup bool
}

func NewProjectListView(store *state.Store) *ProjectListView {
	s := styles.NewStyles()

	name := textinput.New()
	name.Placeholder = "Project name"
	name.CharLimit = 100

	delegate := &projectDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	v := &ProjectListView{
		store:    store,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		name:     name,
	}
	v.Refresh()
	return v
}

func (v *ProjectListView) Init() tea.Cmd {
	v.Refresh()
	return nil
}

// Refresh rebuilds the list from the store, keeping the cursor on the
// same project where possible
func (v *ProjectListView) Refresh() {
	v.refreshTo("")
}

// refreshTo rebuilds the list and moves the cursor to selectedID
func (v *ProjectListView) refreshTo(selectedID string) {
	snap := v.store.Snapshot()

	if selectedID == "" {
		if item, ok := v.list.SelectedItem().(projectItem); ok {
			selectedID = item.project.ID
		} else if snap.CurrentProject != nil {
			selectedID = snap.CurrentProject.ID
		}
	}

	items := make([]list.Item, len(snap.Projects))
	index := 0
	for i, p := range snap.Projects {
		current := snap.CurrentProject != nil && snap.CurrentProject.ID == p.ID
		items[i] = projectItem{project: p, current: current, loc: v.store.Location()}
		if p.ID == selectedID {
			index = i
		}
	}
	v.list.SetItems(items)
	if len(items) > 0 {
		v.list.Select(index)
	}
}

func (v *ProjectListView) selected() (models.Project, bool) {
	item, ok := v.list.SelectedItem().(projectItem)
	return item.project, ok
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-4)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		switch v.mode {
		case projectConfirmDelete:
			return v.updateConfirmDelete(msg)
		case projectCreating, projectRenaming:
			return v.updateForm(msg)
		}
		return v.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.store.Snapshot().CurrentProject != nil {
			return v, func() tea.Msg { return OpenMatrix{} }
		}
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.mode = projectCreating
		v.name.Reset()
		v.name.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.ShowArchive):
		return v, func() tea.Msg { return ShowArchive{} }

	case key.Matches(msg, v.keys.Undo):
		if ok, _ := v.store.Undo(); ok {
			v.Refresh()
		}
		return v, nil
	}

	p, ok := v.selected()
	if !ok {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Enter):
		if err := v.store.SelectProject(p.ID); err != nil {
			return v, nil
		}
		v.Refresh()
		return v, func() tea.Msg { return OpenMatrix{} }

	case key.Matches(msg, v.keys.Edit):
		v.mode = projectRenaming
		v.targetID = p.ID
		v.name.SetValue(p.Name)
		v.name.CursorEnd()
		v.name.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		v.mode = projectConfirmDelete
		v.targetID = p.ID
		v.targetName = p.Name
		return v, nil

	case key.Matches(msg, v.keys.Archive):
		v.store.ArchiveProject(p.ID)
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.MoveUp):
		v.store.MoveProject(p.ID, -1)
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.MoveDown):
		v.store.MoveProject(p.ID, 1)
		v.Refresh()
		return v, nil
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = projectBrowsing
		v.store.DeleteProject(v.targetID)
		v.Refresh()
		return v, nil
	case "n", "N", "esc":
		v.mode = projectBrowsing
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = projectBrowsing
		v.name.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		return v, v.submitForm()
	}

	var cmd tea.Cmd
	v.name, cmd = v.name.Update(msg)
	return v, cmd
}

func (v *ProjectListView) submitForm() tea.Cmd {
	if v.mode == projectRenaming {
		if err := v.store.RenameProject(v.targetID, v.name.Value()); err != nil {
			return nil
		}
		v.mode = projectBrowsing
		v.name.Blur()
		v.Refresh()
		return nil
	}

	p, err := v.store.CreateProject(v.name.Value())
	if err != nil {
		return nil
	}
	v.mode = projectBrowsing
	v.name.Blur()
	v.refreshTo(p.ID)
	return func() tea.Msg { return OpenMatrix{} }
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height, v.bindings()...)
	}

	switch v.mode {
	case projectConfirmDelete:
		return confirmBox(v.styles, v.width, v.height, "Delete Project?",
			fmt.Sprintf("%q and all of its tasks will be deleted (u undoes)", v.targetName))
	case projectCreating:
		return v.renderForm("New Project", " Create ")
	case projectRenaming:
		return v.renderForm("Rename Project", " Save ")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) bindings() []key.Binding {
	k := v.keys
	return []key.Binding{k.Enter, k.New, k.Edit, k.Archive, k.Delete, k.MoveUp, k.MoveDown, k.Undo, k.ShowArchive, k.Quit}
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderForm(title, button string) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		"Name:",
		s.InputFocused.Width(inputWidth).Render(v.name.View()),
		"",
		s.ButtonPrimary.Render(button),
		"",
		s.TitleMuted.Render("Enter: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 70 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	k := v.keys
	return helpLine(v.styles, k.Enter, k.New, k.Edit, k.Archive, k.Delete, k.ShowArchive, k.Help, k.Quit)
}
