package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/state"
	"github.com/tgienger/eisen/internal/ui/keys"
	"github.com/tgienger/eisen/internal/ui/styles"
)

type matrixMode int

const (
	matrixBrowsing matrixMode = iota
	matrixEditing
	matrixSearching
	matrixPicking
	matrixConfirmDelete
)

// Form fields of the task editor, in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldDate
	fieldTime
	fieldRepeat
	fieldCount
)

// repeatChoices are the recurrence options offered by the editor; the
// first means no recurrence
var repeatChoices = []models.RecurrenceKind{
	"",
	models.RecurDaily,
	models.RecurWeekly,
	models.RecurWeekdays,
	models.RecurWeekends,
	models.RecurCustom,
}

// MatrixView shows the selected project's tasks in the four quadrants
type MatrixView struct {
	store  *state.Store
	styles *styles.Styles
	keys   keys.KeyMap
	now    func() time.Time

	width  int
	height int

	mode   matrixMode
	focus  int // index into models.Quadrants
	cursor [4]int

	// Task editor
	editing    *models.Task // nil while creating
	inputs     [fieldRepeat]textinput.Model
	repeat     int // index into repeatChoices
	editField  int
	formErr    string
	search     textinput.Model
	pickCursor int

	deleteTargetID   string
	deleteTargetName string

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewMatrixView creates the matrix view
func NewMatrixView(store *state.Store) *MatrixView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	var inputs [fieldRepeat]textinput.Model
	for i := range inputs {
		inputs[i] = textinput.New()
	}
	inputs[fieldTitle].Placeholder = "Task title"
	inputs[fieldTitle].CharLimit = 200
	inputs[fieldDesc].Placeholder = "Description (optional)"
	inputs[fieldDesc].CharLimit = 1000
	inputs[fieldDate].Placeholder = "YYYY-MM-DD"
	inputs[fieldDate].CharLimit = 10
	inputs[fieldTime].Placeholder = "HH:MM"
	inputs[fieldTime].CharLimit = 5

	return &MatrixView{
		store:  store,
		styles: s,
		keys:   keys.DefaultKeyMap(),
		now:    time.Now,
		search: search,
		inputs: inputs,
	}
}

func (v *MatrixView) Init() tea.Cmd {
	v.mode = matrixBrowsing
	v.search.SetValue(v.store.Snapshot().SearchQuery)
	v.Refresh()
	return nil
}

// Refresh keeps the cursors inside the current task lists
func (v *MatrixView) Refresh() {
	snap := v.store.Snapshot()
	for i, q := range models.Quadrants {
		n := len(models.TasksInQuadrant(snap.Tasks, q))
		v.cursor[i] = clamp(v.cursor[i], 0, max(n-1, 0))
	}
}

func (v *MatrixView) board(q models.Quadrant) []models.Task {
	return models.TasksInQuadrant(v.store.Snapshot().Tasks, q)
}

func (v *MatrixView) quadrant() models.Quadrant {
	return models.Quadrants[v.focus]
}

// selected returns the task under the cursor of the focused quadrant
func (v *MatrixView) selected() (models.Task, bool) {
	tasks := v.board(v.quadrant())
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	return tasks[clamp(v.cursor[v.focus], 0, len(tasks)-1)], true
}

func (v *MatrixView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		for i := range v.inputs {
			v.inputs[i].Width = inputWidth
		}
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		switch v.mode {
		case matrixConfirmDelete:
			return v.updateConfirmDelete(msg)
		case matrixEditing:
			return v.updateEditing(msg)
		case matrixSearching:
			return v.updateSearching(msg)
		case matrixPicking:
			return v.updatePicking(msg)
		}
		return v.updateBrowsing(msg)
	}

	return v, nil
}

func (v *MatrixView) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.store.Snapshot().SearchQuery != "" {
			v.search.Reset()
			v.store.Search("")
			v.Refresh()
			return v, nil
		}
		return v, func() tea.Msg { return ShowProjects{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Right):
		v.focus = (v.focus + 1) % len(models.Quadrants)
		return v, nil

	case msg.String() == "shift+tab", key.Matches(msg, v.keys.Left):
		v.focus = (v.focus + len(models.Quadrants) - 1) % len(models.Quadrants)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor[v.focus] > 0 {
			v.cursor[v.focus]--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor[v.focus] < len(v.board(v.quadrant()))-1 {
			v.cursor[v.focus]++
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startEdit(nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Search):
		v.mode = matrixSearching
		v.search.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Undo):
		v.store.Undo()
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.ShowArchive):
		return v, func() tea.Msg { return ShowArchive{} }
	}

	task, ok := v.selected()
	if !ok {
		return v, nil
	}

	for i, b := range v.keys.Quadrant {
		if key.Matches(msg, b) {
			v.store.MoveTaskToQuadrant(task.ID, models.Quadrants[i])
			v.Refresh()
			return v, nil
		}
	}

	switch {
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Edit):
		v.startEdit(&task)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Toggle):
		v.store.ToggleComplete(task.ID)
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.MoveUp):
		if err := v.store.ReorderTask(v.quadrant(), v.cursor[v.focus], v.cursor[v.focus]-1); err == nil && v.cursor[v.focus] > 0 {
			v.cursor[v.focus]--
		}
		return v, nil

	case key.Matches(msg, v.keys.MoveDown):
		n := len(v.board(v.quadrant()))
		if err := v.store.ReorderTask(v.quadrant(), v.cursor[v.focus], v.cursor[v.focus]+1); err == nil && v.cursor[v.focus] < n-1 {
			v.cursor[v.focus]++
		}
		return v, nil

	case key.Matches(msg, v.keys.Move):
		if len(v.otherProjects()) > 0 {
			v.mode = matrixPicking
			v.pickCursor = 0
		}
		return v, nil

	case key.Matches(msg, v.keys.Archive):
		v.store.ArchiveTask(task.ID)
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		v.mode = matrixConfirmDelete
		v.deleteTargetID = task.ID
		v.deleteTargetName = task.Title
		return v, nil
	}

	return v, nil
}

func (v *MatrixView) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.search.Reset()
		v.search.Blur()
		v.mode = matrixBrowsing
		v.store.Search("")
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.search.Blur()
		v.mode = matrixBrowsing
		return v, nil
	}

	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	v.store.Search(v.search.Value())
	v.Refresh()
	return v, cmd
}

func (v *MatrixView) otherProjects() []models.Project {
	snap := v.store.Snapshot()
	var out []models.Project
	for _, p := range snap.Projects {
		if snap.CurrentProject == nil || p.ID != snap.CurrentProject.ID {
			out = append(out, p)
		}
	}
	return out
}

func (v *MatrixView) updatePicking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	projects := v.otherProjects()
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = matrixBrowsing
	case key.Matches(msg, v.keys.Up):
		if v.pickCursor > 0 {
			v.pickCursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.pickCursor < len(projects)-1 {
			v.pickCursor++
		}
	case key.Matches(msg, v.keys.Enter):
		v.mode = matrixBrowsing
		task, ok := v.selected()
		if ok && v.pickCursor < len(projects) {
			v.store.MoveTaskToProject(task.ID, projects[v.pickCursor].ID)
			v.Refresh()
		}
	}
	return v, nil
}

func (v *MatrixView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = matrixBrowsing
		v.store.DeleteTask(v.deleteTargetID)
		v.Refresh()
		return v, nil
	case "n", "N", "esc":
		v.mode = matrixBrowsing
		return v, nil
	}
	return v, nil
}

// startEdit opens the editor for task, or for a new task in the focused
// quadrant when task is nil
func (v *MatrixView) startEdit(task *models.Task) {
	v.mode = matrixEditing
	v.editing = task
	v.editField = fieldTitle
	v.formErr = ""
	v.repeat = 0
	for i := range v.inputs {
		v.inputs[i].Reset()
	}

	if task != nil {
		v.inputs[fieldTitle].SetValue(task.Title)
		v.inputs[fieldDesc].SetValue(task.Description)
		if task.Deadline != nil {
			v.inputs[fieldDate].SetValue(task.Deadline.In(v.store.Location()).Format(time.DateOnly))
			v.inputs[fieldTime].SetValue(task.DeadlineTime)
		}
		if task.IsRecurring && task.RecurrencePattern != nil {
			for i, kind := range repeatChoices {
				if kind == task.RecurrencePattern.Type {
					v.repeat = i
				}
			}
		}
	}
	v.updateEditFocus()
}

func (v *MatrixView) updateEditFocus() {
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
	if v.editField < fieldRepeat {
		v.inputs[v.editField].Focus()
	}
}

func (v *MatrixView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = matrixBrowsing
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editField = (v.editField + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editField = (v.editField + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editField == fieldRepeat {
			return v, v.saveTask()
		}
		v.editField++
		v.updateEditFocus()
		return v, nil
	}

	if v.editField == fieldRepeat {
		switch {
		case key.Matches(msg, v.keys.Left):
			v.cycleRepeat(-1)
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Toggle):
			v.cycleRepeat(1)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.inputs[v.editField], cmd = v.inputs[v.editField].Update(msg)
	return v, cmd
}

// cycleRepeat steps through repeatChoices. Custom weekday patterns can't be
// built in the editor, so custom is only offered to tasks that already have one.
func (v *MatrixView) cycleRepeat(step int) {
	n := len(repeatChoices)
	for {
		v.repeat = (v.repeat + step + n) % n
		if repeatChoices[v.repeat] != models.RecurCustom || v.hasCustomPattern() {
			return
		}
	}
}

func (v *MatrixView) hasCustomPattern() bool {
	return v.editing != nil && v.editing.RecurrencePattern != nil &&
		v.editing.RecurrencePattern.Type == models.RecurCustom
}

func (v *MatrixView) saveTask() tea.Cmd {
	deadline, clock, err := parseDeadline(v.inputs[fieldDate].Value(), v.inputs[fieldTime].Value(), v.store.Location())
	if err != nil {
		v.formErr = err.Error()
		return nil
	}

	var task models.Task
	if v.editing != nil {
		task = *v.editing
	} else {
		task.Quadrant = v.quadrant()
	}
	task.Title = strings.TrimSpace(v.inputs[fieldTitle].Value())
	task.Description = strings.TrimSpace(v.inputs[fieldDesc].Value())
	task.Deadline = deadline
	task.DeadlineTime = clock

	if kind := repeatChoices[v.repeat]; kind != "" {
		task.IsRecurring = true
		if task.RecurrencePattern == nil || task.RecurrencePattern.Type != kind {
			task.RecurrencePattern = &models.RecurrencePattern{Type: kind, Interval: 1}
		}
	} else {
		task.IsRecurring = false
		task.RecurrencePattern = nil
	}

	if v.editing != nil {
		err = v.store.UpdateTask(task)
	} else {
		_, err = v.store.CreateTask(task)
	}
	if err != nil {
		v.formErr = err.Error()
		return nil
	}

	v.mode = matrixBrowsing
	v.editing = nil
	v.updateEditFocus()
	v.Refresh()
	return nil
}

// View renders the view
func (v *MatrixView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height, v.bindings()...)
	}

	switch v.mode {
	case matrixConfirmDelete:
		return confirmBox(v.styles, v.width, v.height, "Delete Task?",
			fmt.Sprintf("%q will be deleted (u undoes)", v.deleteTargetName))
	case matrixEditing:
		return v.renderEditForm()
	case matrixPicking:
		return v.renderPicker()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		v.renderGrid(),
		v.renderHelp(),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *MatrixView) bindings() []key.Binding {
	k := v.keys
	return []key.Binding{
		k.Tab, k.Up, k.Down, k.New, k.Edit, k.Toggle,
		k.Quadrant[0], k.Quadrant[1], k.Quadrant[2], k.Quadrant[3],
		k.MoveUp, k.MoveDown, k.Move, k.Archive, k.Delete,
		k.Search, k.Undo, k.ShowArchive, k.Back, k.Quit,
	}
}

func (v *MatrixView) renderHeader() string {
	s := v.styles
	snap := v.store.Snapshot()

	name := "No project"
	if snap.CurrentProject != nil {
		name = snap.CurrentProject.Name
	}
	header := s.Title.Render(name) + s.TitleMuted.Render(fmt.Sprintf("  %d tasks", len(snap.Tasks)))

	if v.mode == matrixSearching || snap.SearchQuery != "" {
		style := s.SearchBar
		if v.mode == matrixSearching {
			style = style.BorderForeground(styles.Current.BorderFocus)
		}
		width := clamp(styles.ContentWidth(v.width)-4, 20, 60)
		return lipgloss.JoinVertical(lipgloss.Left, header, style.Width(width).Render(s.SearchInput.Render(v.search.View())))
	}
	return s.TitleBar.Render(header)
}

func (v *MatrixView) renderGrid() string {
	contentWidth := styles.ContentWidth(v.width)
	// two boxes per row, each with a border and padding
	boxWidth := max(contentWidth/2-4, 16)
	boxHeight := max((v.height-8)/2-2, 3)

	cells := make([]string, len(models.Quadrants))
	for i, q := range models.Quadrants {
		cells[i] = v.renderQuadrant(i, q, boxWidth, boxHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cells[0], cells[1]),
		lipgloss.JoinHorizontal(lipgloss.Top, cells[2], cells[3]),
	)
}

func (v *MatrixView) renderQuadrant(index int, q models.Quadrant, width, height int) string {
	s := v.styles
	focused := index == v.focus

	box := s.Quadrant
	if focused {
		box = s.QuadrantFocused.BorderForeground(styles.QuadrantColor(q))
	}

	title := lipgloss.NewStyle().Foreground(styles.QuadrantColor(q)).Bold(true).
		Render(fmt.Sprintf("%d %s", index+1, q.Label()))
	rows := []string{truncate(title, width)}

	tasks := v.board(q)
	visible := height - 1
	start := 0
	if focused && v.cursor[index] >= visible {
		start = v.cursor[index] - visible + 1
	}

	if len(tasks) == 0 {
		rows = append(rows, s.TitleMuted.Render("empty"))
	}
	for i := start; i < len(tasks) && i < start+visible; i++ {
		rows = append(rows, v.renderTaskItem(tasks[i], focused && i == v.cursor[index], width))
	}

	return box.Width(width).Height(height).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *MatrixView) renderTaskItem(task models.Task, selected bool, width int) string {
	s := v.styles

	check := "[ ] "
	if task.Completed {
		check = "[x] "
	}
	line := check + task.Title
	if meta := taskMeta(task, v.store.Location()); meta != "" {
		line += "  " + meta
	}
	line = truncate(line, width-2)

	switch {
	case selected:
		return s.TaskSelected.Render(line)
	case task.Completed:
		return s.TaskItem.Inherit(s.TaskDone).Render(line)
	case task.IsOverdue(v.now()):
		return s.TaskItem.Inherit(s.TaskOverdue).Render(line)
	case task.IsRecurring:
		return s.TaskItem.Inherit(s.TaskRecurs).Render(line)
	}
	return s.TaskItem.Inherit(s.TaskTitle).Render(line)
}

func (v *MatrixView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	title := "New Task · " + v.quadrant().Label()
	if v.editing != nil {
		title = "Edit Task"
	}

	field := func(i int, label string) string {
		style := s.Input
		if v.editField == i {
			style = s.InputFocused
		}
		return lipgloss.JoinVertical(lipgloss.Left, label, style.Width(inputWidth).Render(v.inputs[i].View()))
	}

	repeatStyle := s.Button
	if v.editField == fieldRepeat {
		repeatStyle = s.ButtonFocused
	}
	repeat := "never"
	if kind := repeatChoices[v.repeat]; kind != "" {
		repeat = string(kind)
	}

	rows := []string{
		s.Title.Render(title),
		"",
		field(fieldTitle, "Title:"),
		field(fieldDesc, "Description:"),
		lipgloss.JoinHorizontal(lipgloss.Top, field(fieldDate, "Deadline:"), "  ", field(fieldTime, "Time:")),
		"Repeat:",
		repeatStyle.Render("‹ " + repeat + " ›"),
	}
	if v.formErr != "" {
		rows = append(rows, "", s.StatusError.Render(v.formErr))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • ←/→: repeat • Ctrl+S: save • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *MatrixView) renderPicker() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	rows := []string{s.Title.Render("Move to project"), ""}
	for i, p := range v.otherProjects() {
		if i == v.pickCursor {
			rows = append(rows, s.ListSelected.Render(p.Name))
		} else {
			rows = append(rows, s.ListItem.Render(p.Name))
		}
	}
	rows = append(rows, "", s.TitleMuted.Render("↵: move • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *MatrixView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 90 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	k := v.keys
	return helpLine(v.styles, k.New, k.Toggle, k.Edit, k.Move, k.Search, k.Undo, k.Back, k.Help)
}
