package state

import (
	"log/slog"
	"strings"

	"github.com/tgienger/eisen/internal/models"
)

// CreateTask stores a new task built from draft. ID and CreatedAt are
// assigned here; an empty ProjectID means the current project.
func (s *Store) CreateTask(draft models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := draft
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, s.report("create task", invalid(ErrEmptyTitle))
	}
	if t.ProjectID == "" {
		t.ProjectID = s.currentID()
	}
	if t.ProjectID == "" {
		return nil, s.report("create task", invalid(ErrNoProject))
	}
	if t.Quadrant == "" {
		t.Quadrant = models.UrgentImportant
	}
	t.ID = s.newID()
	t.CreatedAt = s.now().UTC()

	if err := s.saveTaskLocked(t); err != nil {
		return nil, s.report("create task", err)
	}
	return &t, nil
}

// UpdateTask replaces a task with t
func (s *Store) UpdateTask(t models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report("update task", s.saveTaskLocked(t))
}

// saveTaskLocked writes t and patches the cached list: the task is dropped
// when it left the current project or was archived. While a search is
// active the results are fetched again so they keep matching the query.
func (s *Store) saveTaskLocked(t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid(ErrEmptyTitle)
	}
	if err := s.storage.SaveTask(t); err != nil {
		return err
	}

	if s.state.SearchQuery != "" {
		err := s.searchLocked(s.state.SearchQuery)
		if err == nil {
			return nil
		}
		s.log.Warn("refresh search results", slog.String("task", t.ID), slog.Any("error", err))
	}

	listed := findTask(s.state.Tasks, t.ID) >= 0
	belongs := s.isCurrent(t.ProjectID) && !t.Archived
	switch {
	case listed && belongs:
		s.dispatch(UpdateTask{Task: t})
	case listed:
		s.dispatch(DeleteTask{ID: t.ID})
	case belongs && s.state.SearchQuery == "":
		s.dispatch(AddTask{Task: t})
	}
	return nil
}

// ToggleComplete flips a task's completed flag. Completing a recurring
// task stores its next occurrence.
func (s *Store) ToggleComplete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookupTask(id)
	if err != nil {
		return s.report("toggle task", err)
	}
	t.Completed = !t.Completed
	if err := s.saveTaskLocked(t); err != nil {
		return s.report("toggle task", err)
	}

	if !t.Completed || !t.IsRecurring || t.RecurrencePattern == nil {
		return nil
	}
	next, err := s.storage.CreateRecurringTask(t, s.today())
	if err != nil {
		return s.report("create next occurrence", err)
	}
	if s.isCurrent(next.ProjectID) {
		s.dispatch(AddTask{Task: *next})
	}
	return nil
}

// MoveTaskToQuadrant reclassifies a task
func (s *Store) MoveTaskToQuadrant(id string, q models.Quadrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookupTask(id)
	if err != nil {
		return s.report("move task", err)
	}
	if t.Quadrant == q {
		return nil
	}
	t.Quadrant = q
	// manual order is per quadrant; let the new quadrant sort it
	t.Order = nil
	return s.report("move task", s.saveTaskLocked(t))
}

// MoveTaskToProject reassigns a task to another project. It leaves the
// cached list when that project is not the current one.
func (s *Store) MoveTaskToProject(id, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookupTask(id)
	if err != nil {
		return s.report("move task", err)
	}
	if t.ProjectID == projectID {
		return nil
	}
	t.ProjectID = projectID
	t.Order = nil
	return s.report("move task", s.saveTaskLocked(t))
}

// ReorderTask moves the task at board position from to position to within
// quadrant q, then persists the quadrant's new order.
func (s *Store) ReorderTask(q models.Quadrant, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := models.TasksInQuadrant(s.state.Tasks, q)
	if from < 0 || from >= len(tasks) || to < 0 || to >= len(tasks) || from == to {
		return nil
	}
	if !models.CanReorder(tasks[from], tasks[to]) {
		return s.report("reorder tasks", invalid(ErrCannotReorder))
	}

	for i, t := range moveItem(tasks, from, to) {
		t.Order = models.IntPtr(i)
		if err := s.saveTaskLocked(t); err != nil {
			return s.report("reorder tasks", err)
		}
	}
	return nil
}

// ArchiveTask moves a task to the archive
func (s *Store) ArchiveTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.ArchiveTask(id); err != nil {
		return s.report("archive task", err)
	}
	s.dispatch(DeleteTask{ID: id})
	return nil
}

// RestoreTask brings a task back from the archive
func (s *Store) RestoreTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.RestoreTask(id); err != nil {
		return s.report("restore task", err)
	}
	t, err := s.storage.GetTask(id)
	if err != nil {
		return s.report("restore task", err)
	}
	if s.isCurrent(t.ProjectID) && findTask(s.state.Tasks, id) < 0 {
		s.dispatch(AddTask{Task: *t})
	}
	return nil
}

// DeleteTask removes a task. The deletion can be undone with Undo, which
// recreates it under a new id.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookupTask(id)
	if err != nil {
		return s.report("delete task", err)
	}
	if err := s.storage.DeleteTask(id); err != nil {
		return s.report("delete task", err)
	}
	s.undo.push(deletion{tasks: []models.Task{t}})
	s.dispatch(DeleteTask{ID: id})
	return nil
}

// PermanentDeleteTask removes an archived task. It is not undoable.
func (s *Store) PermanentDeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.PermanentDeleteTask(id); err != nil {
		return s.report("delete task", err)
	}
	s.dispatch(DeleteTask{ID: id})
	return nil
}

// Search replaces the task list with the current project's matches for
// query. An empty query restores the full list.
func (s *Store) Search(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.TrimSpace(query)
	if q == "" {
		s.dispatch(SetSearchQuery{Query: ""})
		return s.report("load tasks", s.refreshTasksLocked())
	}

	return s.report("search", s.searchLocked(query))
}

func (s *Store) searchLocked(query string) error {
	tasks, err := s.storage.SearchTasks(strings.TrimSpace(query), s.currentID())
	if err != nil {
		return err
	}
	s.dispatch(SetSearchQuery{Query: query}, SetTasks{Tasks: tasks})
	return nil
}

// PurgeCompleted deletes every completed task outside the archive and
// refreshes the list
func (s *Store) PurgeCompleted() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.storage.DeleteCompletedTasks()
	if err != nil {
		return 0, s.report("purge completed", err)
	}
	s.dispatch(SetTasks{Tasks: filter(cloneTasks(s.state.Tasks), func(t models.Task) bool { return !t.Completed })})
	return n, nil
}

// Undo recreates the most recent deletion. Recreated records get new ids;
// a project's tasks are recreated under the new project. Returns false when
// there is nothing to undo.
func (s *Store) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.undo.pop()
	if !ok {
		return false, nil
	}
	if err := s.recreateLocked(d); err != nil {
		s.undo.push(d)
		return false, s.report("undo", err)
	}
	s.info("Restored")
	return true, nil
}

func (s *Store) recreateLocked(d deletion) error {
	now := s.now().UTC()

	var project *models.Project
	if d.project != nil {
		p := *d.project
		p.ID = s.newID()
		p.CreatedAt = now
		p.Archived = false
		if err := s.storage.SaveProject(p); err != nil {
			return err
		}
		project = &p
	}

	recreated := make([]models.Task, 0, len(d.tasks))
	for _, t := range d.tasks {
		t.ID = s.newID()
		t.CreatedAt = now
		t.Archived = false
		if project != nil {
			t.ProjectID = project.ID
		}
		if err := s.storage.SaveTask(t); err != nil {
			return err
		}
		recreated = append(recreated, t)
	}

	if project != nil {
		s.dispatch(AddProject{Project: *project})
		return s.selectLocked(*project)
	}
	for _, t := range recreated {
		if s.isCurrent(t.ProjectID) {
			s.dispatch(AddTask{Task: t})
		}
	}
	return nil
}

// ArchiveContents lists what the archive view shows
type ArchiveContents struct {
	Projects []models.Project
	Tasks    []models.Task
}

// Archived loads archived projects and tasks
func (s *Store) Archived() (ArchiveContents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.storage.GetArchivedProjects()
	if err != nil {
		return ArchiveContents{}, s.report("load archive", err)
	}
	tasks, err := s.storage.GetArchivedTasks()
	if err != nil {
		return ArchiveContents{}, s.report("load archive", err)
	}
	return ArchiveContents{Projects: projects, Tasks: tasks}, nil
}
