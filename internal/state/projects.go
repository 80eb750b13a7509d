package state

import (
	"strings"

	"github.com/tgienger/eisen/internal/models"
)

// CreateProject stores a new project at the end of the list and selects it
func (s *Store) CreateProject(name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, s.report("create project", invalid(ErrEmptyName))
	}

	next := 0
	for _, p := range s.state.Projects {
		if p.Order != nil && *p.Order >= next {
			next = *p.Order + 1
		}
	}
	p := models.Project{
		ID:        s.newID(),
		Name:      name,
		CreatedAt: s.now().UTC(),
		Order:     models.IntPtr(next),
	}
	if err := s.storage.SaveProject(p); err != nil {
		return nil, s.report("create project", err)
	}
	s.dispatch(AddProject{Project: p})

	if err := s.selectLocked(p); err != nil {
		return &p, s.report("select project", err)
	}
	return &p, nil
}

// RenameProject changes a project's name
func (s *Store) RenameProject(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return s.report("rename project", invalid(ErrEmptyName))
	}
	p, err := s.lookupProject(id)
	if err != nil {
		return s.report("rename project", err)
	}
	p.Name = name
	if err := s.storage.SaveProject(p); err != nil {
		return s.report("rename project", err)
	}
	s.dispatch(UpdateProject{Project: p})
	return nil
}

// SelectProject makes id the active project and replaces the task list
// with that project's tasks
func (s *Store) SelectProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookupProject(id)
	if err != nil {
		return s.report("select project", err)
	}
	return s.report("select project", s.selectLocked(p))
}

// ArchiveProject moves a project and its tasks to the archive and drops
// it from the list
func (s *Store) ArchiveProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.ArchiveProject(id); err != nil {
		return s.report("archive project", err)
	}
	s.dispatch(DeleteProject{ID: id})
	return s.report("select project", s.selectFallbackLocked())
}

// RestoreProject brings a project and its tasks back from the archive
func (s *Store) RestoreProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.RestoreProject(id); err != nil {
		return s.report("restore project", err)
	}
	projects, err := s.storage.GetAllProjects()
	if err != nil {
		return s.report("load projects", err)
	}
	s.dispatch(SetProjects{Projects: projects})
	return s.report("select project", s.selectFallbackLocked())
}

// DeleteProject removes a project and all of its tasks. The deletion can
// be undone with Undo, which recreates them under new ids.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookupProject(id)
	if err != nil {
		return s.report("delete project", err)
	}
	tasks, err := s.storage.GetTasksByProject(id)
	if err != nil {
		return s.report("delete project", err)
	}
	if err := s.storage.DeleteProject(id); err != nil {
		return s.report("delete project", err)
	}

	s.undo.push(deletion{project: &p, tasks: tasks})
	s.dispatch(DeleteProject{ID: id})
	return s.report("select project", s.selectFallbackLocked())
}

// PermanentDeleteProject removes an archived project and its tasks.
// It is not undoable.
func (s *Store) PermanentDeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.PermanentDeleteProject(id); err != nil {
		return s.report("delete project", err)
	}
	s.dispatch(DeleteProject{ID: id})
	return s.report("select project", s.selectFallbackLocked())
}

// ReorderProjects persists the given order (index = new order) and reloads
// the list. Projects not named keep their stored order.
func (s *Store) ReorderProjects(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reorderProjectsLocked(ids)
}

func (s *Store) reorderProjectsLocked(ids []string) error {
	for i, id := range ids {
		if err := s.storage.UpdateProjectOrder(id, i); err != nil {
			return s.report("reorder projects", err)
		}
	}
	projects, err := s.storage.GetAllProjects()
	if err != nil {
		return s.report("load projects", err)
	}
	s.dispatch(SetProjects{Projects: projects})
	if cur := s.state.CurrentProject; cur != nil {
		if i := findProject(projects, cur.ID); i >= 0 {
			s.dispatch(SelectProject{Project: &projects[i]})
		}
	}
	return nil
}

// MoveProject shifts a project up (negative offset) or down the list
func (s *Store) MoveProject(id string, offset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := findProject(s.state.Projects, id)
	if from < 0 {
		return nil
	}
	to := from + offset
	if to < 0 || to >= len(s.state.Projects) || to == from {
		return nil
	}

	ids := make([]string, 0, len(s.state.Projects))
	for _, p := range s.state.Projects {
		ids = append(ids, p.ID)
	}
	ids = moveItem(ids, from, to)
	return s.reorderProjectsLocked(ids)
}

// moveItem returns a copy of items with the element at from moved to to
func moveItem[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]T{items[from]}, out[to:]...)...)
	return out
}
