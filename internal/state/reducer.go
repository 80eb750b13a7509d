// Package state holds the in-memory view of the loaded projects and the
// tasks of the selected project, kept in step with the persistence layer.
package state

import (
	"time"

	"github.com/tgienger/eisen/internal/models"
)

// State is the snapshot the UI renders from
type State struct {
	Projects       []models.Project
	CurrentProject *models.Project
	Tasks          []models.Task
	SearchQuery    string
	Loading        bool
}

// Action is a discrete state transition. The set is closed: only the types
// in this file implement it.
type Action interface {
	isAction()
}

type (
	SetLoading     struct{ Loading bool }
	SetProjects    struct{ Projects []models.Project }
	SelectProject  struct{ Project *models.Project }
	SetTasks       struct{ Tasks []models.Task }
	AddProject     struct{ Project models.Project }
	UpdateProject  struct{ Project models.Project }
	DeleteProject  struct{ ID string }
	AddTask        struct{ Task models.Task }
	UpdateTask     struct{ Task models.Task }
	DeleteTask     struct{ ID string }
	SetSearchQuery struct{ Query string }
)

func (SetLoading) isAction()     {}
func (SetProjects) isAction()    {}
func (SelectProject) isAction()  {}
func (SetTasks) isAction()       {}
func (AddProject) isAction()     {}
func (UpdateProject) isAction()  {}
func (DeleteProject) isAction()  {}
func (AddTask) isAction()        {}
func (UpdateTask) isAction()     {}
func (DeleteTask) isAction()     {}
func (SetSearchQuery) isAction() {}

// Reduce applies an action and returns the next state. It never mutates
// s; the result shares no slices or pointers with s or with a.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a := a.(type) {
	case SetLoading:
		next.Loading = a.Loading
	case SetProjects:
		next.Projects = cloneProjects(a.Projects)
	case SelectProject:
		next.CurrentProject = cloneProject(a.Project)
	case SetTasks:
		next.Tasks = cloneTasks(a.Tasks)
	case AddProject:
		next.Projects = append(next.Projects, copyProject(a.Project))
	case UpdateProject:
		for i := range next.Projects {
			if next.Projects[i].ID == a.Project.ID {
				next.Projects[i] = copyProject(a.Project)
			}
		}
		if next.CurrentProject != nil && next.CurrentProject.ID == a.Project.ID {
			next.CurrentProject = cloneProject(&a.Project)
		}
	case DeleteProject:
		next.Projects = filter(next.Projects, func(p models.Project) bool { return p.ID != a.ID })
		if next.CurrentProject != nil && next.CurrentProject.ID == a.ID {
			next.CurrentProject = nil
			next.Tasks = nil
		}
	case AddTask:
		next.Tasks = append(next.Tasks, copyTask(a.Task))
	case UpdateTask:
		for i := range next.Tasks {
			if next.Tasks[i].ID == a.Task.ID {
				next.Tasks[i] = copyTask(a.Task)
			}
		}
	case DeleteTask:
		next.Tasks = filter(next.Tasks, func(t models.Task) bool { return t.ID != a.ID })
	case SetSearchQuery:
		next.SearchQuery = a.Query
	}

	return next
}

func (s State) clone() State {
	return State{
		Projects:       cloneProjects(s.Projects),
		CurrentProject: cloneProject(s.CurrentProject),
		Tasks:          cloneTasks(s.Tasks),
		SearchQuery:    s.SearchQuery,
		Loading:        s.Loading,
	}
}

func cloneProject(p *models.Project) *models.Project {
	if p == nil {
		return nil
	}
	c := copyProject(*p)
	return &c
}

func cloneProjects(in []models.Project) []models.Project {
	if in == nil {
		return nil
	}
	out := make([]models.Project, len(in))
	for i, p := range in {
		out[i] = copyProject(p)
	}
	return out
}

func cloneTasks(in []models.Task) []models.Task {
	if in == nil {
		return nil
	}
	out := make([]models.Task, len(in))
	for i, t := range in {
		out[i] = copyTask(t)
	}
	return out
}

func copyProject(p models.Project) models.Project {
	p.Order = copyPtr(p.Order)
	return p
}

func copyTask(t models.Task) models.Task {
	t.Deadline = copyPtr(t.Deadline)
	t.Order = copyPtr(t.Order)
	if t.RecurrencePattern != nil {
		pattern := *t.RecurrencePattern
		if pattern.DaysOfWeek != nil {
			pattern.DaysOfWeek = append(make([]time.Weekday, 0, len(pattern.DaysOfWeek)), pattern.DaysOfWeek...)
		}
		t.RecurrencePattern = &pattern
	}
	return t
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
