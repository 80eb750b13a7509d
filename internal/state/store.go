package state

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/eisen/internal/models"
)

const lastProjectKey = "last_project_id"

// Storage is the persistence the store reads from and writes to.
// *db.DB implements it.
type Storage interface {
	SaveProject(p models.Project) error
	GetProject(id string) (*models.Project, error)
	GetAllProjects() ([]models.Project, error)
	GetArchivedProjects() ([]models.Project, error)
	ArchiveProject(id string) error
	RestoreProject(id string) error
	DeleteProject(id string) error
	PermanentDeleteProject(id string) error
	UpdateProjectOrder(id string, order int) error

	SaveTask(t models.Task) error
	GetTask(id string) (*models.Task, error)
	GetTasksByProject(projectID string) ([]models.Task, error)
	GetArchivedTasks() ([]models.Task, error)
	ArchiveTask(id string) error
	RestoreTask(id string) error
	DeleteTask(id string) error
	PermanentDeleteTask(id string) error
	SearchTasks(query, projectID string) ([]models.Task, error)
	CreateRecurringTask(original models.Task, ref time.Time) (*models.Task, error)
	DeleteCompletedTasks() (int64, error)

	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Store owns the application state. Every action writes through Storage
// first and only then reduces the in-memory state, so a failed write
// leaves the state as it was.
type Store struct {
	mu       sync.Mutex
	state    State
	storage  Storage
	notifier Notifier
	undo     *undoBuffer
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
	loc      *time.Location
}

// Option configures a Store
type Option func(*Store)

// WithNotifier sets where user-visible messages go
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithUndoDepth bounds the undo buffer
func WithUndoDepth(n int) Option {
	return func(s *Store) { s.undo = newUndoBuffer(n) }
}

// WithLocation sets the timezone deadlines are read and shown in.
// Recurrences are computed from "today" in this zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// NewStore creates a store over storage. Call LoadProjects to populate it.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		notifier: discardNotifier{},
		undo:     newUndoBuffer(DefaultUndoDepth),
		log:      slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
		loc:      time.Local,
		state:    State{Loading: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Location returns the timezone deadlines are read and shown in
func (s *Store) Location() *time.Location {
	return s.loc
}

// UndoDepth returns how many deletions can currently be undone
func (s *Store) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.len()
}

func (s *Store) dispatch(actions ...Action) {
	for _, a := range actions {
		s.state = Reduce(s.state, a)
	}
}

func (s *Store) currentID() string {
	if s.state.CurrentProject == nil {
		return ""
	}
	return s.state.CurrentProject.ID
}

func (s *Store) isCurrent(projectID string) bool {
	return projectID != "" && projectID == s.currentID()
}

// LoadProjects loads the project list. When nothing is selected yet it
// selects the last used project, or the first one.
func (s *Store) LoadProjects() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProjectsLocked()
}

func (s *Store) loadProjectsLocked() error {
	s.dispatch(SetLoading{Loading: true})
	defer s.dispatch(SetLoading{Loading: false})

	projects, err := s.storage.GetAllProjects()
	if err != nil {
		return s.report("load projects", err)
	}
	s.dispatch(SetProjects{Projects: projects})

	if cur := s.state.CurrentProject; cur != nil {
		if i := findProject(projects, cur.ID); i >= 0 {
			s.dispatch(SelectProject{Project: &projects[i]})
			return s.report("load tasks", s.refreshTasksLocked())
		}
	}
	s.dispatch(SelectProject{Project: nil}, SetTasks{Tasks: nil})
	if len(projects) == 0 {
		return nil
	}

	target := projects[0]
	if last, err := s.storage.GetSetting(lastProjectKey); err == nil && last != "" {
		if i := findProject(projects, last); i >= 0 {
			target = projects[i]
		}
	}
	return s.report("select project", s.selectLocked(target))
}

// Reload refreshes projects and the current task list from storage
func (s *Store) Reload() error {
	return s.LoadProjects()
}

func (s *Store) selectLocked(p models.Project) error {
	tasks, err := s.storage.GetTasksByProject(p.ID)
	if err != nil {
		return err
	}
	s.dispatch(SelectProject{Project: &p}, SetTasks{Tasks: tasks}, SetSearchQuery{Query: ""})

	if err := s.storage.SetSetting(lastProjectKey, p.ID); err != nil {
		s.log.Warn("could not remember selected project", slog.Any("error", err))
	}
	return nil
}

// refreshTasksLocked reloads the current task list, honouring an active search
func (s *Store) refreshTasksLocked() error {
	id := s.currentID()
	if id == "" {
		s.dispatch(SetTasks{Tasks: nil})
		return nil
	}

	var (
		tasks []models.Task
		err   error
	)
	if q := strings.TrimSpace(s.state.SearchQuery); q != "" {
		tasks, err = s.storage.SearchTasks(q, id)
	} else {
		tasks, err = s.storage.GetTasksByProject(id)
	}
	if err != nil {
		return err
	}
	s.dispatch(SetTasks{Tasks: tasks})
	return nil
}

// selectFallbackLocked picks the first listed project after the current
// one was removed from the list
func (s *Store) selectFallbackLocked() error {
	if s.state.CurrentProject != nil {
		return nil
	}
	if len(s.state.Projects) == 0 {
		return nil
	}
	return s.selectLocked(s.state.Projects[0])
}

func findProject(projects []models.Project, id string) int {
	for i, p := range projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func findTask(tasks []models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// lookupTask prefers the cached copy and falls back to storage
func (s *Store) lookupTask(id string) (models.Task, error) {
	if i := findTask(s.state.Tasks, id); i >= 0 {
		return s.state.Tasks[i], nil
	}
	t, err := s.storage.GetTask(id)
	if err != nil {
		return models.Task{}, err
	}
	return *t, nil
}

func (s *Store) lookupProject(id string) (models.Project, error) {
	if i := findProject(s.state.Projects, id); i >= 0 {
		return s.state.Projects[i], nil
	}
	p, err := s.storage.GetProject(id)
	if err != nil {
		return models.Project{}, err
	}
	return *p, nil
}

// today is the reference time recurrences are computed from
func (s *Store) today() time.Time {
	return s.now().In(s.loc)
}
