package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/recurrence"
)

const taskColumns = `id, project_id, title, description, completed, created_at,
	deadline, deadline_time, quadrant, archived, sort_order, is_recurring, recurrence`

func scanTask(row scanner) (models.Task, error) {
	var (
		t          models.Task
		createdAt  string
		deadline   sql.NullString
		order      sql.NullInt64
		recurrence sql.NullString
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Completed, &createdAt,
		&deadline, &t.DeadlineTime, &t.Quadrant, &t.Archived, &order, &t.IsRecurring, &recurrence)
	if err != nil {
		return t, err
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return t, fmt.Errorf("task %s: bad created_at: %w", t.ID, err)
	}
	if deadline.Valid {
		d, err := parseTime(deadline.String)
		if err != nil {
			return t, fmt.Errorf("task %s: bad deadline: %w", t.ID, err)
		}
		t.Deadline = &d
	}
	t.Order = intPtr(order)
	if recurrence.Valid {
		var p models.RecurrencePattern
		if err := json.Unmarshal([]byte(recurrence.String), &p); err != nil {
			return t, fmt.Errorf("task %s: bad recurrence: %w", t.ID, err)
		}
		t.RecurrencePattern = &p
	}
	return t, nil
}

func (db *DB) queryTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SaveTask inserts or fully replaces a task
func (db *DB) SaveTask(t models.Task) error {
	if !t.Quadrant.Valid() {
		return fmt.Errorf("save task %s: invalid quadrant %q", t.ID, t.Quadrant)
	}

	var deadline sql.NullString
	if t.Deadline != nil {
		deadline = sql.NullString{String: formatTime(*t.Deadline), Valid: true}
	}
	var pattern sql.NullString
	if t.RecurrencePattern != nil {
		if err := t.RecurrencePattern.Validate(); err != nil {
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
		b, err := json.Marshal(t.RecurrencePattern)
		if err != nil {
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
		pattern = sql.NullString{String: string(b), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			title = excluded.title,
			description = excluded.description,
			completed = excluded.completed,
			created_at = excluded.created_at,
			deadline = excluded.deadline,
			deadline_time = excluded.deadline_time,
			quadrant = excluded.quadrant,
			archived = excluded.archived,
			sort_order = excluded.sort_order,
			is_recurring = excluded.is_recurring,
			recurrence = excluded.recurrence
	`, t.ID, t.ProjectID, t.Title, t.Description, t.Completed, formatTime(t.CreatedAt),
		deadline, t.DeadlineTime, string(t.Quadrant), t.Archived, nullInt(t.Order), t.IsRecurring, pattern)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (db *DB) GetTask(id string) (*models.Task, error) {
	t, err := scanTask(db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTasksByProject returns the non-archived tasks of a project in storage order
func (db *DB) GetTasksByProject(projectID string) ([]models.Task, error) {
	return db.queryTasks(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ? AND archived = 0
		ORDER BY rowid
	`, projectID)
}

// GetArchivedTasks returns every archived task
func (db *DB) GetArchivedTasks() ([]models.Task, error) {
	return db.queryTasks(`
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE archived = 1
		ORDER BY rowid
	`)
}

// AllTasks returns every stored task, archived or not
func (db *DB) AllTasks() ([]models.Task, error) {
	return db.queryTasks("SELECT " + taskColumns + " FROM tasks ORDER BY rowid")
}

// ArchiveTask moves a task to the archive
func (db *DB) ArchiveTask(id string) error {
	_, err := db.Exec("UPDATE tasks SET archived = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("archive task %s: %w", id, err)
	}
	return nil
}

// RestoreTask brings a task back from the archive
func (db *DB) RestoreTask(id string) error {
	_, err := db.Exec("UPDATE tasks SET archived = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("restore task %s: %w", id, err)
	}
	return nil
}

// DeleteTask deletes a task
func (db *DB) DeleteTask(id string) error {
	_, err := db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// PermanentDeleteTask removes a task from the archive for good
func (db *DB) PermanentDeleteTask(id string) error {
	return db.DeleteTask(id)
}

// DeleteCompletedTasks removes all completed tasks outside the archive
func (db *DB) DeleteCompletedTasks() (int64, error) {
	result, err := db.Exec("DELETE FROM tasks WHERE completed = 1 AND archived = 0")
	if err != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", err)
	}
	return result.RowsAffected()
}

// SearchTasks returns non-archived tasks whose title or description contains
// query, ignoring case. An empty projectID searches every project.
func (db *DB) SearchTasks(query, projectID string) ([]models.Task, error) {
	var (
		tasks []models.Task
		err   error
	)
	if projectID != "" {
		tasks, err = db.GetTasksByProject(projectID)
	} else {
		tasks, err = db.queryTasks("SELECT " + taskColumns + " FROM tasks WHERE archived = 0 ORDER BY rowid")
	}
	if err != nil {
		return nil, err
	}

	// LIKE folds ASCII only and treats % and _ as wildcards, so match here
	needle := strings.ToLower(query)
	matches := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// CreateRecurringTask stores the next occurrence of a recurring task.
// The deadline is computed from ref; the clone gets a new id and starts open.
func (db *DB) CreateRecurringTask(original models.Task, ref time.Time) (*models.Task, error) {
	if !original.IsRecurring || original.RecurrencePattern == nil {
		return nil, ErrNotRecurring
	}

	pattern := *original.RecurrencePattern
	pattern.DaysOfWeek = append([]time.Weekday(nil), pattern.DaysOfWeek...)
	deadline := recurrence.WithTime(recurrence.Next(ref, pattern), original.DeadlineTime)

	next := models.Task{
		ID:                uuid.NewString(),
		Title:             original.Title,
		Description:       original.Description,
		CreatedAt:         time.Now().UTC(),
		Deadline:          &deadline,
		DeadlineTime:      original.DeadlineTime,
		Quadrant:          original.Quadrant,
		ProjectID:         original.ProjectID,
		IsRecurring:       true,
		RecurrencePattern: &pattern,
	}
	if err := db.SaveTask(next); err != nil {
		return nil, err
	}
	// read back so the caller sees exactly what was stored
	return db.GetTask(next.ID)
}
