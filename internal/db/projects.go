package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/tgienger/eisen/internal/models"
)

const projectColumns = "id, name, created_at, archived, sort_order"

func scanProject(row scanner) (models.Project, error) {
	var (
		p         models.Project
		createdAt string
		order     sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &createdAt, &p.Archived, &order); err != nil {
		return p, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return p, fmt.Errorf("project %s: bad created_at: %w", p.ID, err)
	}
	p.CreatedAt = t
	p.Order = intPtr(order)
	return p, nil
}

func (db *DB) queryProjects(query string, args ...any) ([]models.Project, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SaveProject inserts or fully replaces a project
func (db *DB) SaveProject(p models.Project) error {
	_, err := db.Exec(`
		INSERT INTO projects (id, name, created_at, archived, sort_order)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			created_at = excluded.created_at,
			archived = excluded.archived,
			sort_order = excluded.sort_order
	`, p.ID, p.Name, formatTime(p.CreatedAt), p.Archived, nullInt(p.Order))
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(id string) (*models.Project, error) {
	p, err := scanProject(db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAllProjects returns the non-archived projects by sidebar order.
// Projects without an order sort as 0; ties keep insertion order.
func (db *DB) GetAllProjects() ([]models.Project, error) {
	return db.queryProjects(`
		SELECT ` + projectColumns + `
		FROM projects
		WHERE archived = 0
		ORDER BY COALESCE(sort_order, 0), rowid
	`)
}

// GetArchivedProjects returns the archived projects
func (db *DB) GetArchivedProjects() ([]models.Project, error) {
	return db.queryProjects(`
		SELECT ` + projectColumns + `
		FROM projects
		WHERE archived = 1
		ORDER BY rowid
	`)
}

// ArchiveProject archives a project together with its tasks
func (db *DB) ArchiveProject(id string) error {
	return db.setProjectArchived(id, true)
}

// RestoreProject brings a project and its tasks back from the archive
func (db *DB) RestoreProject(id string) error {
	return db.setProjectArchived(id, false)
}

func (db *DB) setProjectArchived(id string, archived bool) error {
	err := db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE projects SET archived = ? WHERE id = ?", archived, id); err != nil {
			return err
		}
		_, err := tx.Exec("UPDATE tasks SET archived = ? WHERE project_id = ?", archived, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("set project %s archived=%t: %w", id, archived, err)
	}
	return nil
}

// DeleteProject deletes a project and all its tasks, archived ones included
func (db *DB) DeleteProject(id string) error {
	err := db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM tasks WHERE project_id = ?", id); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM projects WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// PermanentDeleteProject removes an archived project; it cascades like DeleteProject
func (db *DB) PermanentDeleteProject(id string) error {
	return db.DeleteProject(id)
}

// UpdateProjectOrder sets the sidebar position of a project
func (db *DB) UpdateProjectOrder(id string, order int) error {
	_, err := db.Exec("UPDATE projects SET sort_order = ? WHERE id = ?", order, id)
	if err != nil {
		return fmt.Errorf("update project %s order: %w", id, err)
	}
	return nil
}
