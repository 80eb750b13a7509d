// Package transfer reads and writes the JSON backup format.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tgienger/eisen/internal/models"
)

// Version is written into every export
const Version = "1.0"

// ErrMalformed is returned by Decode for any document it refuses to import
var ErrMalformed = errors.New("malformed import file")

// Document is the import/export file
type Document struct {
	Projects   []models.Project `json:"projects"`
	Tasks      []models.Task    `json:"tasks"`
	ExportDate time.Time        `json:"exportDate"`
	Version    string           `json:"version"`
}

// FileName is the default export file name for the given day
func FileName(now time.Time) string {
	return "eisen-export-" + now.Format(time.DateOnly) + ".json"
}

// Export writes projects and tasks as an indented document
func Export(w io.Writer, projects []models.Project, tasks []models.Task, now time.Time) error {
	if projects == nil {
		projects = []models.Project{}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	doc := Document{
		Projects:   projects,
		Tasks:      tasks,
		ExportDate: now.UTC(),
		Version:    Version,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Decode parses and validates a document. Nothing about the document is
// trusted until Decode returns without error.
func Decode(r io.Reader) (*Document, error) {
	var raw struct {
		Projects   json.RawMessage `json:"projects"`
		Tasks      json.RawMessage `json:"tasks"`
		ExportDate *time.Time      `json:"exportDate"`
		Version    string          `json:"version"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if missing(raw.Projects) {
		return nil, fmt.Errorf("%w: missing projects array", ErrMalformed)
	}
	if missing(raw.Tasks) {
		return nil, fmt.Errorf("%w: missing tasks array", ErrMalformed)
	}

	doc := &Document{Version: raw.Version}
	if raw.ExportDate != nil {
		doc.ExportDate = *raw.ExportDate
	}
	if err := json.Unmarshal(raw.Projects, &doc.Projects); err != nil {
		return nil, fmt.Errorf("%w: projects: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw.Tasks, &doc.Tasks); err != nil {
		return nil, fmt.Errorf("%w: tasks: %v", ErrMalformed, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func missing(m json.RawMessage) bool {
	return len(m) == 0 || bytes.Equal(bytes.TrimSpace(m), []byte("null"))
}

// Validate checks every record before anything is written
func (d *Document) Validate() error {
	for i, p := range d.Projects {
		if p.ID == "" {
			return fmt.Errorf("%w: project %d has no id", ErrMalformed, i)
		}
		if p.Name == "" {
			return fmt.Errorf("%w: project %s has no name", ErrMalformed, p.ID)
		}
	}
	for i, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("%w: task %d has no id", ErrMalformed, i)
		}
		if t.Title == "" {
			return fmt.Errorf("%w: task %s has no title", ErrMalformed, t.ID)
		}
		if !t.Quadrant.Valid() {
			return fmt.Errorf("%w: task %s has invalid quadrant %q", ErrMalformed, t.ID, t.Quadrant)
		}
		if t.RecurrencePattern != nil {
			if err := t.RecurrencePattern.Validate(); err != nil {
				return fmt.Errorf("%w: task %s: %v", ErrMalformed, t.ID, err)
			}
		}
	}
	return nil
}
