package state

import (
	"io"
	"log/slog"

	"github.com/tgienger/eisen/internal/transfer"
)

// Import upserts every project and then every task of doc, then reloads.
// doc must already be validated; a failed write stops the import but keeps
// the records written before it.
func (s *Store) Import(doc *transfer.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range doc.Projects {
		if err := s.storage.SaveProject(p); err != nil {
			return s.report("import", err)
		}
	}
	for _, t := range doc.Tasks {
		if err := s.storage.SaveTask(t); err != nil {
			return s.report("import", err)
		}
	}
	s.log.Info("imported", slog.Int("projects", len(doc.Projects)), slog.Int("tasks", len(doc.Tasks)))

	if err := s.loadProjectsLocked(); err != nil {
		return err
	}
	s.info("Import complete")
	return nil
}

// Export writes the loaded projects and the current project's tasks
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	snap := s.state.clone()
	now := s.now()
	s.mu.Unlock()

	return transfer.Export(w, snap.Projects, snap.Tasks, now)
}
