package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/eisen/internal/db"
	"github.com/tgienger/eisen/internal/models"
	"github.com/tgienger/eisen/internal/transfer"
)

var created = time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)

// useDatabase points the configuration at a fresh database and returns its path
func useDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "eisen.db")
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("EISEN_DB_PATH", path)
	t.Setenv("EISEN_TIMEZONE", "UTC")
	t.Setenv("EISEN_UNDO_DEPTH", "")
	t.Setenv("EISEN_LOG_FILE", filepath.Join(dir, "eisen.log"))
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func seed(t *testing.T, path string) {
	t.Helper()
	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.SaveProject(models.Project{ID: "p1", Name: "Work", CreatedAt: created, Order: models.IntPtr(0)}))
	require.NoError(t, database.SaveProject(models.Project{ID: "p2", Name: "Home", CreatedAt: created, Order: models.IntPtr(1)}))
	require.NoError(t, database.SaveTask(models.Task{ID: "t1", Title: "Report", CreatedAt: created, Quadrant: models.UrgentImportant, ProjectID: "p1"}))
	require.NoError(t, database.SaveTask(models.Task{ID: "t2", Title: "Laundry", CreatedAt: created, Quadrant: models.NotUrgentNotImportant, ProjectID: "p2"}))
	require.NoError(t, database.SaveTask(models.Task{ID: "t3", Title: "Old", CreatedAt: created, Quadrant: models.UrgentImportant, ProjectID: "p1"}))
	require.NoError(t, database.ArchiveTask("t3"))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func readExport(t *testing.T, path string) *transfer.Document {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := transfer.Decode(f)
	require.NoError(t, err)
	return doc
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "eisen 1.2.3 (commit: abc, built: today)\n", out)
}

func TestExportVisibleProject(t *testing.T) {
	seed(t, useDatabase(t))
	file := filepath.Join(t.TempDir(), "out.json")

	out, err := run(t, "export", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to "+file)

	doc := readExport(t, file)
	assert.Equal(t, transfer.Version, doc.Version)
	assert.Len(t, doc.Projects, 2)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, "t1", doc.Tasks[0].ID)
}

func TestExportAll(t *testing.T) {
	seed(t, useDatabase(t))
	file := filepath.Join(t.TempDir(), "all.json")

	_, err := run(t, "export", "--all", file)
	require.NoError(t, err)

	doc := readExport(t, file)
	assert.Len(t, doc.Projects, 2)
	ids := make([]string, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, ids)
}

func TestExportToStdout(t *testing.T) {
	seed(t, useDatabase(t))

	out, err := run(t, "export", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "1.0"`)
	assert.NotContains(t, out, "Exported to")
}

func TestImportRoundTrip(t *testing.T) {
	seed(t, useDatabase(t))
	file := filepath.Join(t.TempDir(), "all.json")
	_, err := run(t, "export", "--all", file)
	require.NoError(t, err)

	target := useDatabase(t)
	out, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 projects and 3 tasks\n", out)

	database, err := db.Open(target)
	require.NoError(t, err)
	defer database.Close()

	projects, err := database.GetAllProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 2)
	archived, err := database.GetArchivedTasks()
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "t3", archived[0].ID)
}

func TestImportRejectsMalformedFile(t *testing.T) {
	path := useDatabase(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"projects": [{"id": "p1", "name": "Work"}]}`), 0o644))

	_, err := run(t, "import", file)
	assert.ErrorIs(t, err, transfer.ErrMalformed)

	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()
	projects, err := database.GetAllProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestImportNeedsFile(t *testing.T) {
	useDatabase(t)
	_, err := run(t, "import")
	assert.Error(t, err)
}
