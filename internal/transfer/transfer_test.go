package transfer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/eisen/internal/models"
)

var exported = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleRecords() ([]models.Project, []models.Task) {
	deadline := time.Date(2024, 3, 20, 17, 0, 0, 0, time.UTC)
	projects := []models.Project{
		{ID: "p1", Name: "Work", CreatedAt: exported, Order: models.IntPtr(0)},
	}
	tasks := []models.Task{
		{
			ID:           "t1",
			Title:        "Report",
			Description:  "quarterly",
			CreatedAt:    exported,
			Deadline:     &deadline,
			DeadlineTime: "17:00",
			Quadrant:     models.UrgentImportant,
			ProjectID:    "p1",
			IsRecurring:  true,
			RecurrencePattern: &models.RecurrencePattern{
				Type:       models.RecurCustom,
				DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
			},
		},
	}
	return projects, tasks
}

func TestExportDecodeRoundTrip(t *testing.T) {
	projects, tasks := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, projects, tasks, exported))

	doc, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, exported, doc.ExportDate)
	assert.Equal(t, projects, doc.Projects)
	assert.Equal(t, tasks, doc.Tasks)
}

func TestExportWireShape(t *testing.T) {
	projects, tasks := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, projects, tasks, exported))

	var wire map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &wire))
	assert.Equal(t, "1.0", wire["version"])
	assert.Equal(t, "2024-03-14T09:30:00Z", wire["exportDate"])

	task := wire["tasks"].([]any)[0].(map[string]any)
	assert.Equal(t, "p1", task["projectId"])
	assert.Equal(t, "urgent-important", task["quadrant"])
	assert.Equal(t, "17:00", task["deadlineTime"])
	pattern := task["recurrencePattern"].(map[string]any)
	assert.Equal(t, "custom", pattern["type"])
	assert.Equal(t, []any{1.0, 3.0}, pattern["daysOfWeek"])
}

func TestExportEmptyWritesArrays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil, nil, exported))

	assert.Contains(t, buf.String(), `"projects": []`)
	assert.Contains(t, buf.String(), `"tasks": []`)

	doc, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, doc.Projects)
	assert.Empty(t, doc.Tasks)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{"projects": [`},
		{"missing projects", `{"tasks": []}`},
		{"missing tasks", `{"projects": []}`},
		{"null tasks", `{"projects": [], "tasks": null}`},
		{"projects not an array", `{"projects": {}, "tasks": []}`},
		{"project without id", `{"projects": [{"name": "Work"}], "tasks": []}`},
		{"project without name", `{"projects": [{"id": "p1"}], "tasks": []}`},
		{"task without id", `{"projects": [], "tasks": [{"title": "x", "quadrant": "urgent-important"}]}`},
		{"task without title", `{"projects": [], "tasks": [{"id": "t1", "quadrant": "urgent-important"}]}`},
		{"bad quadrant", `{"projects": [], "tasks": [{"id": "t1", "title": "x", "quadrant": "later"}]}`},
		{"bad pattern", `{"projects": [], "tasks": [{"id": "t1", "title": "x", "quadrant": "urgent-important", "recurrencePattern": {"type": "monthly"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, doc)
		})
	}
}

func TestDecodeAcceptsMinimalDocument(t *testing.T) {
	input := `{"projects": [{"id": "p1", "name": "Home", "createdAt": "2024-01-01T00:00:00Z"}],
		"tasks": [{"id": "t1", "title": "Laundry", "quadrant": "not-urgent-not-important", "projectId": "p1", "createdAt": "2024-01-02T08:00:00Z"}]}`

	doc, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Projects, 1)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, "Home", doc.Projects[0].Name)
	assert.Equal(t, models.NotUrgentNotImportant, doc.Tasks[0].Quadrant)
	assert.Nil(t, doc.Tasks[0].Deadline)
	assert.True(t, doc.ExportDate.IsZero())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "eisen-export-2024-03-14.json", FileName(exported))
}
