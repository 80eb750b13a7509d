package state

import "github.com/tgienger/eisen/internal/models"

// DefaultUndoDepth is how many deletions can be undone
const DefaultUndoDepth = 10

// deletion is one undoable delete: a task, or a project with its tasks
type deletion struct {
	project *models.Project
	tasks   []models.Task
}

// undoBuffer is a bounded LIFO of deletions. Undo recreates records from
// these snapshots under new ids; the originals are gone for good.
type undoBuffer struct {
	depth int
	items []deletion
}

func newUndoBuffer(depth int) *undoBuffer {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	return &undoBuffer{depth: depth}
}

func (b *undoBuffer) push(d deletion) {
	b.items = append(b.items, d)
	if len(b.items) > b.depth {
		b.items = b.items[len(b.items)-b.depth:]
	}
}

func (b *undoBuffer) pop() (deletion, bool) {
	if len(b.items) == 0 {
		return deletion{}, false
	}
	d := b.items[len(b.items)-1]
	b.items = b.items[:len(b.items)-1]
	return d, true
}

func (b *undoBuffer) len() int {
	return len(b.items)
}
