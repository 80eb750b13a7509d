package models

import "sort"

// SortForBoard orders tasks the way a quadrant displays them: open tasks
// first, then tasks placed by hand in their manual order, then nearest
// deadline, then creation time.
func SortForBoard(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return boardLess(tasks[i], tasks[j])
	})
}

// boardLess compares the keys one at a time so the order is total
// whatever mix of ordered and unordered tasks it sees.
func boardLess(a, b Task) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	if (a.Order != nil) != (b.Order != nil) {
		return a.Order != nil
	}
	if a.Order != nil && *a.Order != *b.Order {
		return *a.Order < *b.Order
	}
	switch {
	case a.Deadline != nil && b.Deadline != nil:
		if !a.Deadline.Equal(*b.Deadline) {
			return a.Deadline.Before(*b.Deadline)
		}
	case a.Deadline != nil:
		return true
	case b.Deadline != nil:
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// TasksInQuadrant returns the non-archived tasks of q in board order.
// The input slice is not modified.
func TasksInQuadrant(tasks []Task, q Quadrant) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Quadrant == q && !t.Archived {
			out = append(out, t)
		}
	}
	SortForBoard(out)
	return out
}

// CanReorder reports whether two tasks may swap places by hand.
// Only tasks sharing a deadline (or both having none) can be reordered,
// otherwise the deadline sort would undo the move.
func CanReorder(a, b Task) bool {
	if a.Deadline == nil && b.Deadline == nil {
		return true
	}
	if a.Deadline == nil || b.Deadline == nil {
		return false
	}
	return a.Deadline.Equal(*b.Deadline) && a.DeadlineTime == b.DeadlineTime
}
