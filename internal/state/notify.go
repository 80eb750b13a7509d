package state

import (
	"errors"
	"log/slog"

	"github.com/tgienger/eisen/internal/db"
)

var (
	ErrEmptyTitle = errors.New("task title is required")
	ErrEmptyName  = errors.New("project name is required")
	ErrNoProject  = errors.New("no project selected")
	// ErrCannotReorder means the two tasks have different deadlines
	ErrCannotReorder = errors.New("only tasks with the same deadline can be reordered")
)

// ErrSaveFailed is the message shown for any storage engine failure
const ErrSaveFailed = "Save failed, check that local storage is writable"

// Level of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a user-visible message
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives notifications produced by store actions
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// validationError marks an error as the user's to fix; its text is shown as-is
type validationError struct{ err error }

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }

func invalid(err error) error { return validationError{err: err} }

// report classifies err, logs it, and tells the user. It returns err so
// callers can `return s.report(op, err)`. Not-found errors are swallowed:
// the cache may briefly reference records that are already gone.
func (s *Store) report(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotFound) {
		s.log.Debug("record already gone", slog.String("operation", op), slog.Any("error", err))
		return nil
	}

	var verr validationError
	if errors.As(err, &verr) {
		s.log.Info("rejected", slog.String("operation", op), slog.Any("error", err))
		s.notifier.Notify(Notification{Level: LevelError, Message: verr.Error()})
		return err
	}

	s.log.Error("storage failure", slog.String("operation", op), slog.Any("error", err))
	s.notifier.Notify(Notification{Level: LevelError, Message: ErrSaveFailed})
	return err
}

func (s *Store) info(msg string) {
	s.notifier.Notify(Notification{Level: LevelInfo, Message: msg})
}
