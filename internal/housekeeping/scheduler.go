// Package housekeeping removes completed tasks every night.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// MidnightSpec fires at 00:00:00 every day
const MidnightSpec = "0 0 0 * * *"

// Purger deletes completed tasks and reports how many went
type Purger interface {
	PurgeCompleted() (int64, error)
}

// Scheduler runs the purge at local midnight of a fixed timezone
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	loc      *time.Location
	purger   Purger
	log      *slog.Logger
	onPurge  func(n int64, err error)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// OnPurge registers a callback run after every purge
func OnPurge(fn func(n int64, err error)) Option {
	return func(s *Scheduler) { s.onPurge = fn }
}

// New creates a stopped scheduler
func New(p Purger, loc *time.Location, opts ...Option) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(MidnightSpec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		schedule: schedule,
		loc:      loc,
		purger:   p,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.RunOnce))
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("housekeeping scheduled", slog.String("timezone", s.loc.String()), slog.Time("next", s.NextRun(time.Now())))
}

// Stop stops the scheduler. The returned context is done once a running
// purge has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// NextRun is the first purge time after t
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// RunOnce purges immediately
func (s *Scheduler) RunOnce() {
	n, err := s.purger.PurgeCompleted()
	if err != nil {
		s.log.Error("purge completed tasks", slog.Any("error", err))
	} else {
		s.log.Info("purged completed tasks", slog.Int64("count", n))
	}
	if s.onPurge != nil {
		s.onPurge(n, err)
	}
}
