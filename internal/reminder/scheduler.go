package reminder

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/model"
)

// DefaultPollInterval is the time between reminder checks.
const DefaultPollInterval = 30 * time.Second

// Source is the hydration state the scheduler reads from.
type Source interface {
	UserID() string
	Reminders() []model.Reminder
	Now() time.Time
	Rollover(ctx context.Context) (bool, error)
}

// Scheduler polls the reminders of the signed-in user and fires each enabled
// reminder once on the day its HH:MM passes.
type Scheduler struct {
	source       Source
	notifier     Notifier
	logger       *slog.Logger
	metrics      metrics.Recorder
	pollInterval time.Duration
	lastCheck    time.Time
	fired        map[string]string // user/reminder -> day fired
	pending      map[string]string // user/reminder -> day whose delivery failed
	started      bool
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(source Source, notifier Notifier, logger *slog.Logger, recorder metrics.Recorder) *Scheduler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Scheduler{
		source:       source,
		notifier:     notifier,
		logger:       logger.With("component", "reminder.scheduler"),
		metrics:      recorder,
		pollInterval: DefaultPollInterval,
		fired:        make(map[string]string),
		pending:      make(map[string]string),
	}
}

// SetPollInterval overrides the poll interval.
func (s *Scheduler) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// Run starts the scheduler loop. Blocks until context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.started {
		return errors.New("scheduler already started")
	}
	s.started = true

	s.logger.Info("reminder scheduler started", "poll_interval", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopping")
			return nil
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				s.logger.Error("reminder check failed", "error", err)
			}
		}
	}
}

// RunOnce rolls the day over if needed and fires reminders that became due
// since the previous check. A reminder whose delivery failed is retried on
// every later check of the same day until it succeeds.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if _, err := s.source.Rollover(ctx); err != nil {
		s.logger.Error("rollover failed", "error", err)
	}

	now := s.source.Now()
	from := s.lastCheck
	if from.IsZero() {
		from = now.Add(-s.pollInterval)
	}
	s.lastCheck = now

	userID := s.source.UserID()
	if userID == "" {
		return nil
	}

	today := now.Format(model.DayLayout)

	var errs []error
	for _, r := range s.source.Reminders() {
		key := userID + "/" + r.ID
		if !r.Enabled {
			delete(s.pending, key)
			continue
		}

		var day string
		if at, ok := dueAt(r.Time, from, now); ok {
			day = at.Format(model.DayLayout)
		} else if s.pending[key] == today {
			day = today
		} else {
			continue
		}
		if s.fired[key] == day {
			continue
		}

		n := Notification{UserID: userID, Reminder: r, FiredAt: now}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.pending[key] = day
			errs = append(errs, err)
			continue
		}
		delete(s.pending, key)
		s.fired[key] = day
		s.metrics.IncReminderFired()
	}

	s.prune(from.Format(model.DayLayout))
	return errors.Join(errs...)
}

// prune forgets fired and pending markers older than oldest.
func (s *Scheduler) prune(oldest string) {
	for _, markers := range []map[string]string{s.fired, s.pending} {
		for key, day := range markers {
			if day < oldest {
				delete(markers, key)
			}
		}
	}
}

// dueAt returns the occurrence of hhmm in (from, now], checking the calendar
// days of both bounds.
func dueAt(hhmm string, from, now time.Time) (time.Time, bool) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(hhmm[3:])
	if err != nil {
		return time.Time{}, false
	}

	for _, day := range []time.Time{from, now} {
		y, m, d := day.Date()
		at := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
		if at.After(from) && !at.After(now) {
			return at, true
		}
	}
	return time.Time{}, false
}
