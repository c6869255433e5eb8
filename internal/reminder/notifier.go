// Package reminder fires due hydration reminders and rolls the daily counter
// over at midnight. Delivery is simulated: notifiers log or push an in-app
// event; nothing leaves the process.
package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aquatrack/aquatrack/internal/model"
)

// Notification is a reminder that became due.
type Notification struct {
	UserID   string         `json:"user_id"`
	Reminder model.Reminder `json:"reminder"`
	FiredAt  time.Time      `json:"fired_at"`
}

// Notifier delivers a due reminder.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes each notification as a structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "reminder.notifier")}
}

// Notify logs n.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("reminder_due",
		"user_id", n.UserID,
		"reminder_id", n.Reminder.ID,
		"time", n.Reminder.Time,
		"message", n.Reminder.Message,
	)
	return nil
}

// MultiNotifier fans a notification out to every notifier.
type MultiNotifier []Notifier

// Notify calls every notifier and joins their errors.
func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
