// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Reminder actions.
const (
	ReminderAdded   = "added"
	ReminderToggled = "toggled"
	ReminderDeleted = "deleted"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Auth metrics
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failure"
	IncLogout()

	// Hydration metrics
	ObserveIntake(amountMl int)
	IncGoalUpdated()
	IncReminderChanged(action string) // action: "added", "toggled", "deleted"
	IncMutationRejected()
	IncDayRollover()

	// Scheduler and realtime metrics
	IncReminderFired()
	SetEventSubscribers(n int64)
	IncEventBroadcast()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
