package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncLogout is a no-op.
func (n *NoopRecorder) IncLogout() {}

// ObserveIntake is a no-op.
func (n *NoopRecorder) ObserveIntake(amountMl int) {}

// IncGoalUpdated is a no-op.
func (n *NoopRecorder) IncGoalUpdated() {}

// IncReminderChanged is a no-op.
func (n *NoopRecorder) IncReminderChanged(action string) {}

// IncMutationRejected is a no-op.
func (n *NoopRecorder) IncMutationRejected() {}

// IncDayRollover is a no-op.
func (n *NoopRecorder) IncDayRollover() {}

// IncReminderFired is a no-op.
func (n *NoopRecorder) IncReminderFired() {}

// SetEventSubscribers is a no-op.
func (n *NoopRecorder) SetEventSubscribers(count int64) {}

// IncEventBroadcast is a no-op.
func (n *NoopRecorder) IncEventBroadcast() {}
