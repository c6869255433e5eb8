package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered   uint64
	LoginsSucceeded   uint64
	LoginsFailed      uint64
	Logouts           uint64
	IntakesLogged     uint64
	IntakeMlTotal     uint64
	GoalsUpdated      uint64
	RemindersAdded    uint64
	RemindersToggled  uint64
	RemindersDeleted  uint64
	MutationsRejected uint64
	DayRollovers      uint64
	RemindersFired    uint64
	EventSubscribers  int64
	EventsBroadcast   uint64
}

// InMemoryRecorder stores metrics in memory. Backs the /metrics endpoint.
type InMemoryRecorder struct {
	usersRegistered   uint64
	loginsSucceeded   uint64
	loginsFailed      uint64
	logouts           uint64
	intakesLogged     uint64
	intakeMlTotal     uint64
	goalsUpdated      uint64
	remindersAdded    uint64
	remindersToggled  uint64
	remindersDeleted  uint64
	mutationsRejected uint64
	dayRollovers      uint64
	remindersFired    uint64
	eventSubscribers  int64
	eventsBroadcast   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:   atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded:   atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:      atomic.LoadUint64(&m.loginsFailed),
		Logouts:           atomic.LoadUint64(&m.logouts),
		IntakesLogged:     atomic.LoadUint64(&m.intakesLogged),
		IntakeMlTotal:     atomic.LoadUint64(&m.intakeMlTotal),
		GoalsUpdated:      atomic.LoadUint64(&m.goalsUpdated),
		RemindersAdded:    atomic.LoadUint64(&m.remindersAdded),
		RemindersToggled:  atomic.LoadUint64(&m.remindersToggled),
		RemindersDeleted:  atomic.LoadUint64(&m.remindersDeleted),
		MutationsRejected: atomic.LoadUint64(&m.mutationsRejected),
		DayRollovers:      atomic.LoadUint64(&m.dayRollovers),
		RemindersFired:    atomic.LoadUint64(&m.remindersFired),
		EventSubscribers:  atomic.LoadInt64(&m.eventSubscribers),
		EventsBroadcast:   atomic.LoadUint64(&m.eventsBroadcast),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == LoginSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncLogout increments the logout counter.
func (m *InMemoryRecorder) IncLogout() {
	atomic.AddUint64(&m.logouts, 1)
}

// ObserveIntake counts one logged drink and its volume.
func (m *InMemoryRecorder) ObserveIntake(amountMl int) {
	atomic.AddUint64(&m.intakesLogged, 1)
	if amountMl > 0 {
		atomic.AddUint64(&m.intakeMlTotal, uint64(amountMl))
	}
}

// IncGoalUpdated increments the goal update counter.
func (m *InMemoryRecorder) IncGoalUpdated() {
	atomic.AddUint64(&m.goalsUpdated, 1)
}

// IncReminderChanged increments the counter for a reminder action.
func (m *InMemoryRecorder) IncReminderChanged(action string) {
	switch action {
	case ReminderAdded:
		atomic.AddUint64(&m.remindersAdded, 1)
	case ReminderToggled:
		atomic.AddUint64(&m.remindersToggled, 1)
	case ReminderDeleted:
		atomic.AddUint64(&m.remindersDeleted, 1)
	}
}

// IncMutationRejected increments the rejected mutation counter.
func (m *InMemoryRecorder) IncMutationRejected() {
	atomic.AddUint64(&m.mutationsRejected, 1)
}

// IncDayRollover increments the day rollover counter.
func (m *InMemoryRecorder) IncDayRollover() {
	atomic.AddUint64(&m.dayRollovers, 1)
}

// IncReminderFired increments the fired reminder counter.
func (m *InMemoryRecorder) IncReminderFired() {
	atomic.AddUint64(&m.remindersFired, 1)
}

// SetEventSubscribers records the number of connected event clients.
func (m *InMemoryRecorder) SetEventSubscribers(n int64) {
	atomic.StoreInt64(&m.eventSubscribers, n)
}

// IncEventBroadcast increments the broadcast counter.
func (m *InMemoryRecorder) IncEventBroadcast() {
	atomic.AddUint64(&m.eventsBroadcast, 1)
}
