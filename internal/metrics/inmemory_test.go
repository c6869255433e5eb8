package metrics

import "testing"

var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Recorder    = (*NoopRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncUserRegistered()
	m.IncLogin(LoginSuccess)
	m.IncLogin(LoginFailure)
	m.IncLogin(LoginFailure)
	m.IncLogout()
	m.ObserveIntake(300)
	m.ObserveIntake(200)
	m.IncGoalUpdated()
	m.IncReminderChanged(ReminderAdded)
	m.IncReminderChanged(ReminderToggled)
	m.IncReminderChanged(ReminderDeleted)
	m.IncReminderChanged("unknown")
	m.IncMutationRejected()
	m.IncDayRollover()
	m.IncReminderFired()
	m.SetEventSubscribers(3)
	m.SetEventSubscribers(2)
	m.IncEventBroadcast()

	snap := m.Snapshot()

	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"UsersRegistered", snap.UsersRegistered, 1},
		{"LoginsSucceeded", snap.LoginsSucceeded, 1},
		{"LoginsFailed", snap.LoginsFailed, 2},
		{"Logouts", snap.Logouts, 1},
		{"IntakesLogged", snap.IntakesLogged, 2},
		{"IntakeMlTotal", snap.IntakeMlTotal, 500},
		{"GoalsUpdated", snap.GoalsUpdated, 1},
		{"RemindersAdded", snap.RemindersAdded, 1},
		{"RemindersToggled", snap.RemindersToggled, 1},
		{"RemindersDeleted", snap.RemindersDeleted, 1},
		{"MutationsRejected", snap.MutationsRejected, 1},
		{"DayRollovers", snap.DayRollovers, 1},
		{"RemindersFired", snap.RemindersFired, 1},
		{"EventsBroadcast", snap.EventsBroadcast, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if snap.EventSubscribers != 2 {
		t.Errorf("EventSubscribers = %d, want 2", snap.EventSubscribers)
	}
}
