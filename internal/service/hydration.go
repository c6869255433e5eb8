package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/model"
	"github.com/aquatrack/aquatrack/internal/storage"
)

// initTimeout bounds per-user loading triggered by auth changes.
const initTimeout = 10 * time.Second

// HydrationStore tracks goal, intake and reminders for the signed-in user.
type HydrationStore struct {
	storage storage.Storage
	loc     *time.Location
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	op sync.Mutex // serializes mutations and their notifications

	mu        sync.RWMutex
	userID    string
	profile   model.HydrationProfile
	history   []model.IntakeEntry
	reminders []model.Reminder

	listeners listeners[model.HydrationState]
}

// NewHydrationStore creates an empty store. Day boundaries use loc.
func NewHydrationStore(st storage.Storage, loc *time.Location, logger *slog.Logger, recorder metrics.Recorder) *HydrationStore {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &HydrationStore{
		storage: st,
		loc:     loc,
		logger:  logger.With("component", "hydration"),
		metrics: recorder,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *HydrationStore) SetClock(now func() time.Time) {
	s.now = now
}

// Location returns the time zone used for day boundaries.
func (s *HydrationStore) Location() *time.Location {
	return s.loc
}

// Now returns the store clock in its location.
func (s *HydrationStore) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *HydrationStore) today() string {
	return model.DayKey(s.now(), s.loc)
}

// BindAuth initializes on sign-in and resets on sign-out.
// The returned function unsubscribes.
func (s *HydrationStore) BindAuth(a *AuthStore) func() {
	return a.Subscribe(func(st model.AuthState) {
		switch {
		case st.Loading:
		case st.IsAuthenticated && st.User != nil:
			ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
			defer cancel()
			if err := s.InitializeForUser(ctx, st.User.ID); err != nil {
				s.logger.Error("initialize_failed", "user_id", st.User.ID, "error", err)
			}
		default:
			s.Reset()
		}
	})
}

// Subscribe registers fn to receive the state after every change.
// The returned function unsubscribes.
func (s *HydrationStore) Subscribe(fn func(model.HydrationState)) func() {
	return s.listeners.add(fn)
}

// Snapshot returns the current state. Today's intake is computed for the
// current date even if the stored counter has not rolled over yet.
func (s *HydrationStore) Snapshot() model.HydrationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *HydrationStore) snapshotLocked() model.HydrationState {
	current := s.currentIntakeLocked()
	pct := model.ProgressPercentage(current, s.profile.DailyGoal)

	history := make([]model.IntakeEntry, len(s.history))
	copy(history, s.history)
	reminders := make([]model.Reminder, len(s.reminders))
	copy(reminders, s.reminders)

	return model.HydrationState{
		UserID:        s.userID,
		DailyGoal:     s.profile.DailyGoal,
		CurrentIntake: current,
		Percentage:    pct,
		Status:        model.ProgressStatus(pct),
		LastResetDate: s.profile.LastResetDate,
		History:       history,
		Reminders:     reminders,
	}
}

func (s *HydrationStore) currentIntakeLocked() int {
	if s.userID == "" {
		return 0
	}
	today := s.today()
	if s.profile.LastResetDate != today {
		return model.TotalForDay(s.history, today, s.loc)
	}
	return s.profile.CurrentIntake
}

// UserID returns the initialized user, or "" when none.
func (s *HydrationStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// CurrentIntake returns today's total in millilitres.
func (s *HydrationStore) CurrentIntake() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIntakeLocked()
}

// ProgressPercentage returns today's progress toward the goal, capped at 100.
func (s *HydrationStore) ProgressPercentage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.ProgressPercentage(s.currentIntakeLocked(), s.profile.DailyGoal)
}

// History groups all intake by local day, newest day first.
func (s *HydrationStore) History() []model.DayGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.GroupByDay(s.history, s.loc, s.profile.DailyGoal)
}

// Reminders returns a copy of the reminders.
func (s *HydrationStore) Reminders() []model.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reminder, len(s.reminders))
	copy(out, s.reminders)
	return out
}

// commit swaps in new state and notifies subscribers. Callers hold s.op.
func (s *HydrationStore) commit(userID string, profile model.HydrationProfile, history []model.IntakeEntry, reminders []model.Reminder) {
	s.mu.Lock()
	s.userID = userID
	s.profile = profile
	s.history = history
	s.reminders = reminders
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.listeners.emit(snap)
}

// current returns the state under the read lock. Callers hold s.op, so the
// values cannot change until they commit.
func (s *HydrationStore) current() (string, model.HydrationProfile, []model.IntakeEntry, []model.Reminder) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.profile, s.history, s.reminders
}

// InitializeForUser loads the user's data, creating defaults when none is
// saved. Calling it again for the already-loaded user does nothing.
func (s *HydrationStore) InitializeForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return model.ErrNoActiveUser
	}

	s.op.Lock()
	defer s.op.Unlock()

	if s.UserID() == userID {
		return nil
	}

	today := s.today()

	profile, created, err := s.loadProfile(ctx, userID, today)
	if err != nil {
		return err
	}
	history, err := loadList[model.IntakeEntry](ctx, s.storage, storage.HistoryKey(userID))
	if err != nil {
		return err
	}
	reminders, err := loadList[model.Reminder](ctx, s.storage, storage.RemindersKey(userID))
	if err != nil {
		return err
	}

	total := model.TotalForDay(history, today, s.loc)
	if created || profile.LastResetDate != today || profile.CurrentIntake != total {
		profile.CurrentIntake = total
		profile.LastResetDate = today
		if err := storage.SetJSON(ctx, s.storage, storage.ProfileKey(userID), profile); err != nil {
			return err
		}
	}

	s.commit(userID, profile, history, reminders)
	s.logger.Info("hydration_initialized",
		"user_id", userID,
		"daily_goal", profile.DailyGoal,
		"entries", len(history),
		"reminders", len(reminders),
	)
	return nil
}

func (s *HydrationStore) loadProfile(ctx context.Context, userID, today string) (model.HydrationProfile, bool, error) {
	var profile model.HydrationProfile
	err := storage.GetJSON(ctx, s.storage, storage.ProfileKey(userID), &profile)
	if errors.Is(err, storage.ErrNotFound) {
		return model.NewHydrationProfile(today), true, nil
	}
	if err != nil {
		return model.HydrationProfile{}, false, fmt.Errorf("load profile: %w", err)
	}
	if model.ValidateDailyGoal(profile.DailyGoal) != nil {
		s.logger.Warn("stored_goal_invalid", "user_id", userID, "daily_goal", profile.DailyGoal)
		profile.DailyGoal = model.DefaultDailyGoal
		return profile, true, nil
	}
	return profile, false, nil
}

func loadList[T any](ctx context.Context, st storage.Storage, key string) ([]T, error) {
	var out []T
	err := storage.GetJSON(ctx, st, key, &out)
	if errors.Is(err, storage.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Reset drops the in-memory state, e.g. after sign-out. Persisted data is kept.
func (s *HydrationStore) Reset() {
	s.op.Lock()
	defer s.op.Unlock()

	if s.UserID() == "" {
		return
	}
	s.commit("", model.HydrationProfile{}, nil, nil)
}

// UpdateDailyGoal sets the goal. Values outside [500, 5000] are rejected and
// leave the state unchanged.
func (s *HydrationStore) UpdateDailyGoal(ctx context.Context, goal int) error {
	if err := model.ValidateDailyGoal(goal); err != nil {
		s.metrics.IncMutationRejected()
		return err
	}

	s.op.Lock()
	defer s.op.Unlock()

	userID, profile, history, reminders := s.current()
	if userID == "" {
		return model.ErrNoActiveUser
	}

	profile = rolledOver(profile, history, s.today(), s.loc)
	profile.DailyGoal = goal

	if err := storage.SetJSON(ctx, s.storage, storage.ProfileKey(userID), profile); err != nil {
		return err
	}

	s.commit(userID, profile, history, reminders)
	s.metrics.IncGoalUpdated()
	s.logger.Info("daily_goal_updated", "user_id", userID, "daily_goal", goal)
	return nil
}

// LogWaterIntake appends an entry and returns today's new total.
func (s *HydrationStore) LogWaterIntake(ctx context.Context, amount int) (int, error) {
	if err := model.ValidateIntakeAmount(amount); err != nil {
		s.metrics.IncMutationRejected()
		return 0, err
	}

	s.op.Lock()
	defer s.op.Unlock()

	userID, profile, history, reminders := s.current()
	if userID == "" {
		return 0, model.ErrNoActiveUser
	}

	ts := s.now()
	today := model.DayKey(ts, s.loc)
	entry := model.IntakeEntry{
		ID:        ulid.MustNew(ulid.Timestamp(ts), ulid.DefaultEntropy()).String(),
		Amount:    amount,
		Timestamp: ts.UTC(),
	}

	next := make([]model.IntakeEntry, len(history), len(history)+1)
	copy(next, history)
	next = append(next, entry)

	profile = rolledOver(profile, history, today, s.loc)
	profile.CurrentIntake = model.TotalForDay(next, today, s.loc)

	if err := storage.SetJSON(ctx, s.storage, storage.HistoryKey(userID), next); err != nil {
		return 0, err
	}
	if err := storage.SetJSON(ctx, s.storage, storage.ProfileKey(userID), profile); err != nil {
		// The entry must not resurface on the next load.
		if rbErr := storage.SetJSON(ctx, s.storage, storage.HistoryKey(userID), history); rbErr != nil {
			s.logger.Error("history_rollback_failed", "user_id", userID, "entry_id", entry.ID, "error", rbErr)
		}
		return 0, err
	}

	s.commit(userID, profile, next, reminders)
	s.metrics.ObserveIntake(amount)
	s.logger.Info("water_logged",
		"user_id", userID,
		"entry_id", entry.ID,
		"amount_ml", amount,
		"total_ml", profile.CurrentIntake,
	)
	return profile.CurrentIntake, nil
}

// AddReminder creates an enabled reminder. An empty message gets the default.
func (s *HydrationStore) AddReminder(ctx context.Context, at, message string) (model.Reminder, error) {
	if err := model.ValidateReminderTime(at); err != nil {
		s.metrics.IncMutationRejected()
		return model.Reminder{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = model.DefaultReminderMessage
	}

	s.op.Lock()
	defer s.op.Unlock()

	userID, profile, history, reminders := s.current()
	if userID == "" {
		return model.Reminder{}, model.ErrNoActiveUser
	}

	reminder := model.Reminder{
		ID:        uuid.New().String(),
		Time:      strings.TrimSpace(at),
		Message:   message,
		Enabled:   true,
		CreatedAt: s.now().UTC(),
	}

	next := make([]model.Reminder, len(reminders), len(reminders)+1)
	copy(next, reminders)
	next = append(next, reminder)

	if err := storage.SetJSON(ctx, s.storage, storage.RemindersKey(userID), next); err != nil {
		return model.Reminder{}, err
	}

	s.commit(userID, profile, history, next)
	s.metrics.IncReminderChanged(metrics.ReminderAdded)
	s.logger.Info("reminder_added", "user_id", userID, "reminder_id", reminder.ID, "time", reminder.Time)
	return reminder, nil
}

// ToggleReminder flips enabled on the reminder with id.
func (s *HydrationStore) ToggleReminder(ctx context.Context, id string) (model.Reminder, error) {
	s.op.Lock()
	defer s.op.Unlock()

	userID, profile, history, reminders := s.current()
	if userID == "" {
		return model.Reminder{}, model.ErrNoActiveUser
	}

	idx := indexOfReminder(reminders, id)
	if idx < 0 {
		return model.Reminder{}, model.ErrReminderNotFound
	}

	next := make([]model.Reminder, len(reminders))
	copy(next, reminders)
	next[idx].Enabled = !next[idx].Enabled

	if err := storage.SetJSON(ctx, s.storage, storage.RemindersKey(userID), next); err != nil {
		return model.Reminder{}, err
	}

	s.commit(userID, profile, history, next)
	s.metrics.IncReminderChanged(metrics.ReminderToggled)
	s.logger.Info("reminder_toggled", "user_id", userID, "reminder_id", id, "enabled", next[idx].Enabled)
	return next[idx], nil
}

// DeleteReminder removes the reminder with id. Unknown ids are a no-op.
func (s *HydrationStore) DeleteReminder(ctx context.Context, id string) error {
	s.op.Lock()
	defer s.op.Unlock()

	userID, profile, history, reminders := s.current()
	if userID == "" {
		return model.ErrNoActiveUser
	}

	idx := indexOfReminder(reminders, id)
	if idx < 0 {
		return nil
	}

	next := make([]model.Reminder, 0, len(reminders)-1)
	next = append(next, reminders[:idx]...)
	next = append(next, reminders[idx+1:]...)

	if err := storage.SetJSON(ctx, s.storage, storage.RemindersKey(userID), next); err != nil {
		return err
	}

	s.commit(userID, profile, history, next)
	s.metrics.IncReminderChanged(metrics.ReminderDeleted)
	s.logger.Info("reminder_deleted", "user_id", userID, "reminder_id", id)
	return nil
}

// Rollover persists a new day's counter once the local date has changed.
// It reports whether a rollover happened.
func (s *HydrationStore) Rollover(ctx context.Context) (bool, error) {
	s.op.Lock()
	defer s.op.Unlock()

	userID, profile, history, reminders := s.current()
	today := s.today()
	if userID == "" || profile.LastResetDate == today {
		return false, nil
	}

	previous := profile.LastResetDate
	profile = rolledOver(profile, history, today, s.loc)

	if err := storage.SetJSON(ctx, s.storage, storage.ProfileKey(userID), profile); err != nil {
		return false, err
	}

	s.commit(userID, profile, history, reminders)
	s.metrics.IncDayRollover()
	s.logger.Info("day_rolled_over", "user_id", userID, "from", previous, "to", profile.LastResetDate)
	return true, nil
}

// rolledOver returns profile advanced to today when the date has changed.
func rolledOver(profile model.HydrationProfile, history []model.IntakeEntry, today string, loc *time.Location) model.HydrationProfile {
	if profile.LastResetDate == today {
		return profile
	}
	profile.LastResetDate = today
	profile.CurrentIntake = model.TotalForDay(history, today, loc)
	return profile
}

func indexOfReminder(reminders []model.Reminder, id string) int {
	for i, r := range reminders {
		if r.ID == id {
			return i
		}
	}
	return -1
}
