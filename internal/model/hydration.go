package model

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Daily goal bounds in millilitres.
const (
	MinDailyGoal     = 500
	MaxDailyGoal     = 5000
	DefaultDailyGoal = 2000
)

// DayLayout is the calendar-date key used for day boundaries and history groups.
const DayLayout = "2006-01-02"

// DefaultReminderMessage is used when a reminder is added without a message.
const DefaultReminderMessage = "Time to drink water!"

var reminderTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// HydrationProfile is the persisted per-user goal and daily counter.
type HydrationProfile struct {
	DailyGoal     int    `json:"daily_goal"`
	CurrentIntake int    `json:"current_intake"`
	LastResetDate string `json:"last_reset_date"`
}

// IntakeEntry is a single logged drink. Entries are append-only.
type IntakeEntry struct {
	ID        string    `json:"id"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Reminder is a daily wall-clock prompt to drink water.
type Reminder struct {
	ID        string    `json:"id"`
	Time      string    `json:"time"`
	Message   string    `json:"message"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// HydrationState is a point-in-time view of the hydration store.
type HydrationState struct {
	UserID        string        `json:"user_id,omitempty"`
	DailyGoal     int           `json:"daily_goal"`
	CurrentIntake int           `json:"current_intake"`
	Percentage    int           `json:"percentage"`
	Status        string        `json:"status"`
	LastResetDate string        `json:"last_reset_date,omitempty"`
	History       []IntakeEntry `json:"intake_history"`
	Reminders     []Reminder    `json:"reminders"`
}

// NewHydrationProfile returns the profile assigned to a user with no saved data.
func NewHydrationProfile(today string) HydrationProfile {
	return HydrationProfile{
		DailyGoal:     DefaultDailyGoal,
		LastResetDate: today,
	}
}

// ValidateDailyGoal checks the goal is inside the accepted range.
func ValidateDailyGoal(goal int) error {
	if goal < MinDailyGoal || goal > MaxDailyGoal {
		return ErrGoalOutOfRange
	}
	return nil
}

// ValidateIntakeAmount rejects zero and negative amounts.
func ValidateIntakeAmount(amount int) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	return nil
}

// ValidateReminderTime checks a reminder time is a 24-hour HH:MM string.
func ValidateReminderTime(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrReminderTimeEmpty
	}
	if !reminderTimeRegex.MatchString(value) {
		return ErrReminderTimeFormat
	}
	return nil
}

// ProgressPercentage returns min(round(amount/goal*100), 100).
// A non-positive goal yields 0.
func ProgressPercentage(amount, goal int) int {
	if goal <= 0 || amount <= 0 {
		return 0
	}
	pct := int(math.Round(float64(amount) / float64(goal) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// ProgressStatus returns the encouragement shown for a progress percentage.
func ProgressStatus(percentage int) string {
	switch {
	case percentage < 25:
		return "Getting started! Keep drinking water."
	case percentage < 50:
		return "Good progress! Keep it up."
	case percentage < 75:
		return "Halfway there! You're doing great."
	case percentage < 100:
		return "Almost there! Just a bit more to go."
	default:
		return "Goal achieved! Excellent job staying hydrated today!"
	}
}

// DayKey returns the local calendar date of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// TotalForDay sums the entries whose local date equals day.
func TotalForDay(entries []IntakeEntry, day string, loc *time.Location) int {
	total := 0
	for _, e := range entries {
		if DayKey(e.Timestamp, loc) == day {
			total += e.Amount
		}
	}
	return total
}
