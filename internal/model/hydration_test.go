package model

import (
	"errors"
	"testing"
	"time"
)

func TestProgressPercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount int
		goal   int
		want   int
	}{
		{"empty", 0, 2000, 0},
		{"partial", 1200, 2000, 60},
		{"rounds half up", 1, 8, 13},
		{"rounds down", 1009, 2000, 50},
		{"exact goal", 2000, 2000, 100},
		{"over goal clamps", 2500, 2000, 100},
		{"zero goal", 500, 0, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ProgressPercentage(tt.amount, tt.goal); got != tt.want {
				t.Errorf("ProgressPercentage(%d, %d) = %d, want %d", tt.amount, tt.goal, got, tt.want)
			}
		})
	}
}

func TestValidateDailyGoal(t *testing.T) {
	t.Parallel()

	valid := []int{MinDailyGoal, DefaultDailyGoal, MaxDailyGoal}
	for _, g := range valid {
		if err := ValidateDailyGoal(g); err != nil {
			t.Errorf("ValidateDailyGoal(%d) = %v, want nil", g, err)
		}
	}

	invalid := []int{0, 100, MinDailyGoal - 1, MaxDailyGoal + 1}
	for _, g := range invalid {
		err := ValidateDailyGoal(g)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateDailyGoal(%d) = %v, want validation error", g, err)
		}
	}
}

func TestValidateIntakeAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateIntakeAmount(1); err != nil {
		t.Errorf("expected 1 to be valid, got %v", err)
	}
	for _, a := range []int{0, -250} {
		if err := ValidateIntakeAmount(a); !errors.Is(err, ErrAmountNotPositive) {
			t.Errorf("ValidateIntakeAmount(%d) = %v, want ErrAmountNotPositive", a, err)
		}
	}
}

func TestValidateReminderTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  error
	}{
		{"08:00", nil},
		{"23:59", nil},
		{"00:00", nil},
		{"", ErrReminderTimeEmpty},
		{"   ", ErrReminderTimeEmpty},
		{"24:00", ErrReminderTimeFormat},
		{"8:00", ErrReminderTimeFormat},
		{"08:60", ErrReminderTimeFormat},
		{"noon", ErrReminderTimeFormat},
	}

	for _, tt := range tests {
		err := ValidateReminderTime(tt.value)
		if tt.want == nil {
			if err != nil {
				t.Errorf("ValidateReminderTime(%q) = %v, want nil", tt.value, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateReminderTime(%q) = %v, want %v", tt.value, err, tt.want)
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateReminderTime(%q) should be a validation error", tt.value)
		}
	}
}

func TestProgressStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pct  int
		want string
	}{
		{0, "Getting started! Keep drinking water."},
		{24, "Getting started! Keep drinking water."},
		{25, "Good progress! Keep it up."},
		{50, "Halfway there! You're doing great."},
		{99, "Almost there! Just a bit more to go."},
		{100, "Goal achieved! Excellent job staying hydrated today!"},
	}

	for _, tt := range tests {
		if got := ProgressStatus(tt.pct); got != tt.want {
			t.Errorf("ProgressStatus(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestTotalForDay(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	entries := []IntakeEntry{
		{ID: "a", Amount: 300, Timestamp: time.Date(2024, 3, 1, 23, 30, 0, 0, loc)},
		{ID: "b", Amount: 200, Timestamp: time.Date(2024, 3, 2, 0, 15, 0, 0, loc)},
		{ID: "c", Amount: 400, Timestamp: time.Date(2024, 3, 2, 9, 0, 0, 0, loc)},
	}

	if got := TotalForDay(entries, "2024-03-02", loc); got != 600 {
		t.Errorf("TotalForDay = %d, want 600", got)
	}
	if got := TotalForDay(entries, "2024-03-03", loc); got != 0 {
		t.Errorf("TotalForDay on empty day = %d, want 0", got)
	}
}

func TestDayKey_UsesLocation(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)
	west := time.FixedZone("UTC-5", -5*60*60)

	if got := DayKey(ts, time.UTC); got != "2024-03-02" {
		t.Errorf("DayKey UTC = %s", got)
	}
	if got := DayKey(ts, west); got != "2024-03-01" {
		t.Errorf("DayKey UTC-5 = %s, want 2024-03-01", got)
	}
}
