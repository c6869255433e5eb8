// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/aquatrack/aquatrack/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for the new session.
type LoginResponse struct {
	Token    string      `json:"token"`
	IssuedAt time.Time   `json:"issued_at"`
	User     *model.User `json:"user"`
}

// UpdateGoalRequest is the body of PUT /api/v1/hydration/goal.
type UpdateGoalRequest struct {
	DailyGoal int `json:"daily_goal"`
}

// LogIntakeRequest is the body of POST /api/v1/hydration/intake.
type LogIntakeRequest struct {
	Amount int `json:"amount"`
}

// LogIntakeResponse reports today's totals after logging.
type LogIntakeResponse struct {
	CurrentIntake int `json:"current_intake"`
	Percentage    int `json:"percentage"`
}

// ProgressResponse is the body of GET /api/v1/hydration/progress.
type ProgressResponse struct {
	CurrentIntake int    `json:"current_intake"`
	DailyGoal     int    `json:"daily_goal"`
	Remaining     int    `json:"remaining"`
	Percentage    int    `json:"percentage"`
	Status        string `json:"status"`
}

// HistoryResponse is the body of GET /api/v1/hydration/history.
type HistoryResponse struct {
	Days []model.DayGroup `json:"days"`
}

// AddReminderRequest is the body of POST /api/v1/hydration/reminders.
type AddReminderRequest struct {
	Time    string `json:"time"`
	Message string `json:"message,omitempty"`
}

// RemindersResponse lists reminders.
type RemindersResponse struct {
	Data []model.Reminder `json:"data"`
}

// PresetsResponse is the body of GET /api/v1/presets.
type PresetsResponse struct {
	Goals            []model.Preset `json:"goals"`
	Intake           []model.Preset `json:"intake"`
	ReminderMessages []string       `json:"reminder_messages"`
	MinDailyGoal     int            `json:"min_daily_goal"`
	MaxDailyGoal     int            `json:"max_daily_goal"`
	DefaultDailyGoal int            `json:"default_daily_goal"`
}

// NewProgressResponse derives the progress view from a hydration snapshot.
func NewProgressResponse(s model.HydrationState) ProgressResponse {
	remaining := s.DailyGoal - s.CurrentIntake
	if remaining < 0 {
		remaining = 0
	}
	return ProgressResponse{
		CurrentIntake: s.CurrentIntake,
		DailyGoal:     s.DailyGoal,
		Remaining:     remaining,
		Percentage:    s.Percentage,
		Status:        s.Status,
	}
}
