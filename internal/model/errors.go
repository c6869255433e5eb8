package model

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of these so callers
// can branch with errors.Is without knowing the specific cause.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
	ErrNotFound   = errors.New("not found")
)

// Validation errors.
var (
	ErrGoalOutOfRange     = fmt.Errorf("%w: daily goal must be between %d and %d ml", ErrValidation, MinDailyGoal, MaxDailyGoal)
	ErrAmountNotPositive  = fmt.Errorf("%w: intake amount must be positive", ErrValidation)
	ErrReminderTimeEmpty  = fmt.Errorf("%w: reminder time is required", ErrValidation)
	ErrReminderTimeFormat = fmt.Errorf("%w: reminder time must be HH:MM", ErrValidation)
	ErrMissingFields      = fmt.Errorf("%w: email, password and name are required", ErrValidation)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email address", ErrValidation)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrValidation)
	ErrNoActiveUser       = fmt.Errorf("%w: no user initialized", ErrValidation)
)

// Auth errors.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuth)
	ErrInvalidSession     = fmt.Errorf("%w: invalid or expired session", ErrAuth)
)

// Not-found errors.
var (
	ErrReminderNotFound = fmt.Errorf("%w: reminder", ErrNotFound)
)
