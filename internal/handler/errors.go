package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/model"
)

// errorMappings pair a domain error with its HTTP rendering. The first match
// wins, so specific errors precede their categories.
var errorMappings = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrGoalOutOfRange, http.StatusUnprocessableEntity, "GOAL_OUT_OF_RANGE"},
	{model.ErrAmountNotPositive, http.StatusUnprocessableEntity, "AMOUNT_NOT_POSITIVE"},
	{model.ErrReminderTimeEmpty, http.StatusBadRequest, "REMINDER_TIME_REQUIRED"},
	{model.ErrReminderTimeFormat, http.StatusBadRequest, "REMINDER_TIME_INVALID"},
	{model.ErrMissingFields, http.StatusBadRequest, "MISSING_FIELDS"},
	{model.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
	{auth.ErrPasswordLength, http.StatusBadRequest, "INVALID_PASSWORD"},
	{model.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{model.ErrNoActiveUser, http.StatusConflict, "NO_ACTIVE_USER"},
	{model.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{model.ErrAuth, http.StatusUnauthorized, "UNAUTHORIZED"},
	{model.ErrReminderNotFound, http.StatusNotFound, "REMINDER_NOT_FOUND"},
	{model.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
}

// handleServiceError maps store errors to HTTP responses. Anything that is
// not a domain error is logged and reported as 500 without details.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, publicMessage(err))
			return
		}
	}

	logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

// publicMessage strips the category prefix ("validation error: ...").
func publicMessage(err error) string {
	msg := err.Error()
	for _, category := range []error{model.ErrValidation, model.ErrAuth, model.ErrNotFound} {
		if rest, ok := strings.CutPrefix(msg, category.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
