package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/handler/dto"
	"github.com/aquatrack/aquatrack/internal/model"
	"github.com/aquatrack/aquatrack/internal/service"
)

// HydrationHandler serves goal, intake, history and reminder endpoints.
// Every route runs behind RequireSession.
type HydrationHandler struct {
	store  *service.HydrationStore
	logger *slog.Logger
}

// NewHydrationHandler creates a new HydrationHandler.
func NewHydrationHandler(store *service.HydrationStore, logger *slog.Logger) *HydrationHandler {
	return &HydrationHandler{
		store:  store,
		logger: logger.With("component", "handler.hydration"),
	}
}

// ready makes sure the store holds the signed-in user's data.
func (h *HydrationHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required")
		return false
	}
	if err := h.store.InitializeForUser(r.Context(), userID); err != nil {
		handleServiceError(h.logger, w, err)
		return false
	}
	return true
}

// State handles GET /api/v1/hydration.
func (h *HydrationHandler) State(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// UpdateGoal handles PUT /api/v1/hydration/goal.
func (h *HydrationHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	var req dto.UpdateGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.store.UpdateDailyGoal(r.Context(), req.DailyGoal); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewProgressResponse(h.store.Snapshot()))
}

// LogIntake handles POST /api/v1/hydration/intake.
func (h *HydrationHandler) LogIntake(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	var req dto.LogIntakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	total, err := h.store.LogWaterIntake(r.Context(), req.Amount)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	goal := h.store.Snapshot().DailyGoal
	writeJSON(w, http.StatusCreated, dto.LogIntakeResponse{
		CurrentIntake: total,
		Percentage:    model.ProgressPercentage(total, goal),
	})
}

// Progress handles GET /api/v1/hydration/progress.
func (h *HydrationHandler) Progress(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProgressResponse(h.store.Snapshot()))
}

// History handles GET /api/v1/hydration/history.
func (h *HydrationHandler) History(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponse{Days: h.store.History()})
}

// ListReminders handles GET /api/v1/hydration/reminders.
func (h *HydrationHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, dto.RemindersResponse{Data: h.store.Reminders()})
}

// AddReminder handles POST /api/v1/hydration/reminders.
func (h *HydrationHandler) AddReminder(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	var req dto.AddReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	reminder, err := h.store.AddReminder(r.Context(), req.Time, req.Message)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reminder)
}

// ToggleReminder handles POST /api/v1/hydration/reminders/{id}/toggle.
func (h *HydrationHandler) ToggleReminder(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	reminder, err := h.store.ToggleReminder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, reminder)
}

// DeleteReminder handles DELETE /api/v1/hydration/reminders/{id}.
// Unknown ids succeed.
func (h *HydrationHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	if err := h.store.DeleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
