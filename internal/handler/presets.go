package handler

import (
	"net/http"

	"github.com/aquatrack/aquatrack/internal/handler/dto"
	"github.com/aquatrack/aquatrack/internal/model"
)

// Presets handles GET /api/v1/presets.
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PresetsResponse{
		Goals:            model.GoalPresets,
		Intake:           model.IntakePresets,
		ReminderMessages: model.ReminderMessages,
		MinDailyGoal:     model.MinDailyGoal,
		MaxDailyGoal:     model.MaxDailyGoal,
		DefaultDailyGoal: model.DefaultDailyGoal,
	})
}
