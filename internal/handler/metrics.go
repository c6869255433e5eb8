package handler

import (
	"fmt"
	"net/http"

	"github.com/aquatrack/aquatrack/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "aquatrack_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "aquatrack_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "aquatrack_logins_total{status=\"failure\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "aquatrack_logouts_total %d\n", snap.Logouts)

	writeMetric(w, "aquatrack_intake_logged_total %d\n", snap.IntakesLogged)
	writeMetric(w, "aquatrack_intake_ml_total %d\n", snap.IntakeMlTotal)
	writeMetric(w, "aquatrack_goal_updates_total %d\n", snap.GoalsUpdated)
	writeMetric(w, "aquatrack_mutations_rejected_total %d\n", snap.MutationsRejected)
	writeMetric(w, "aquatrack_day_rollovers_total %d\n", snap.DayRollovers)

	writeMetric(w, "aquatrack_reminder_changes_total{action=\"added\"} %d\n", snap.RemindersAdded)
	writeMetric(w, "aquatrack_reminder_changes_total{action=\"toggled\"} %d\n", snap.RemindersToggled)
	writeMetric(w, "aquatrack_reminder_changes_total{action=\"deleted\"} %d\n", snap.RemindersDeleted)
	writeMetric(w, "aquatrack_reminders_fired_total %d\n", snap.RemindersFired)

	writeMetric(w, "aquatrack_event_subscribers %d\n", snap.EventSubscribers)
	writeMetric(w, "aquatrack_events_broadcast_total %d\n", snap.EventsBroadcast)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
