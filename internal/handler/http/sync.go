package http

import (
	"net/http"
	"strconv"

	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

const defaultLogLimit = 100

// getSyncStatus reports the arbiter state and queue counters.
func (h *Handler) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.services.Status.GetSyncStatus(r.Context())
	if err != nil {
		writeError(w, r, "Handler.getSyncStatus", "error getting sync status", err)
		return
	}

	utils.WriteJSON(w, report, http.StatusOK)
}

// triggerSync asks the sync job for a session and returns without waiting
// for it.
func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	scheduled := h.services.Engine.Trigger()
	utils.WriteJSON(w, models.TriggerSyncResponse{Scheduled: scheduled}, http.StatusAccepted)
}

// recheck probes the primary right away and reports the resulting mode.
func (h *Handler) recheck(w http.ResponseWriter, r *http.Request) {
	h.services.Connections.ForceRecheck()

	if _, err := h.services.Connections.GetConnection(r.Context()); err != nil {
		writeError(w, r, "Handler.recheck", "no store is reachable", err)
		return
	}

	st := h.services.Connections.Status()
	utils.WriteJSON(w, models.RecheckResponse{Mode: st.Mode, FallbackActive: st.FallbackActive}, http.StatusOK)
}

// getSyncLog accepts optional session and limit query parameters.
func (h *Handler) getSyncLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultLogLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, "Handler.getSyncLog", "invalid limit", ErrInvalidLimit)
			return
		}
		limit = n
	}

	entries, err := h.services.SyncLog.Tail(r.Context(), query.Get("session"), limit)
	if err != nil {
		writeError(w, r, "Handler.getSyncLog", "error reading sync log", err)
		return
	}

	utils.WriteJSON(w, models.SyncLogResponse{Entries: entries, Length: len(entries)}, http.StatusOK)
}
