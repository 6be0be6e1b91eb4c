package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/bank-mmudzi/internal/service"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// listConflicts responds with every unresolved conflict, oldest first.
func (h *Handler) listConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.services.Resolver.ListUnresolved(r.Context())
	if err != nil {
		writeError(w, r, "Handler.listConflicts", "error listing conflicts", err)
		return
	}

	if conflicts == nil {
		conflicts = []models.ConflictRecord{}
	}
	utils.WriteJSON(w, models.ConflictsResponse{Conflicts: conflicts, Length: len(conflicts)}, http.StatusOK)
}

// getConflict responds 400 for a malformed id and 404 for an unknown one.
func (h *Handler) getConflict(w http.ResponseWriter, r *http.Request) {
	id, err := conflictIDParam(r)
	if err != nil {
		writeError(w, r, "Handler.getConflict", "invalid conflict id", err)
		return
	}

	conflict, err := h.services.Resolver.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "Handler.getConflict", "error getting conflict", err)
		return
	}

	utils.WriteJSON(w, conflict, http.StatusOK)
}

// resolveConflict settles a conflict. The manual strategy writes the
// request's merged row; without one the conflict stays open.
func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	const fn = "Handler.resolveConflict"
	ctx := r.Context()

	id, err := conflictIDParam(r)
	if err != nil {
		writeError(w, r, fn, "invalid conflict id", err)
		return
	}

	var req models.ResolveConflictRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fn, "invalid request body", fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	if err = h.validator.Validate(ctx, req); err != nil {
		writeError(w, r, fn, "invalid resolve request", err)
		return
	}
	strategy, _ := models.ParseResolutionStrategy(req.Strategy)

	var resolved bool
	if strategy == models.ResolutionManual && len(req.Merged) > 0 {
		resolved, err = h.services.Resolver.ResolveManual(ctx, id, req.Merged)
	} else {
		resolved, err = h.services.Resolver.Resolve(ctx, id, strategy)
	}
	if err != nil {
		writeError(w, r, fn, "error resolving conflict", err)
		return
	}

	utils.WriteJSON(w, models.ResolveConflictResponse{ConflictID: id, Resolved: resolved}, http.StatusOK)
}

func conflictIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidConflictID
	}
	return id, nil
}
