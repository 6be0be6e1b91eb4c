package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/service"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/internal/validators"
	"github.com/MKhiriev/bank-mmudzi/models"
)

var errorStatusMap = map[error]int{
	ErrEmptyAuthorizationHeader:   http.StatusUnauthorized,
	ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	ErrInvalidJSON:                http.StatusBadRequest,
	ErrInvalidLimit:               http.StatusBadRequest,

	validators.ErrInvalidStrategy:     http.StatusBadRequest,
	validators.ErrMergedWithoutManual: http.StatusBadRequest,
	validators.ErrInvalidColumn:       http.StatusBadRequest,

	service.ErrInvalidConflictID:       http.StatusBadRequest,
	service.ErrUnknownStrategy:         http.StatusBadRequest,
	service.ErrMergedIDMismatch:        http.StatusBadRequest,
	service.ErrEmptySnapshot:           http.StatusUnprocessableEntity,
	service.ErrTableNotEnrolled:        http.StatusBadRequest,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,

	store.ErrConflictNotFound:   http.StatusNotFound,
	store.ErrSyncRecordNotFound: http.StatusNotFound,
	store.ErrConnectivity:       http.StatusServiceUnavailable,
	store.ErrMissingID:          http.StatusBadRequest,
	store.ErrInvalidIdentifier:  http.StatusBadRequest,

	store.ErrBuildingSQLQuery:   http.StatusInternalServerError,
	store.ErrExecutingQuery:     http.StatusInternalServerError,
	store.ErrExecutingStatement: http.StatusInternalServerError,
	store.ErrScanningRow:        http.StatusInternalServerError,
	store.ErrScanningRows:       http.StatusInternalServerError,
	store.ErrEncodingSnapshot:   http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError logs err under fn and answers with its mapped status. Server
// errors hide the cause behind msg.
func writeError(w http.ResponseWriter, r *http.Request, fn, msg string, err error) {
	status := statusFromError(err)
	logger.FromRequest(r).Err(err).Str("func", fn).Int("status", status).Msg(msg)

	body := models.ErrorResponse{Error: msg}
	if status < http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		body.Error = msg + ": " + err.Error()
	}
	utils.WriteJSON(w, body, status)
}
