package http

import (
	"net/http"

	"github.com/MKhiriev/bank-mmudzi/internal/utils"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.AppInfo.GetAppVersion(r.Context()), http.StatusOK)
}
