package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/service"
)

// AdminSecurityHandler exposes the audit views over the session ledger and
// anomaly log.
type AdminSecurityHandler struct {
	securitySvc *service.SecurityService
}

// NewAdminSecurityHandler creates a new AdminSecurityHandler.
func NewAdminSecurityHandler(securitySvc *service.SecurityService) *AdminSecurityHandler {
	return &AdminSecurityHandler{securitySvc: securitySvc}
}

// ListSessions handles GET /admin/security/sessions/{userId}.
func (h *AdminSecurityHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	records, err := h.securitySvc.AdminListSessions(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(records),
		"sessions": records,
	})
}

// ListAnomalies handles GET /admin/security/anomalies.
func (h *AdminSecurityHandler) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	anomalies, err := h.securitySvc.AdminListAnomalies(r.Context(), limit)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(anomalies),
		"anomalies": anomalies,
	})
}
