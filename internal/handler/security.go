package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/auth"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/elevated"
	"github.com/tradevault/platform/internal/service"
)

// SecurityHandler handles session tracking, anomalies and anti-replay nonces.
type SecurityHandler struct {
	securitySvc *service.SecurityService
	elevated    *elevated.Manager
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(securitySvc *service.SecurityService, elevatedMgr *elevated.Manager) *SecurityHandler {
	return &SecurityHandler{securitySvc: securitySvc, elevated: elevatedMgr}
}

type trackSessionRequest struct {
	DeviceSignals domain.DeviceSignals `json:"device_signals"`
	Fingerprint   string               `json:"fingerprint,omitempty"`
}

// TrackSession handles POST /security/sessions/track.
func (h *SecurityHandler) TrackSession(w http.ResponseWriter, r *http.Request) {
	var req trackSessionRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code":    "VALIDATION_ERROR",
			"message": "invalid request body",
		})
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	role := domain.RoleUser
	if claims != nil && claims.Role != "" {
		role = claims.Role
	}

	in := service.TrackSessionInput{
		UserID:      auth.UserIDFromContext(r.Context()),
		ActorRole:   role,
		IP:          ClientIP(r),
		Signals:     req.DeviceSignals,
		Fingerprint: req.Fingerprint,
	}
	if role == domain.RoleAdmin {
		// Elevated mode switches the scorer to the admin policy branch.
		in.Elevated = h.elevated.Status(in.UserID).Active
	}

	result, err := h.securitySvc.TrackSession(r.Context(), in)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// ListAnomalies handles GET /security/anomalies.
func (h *SecurityHandler) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	anomalies, err := h.securitySvc.ListAnomalies(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(anomalies),
		"anomalies": anomalies,
	})
}

// ResolveAnomaly handles POST /security/anomalies/{id}/resolve.
func (h *SecurityHandler) ResolveAnomaly(w http.ResponseWriter, r *http.Request) {
	anomalyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid anomaly id"))
		return
	}

	var req struct {
		Nonce string `json:"nonce"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.securitySvc.ResolveAnomaly(r.Context(), userID, anomalyID, req.Nonce); err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// IssueNonce handles GET /security/nonce.
func (h *SecurityHandler) IssueNonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := h.securitySvc.IssueNonce(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"nonce": nonce.String()})
}
