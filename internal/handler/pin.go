package handler

import (
	"net/http"

	"github.com/tradevault/platform/internal/auth"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/service"
)

// PinHandler handles the local credential gate endpoints.
type PinHandler struct {
	pinSvc *service.PinService
}

// NewPinHandler creates a new PinHandler.
func NewPinHandler(pinSvc *service.PinService) *PinHandler {
	return &PinHandler{pinSvc: pinSvc}
}

// Setup handles POST /security/pin.
func (h *PinHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.pinSvc.Setup(r.Context(), auth.UserIDFromContext(r.Context()), req.Pin); err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// Verify handles POST /security/pin/verify.
func (h *PinHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.pinSvc.Verify(r.Context(), auth.UserIDFromContext(r.Context()), req.Pin); err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// Disable handles DELETE /security/pin.
func (h *PinHandler) Disable(w http.ResponseWriter, r *http.Request) {
	if err := h.pinSvc.Disable(r.Context(), auth.UserIDFromContext(r.Context())); err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdateSettings handles PATCH /security/pin/settings.
func (h *PinHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BiometricEnabled  *bool `json:"biometric_enabled,omitempty"`
		WipeOnMaxAttempts *bool `json:"wipe_on_max_attempts,omitempty"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	cred, err := h.pinSvc.UpdateSettings(r.Context(), auth.UserIDFromContext(r.Context()), req.BiometricEnabled, req.WipeOnMaxAttempts)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, cred)
}
