package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/auth"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/service"
)

// DeviceHandler handles the trusted-device endpoints.
type DeviceHandler struct {
	deviceSvc *service.DeviceService
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(deviceSvc *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// List handles GET /security/devices.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.deviceSvc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(devices),
		"devices": devices,
	})
}

// Trust handles POST /security/devices/trust.
func (h *DeviceHandler) Trust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fingerprint string `json:"fingerprint"`
		DisplayName string `json:"display_name,omitempty"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	device, err := h.deviceSvc.Trust(r.Context(), auth.UserIDFromContext(r.Context()), req.Fingerprint, req.DisplayName)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, device)
}

// Untrust handles POST /security/devices/{id}/untrust.
func (h *DeviceHandler) Untrust(w http.ResponseWriter, r *http.Request) {
	deviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid device id"))
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
	if err := h.deviceSvc.Untrust(r.Context(), userID, deviceID, req.Nonce); err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
