package handler

import (
	"net/http"

	"github.com/tradevault/platform/internal/auth"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/elevated"
)

// ElevatedHandler handles the admin elevated-session endpoints.
type ElevatedHandler struct {
	manager *elevated.Manager
}

// NewElevatedHandler creates a new ElevatedHandler.
func NewElevatedHandler(manager *elevated.Manager) *ElevatedHandler {
	return &ElevatedHandler{manager: manager}
}

// Enter handles POST /admin/elevated/enter.
func (h *ElevatedHandler) Enter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ViewingAs string `json:"viewing_as,omitempty"`
	}
	// Body is optional; a bare enter starts a plain elevated session.
	_ = DecodeJSON(r, &req)

	status := h.manager.Enter(auth.UserIDFromContext(r.Context()), req.ViewingAs)
	RespondJSON(w, http.StatusOK, status)
}

// Activity handles POST /admin/elevated/activity.
func (h *ElevatedHandler) Activity(w http.ResponseWriter, r *http.Request) {
	extended, status := h.manager.Activity(auth.UserIDFromContext(r.Context()))
	if !status.Active {
		RespondError(w, domain.ErrForbidden("no active elevated session"))
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"extended": extended,
		"status":   status,
	})
}

// Exit handles POST /admin/elevated/exit.
func (h *ElevatedHandler) Exit(w http.ResponseWriter, r *http.Request) {
	h.manager.Exit(auth.UserIDFromContext(r.Context()))
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status handles GET /admin/elevated/status.
func (h *ElevatedHandler) Status(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.manager.Status(auth.UserIDFromContext(r.Context())))
}
