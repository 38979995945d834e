package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/reunion/internal/auth"
	"github.com/Shivanand-hulikatti/reunion/internal/service"
)

// Register handles POST /event/registrations
// Signs the caller up for the reunion.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	reg, err := h.events.Register(r.Context(), who, req)
	if err != nil {
		fail(w, r, err, "failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// MyRegistration handles GET /event/registrations/me
func (h *Handler) MyRegistration(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	mine, err := h.events.MyRegistration(r.Context(), who)
	if err != nil {
		fail(w, r, err, "failed to get registration")
		return
	}
	writeJSON(w, http.StatusOK, mine)
}
