package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/regsync"
	"github.com/go-chi/chi/v5"
)

type amountPaidRequest struct {
	AmountPaid json.RawMessage `json:"amount_paid"`
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

// ListRegistrations handles GET /admin/registrations
// Returns the organizer's department: registrations and stats.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	eng, err := h.admin.Engine(r.Context())
	if err != nil {
		fail(w, r, err, "failed to open registrations")
		return
	}
	if err := eng.Refresh(r.Context()); err != nil {
		fail(w, r, err, "failed to load registrations")
		return
	}
	writeSnapshot(w, eng.Snapshot())
}

// CancelRegistration handles POST /admin/registrations/{id}/cancel
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, eng *regsync.Engine, id string) error {
		return eng.Cancel(ctx, id)
	})
}

// ReactivateRegistration handles POST /admin/registrations/{id}/reactivate
func (h *Handler) ReactivateRegistration(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, eng *regsync.Engine, id string) error {
		return eng.Reactivate(ctx, id)
	})
}

// UpdateAmountPaid handles PUT /admin/registrations/{id}/amount-paid
// Body: {"amount_paid": "1500"}; a JSON number is accepted as well.
func (h *Handler) UpdateAmountPaid(w http.ResponseWriter, r *http.Request) {
	var req amountPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	raw := rawAmount(req.AmountPaid)
	h.mutate(w, r, func(ctx context.Context, eng *regsync.Engine, id string) error {
		return eng.UpdateAmountPaid(ctx, id, raw)
	})
}

// UpdateNotes handles PUT /admin/registrations/{id}/notes
// Body: {"notes": "..."}; an empty string clears the note, null is rejected.
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Notes == nil {
		writeError(w, http.StatusBadRequest, "notes is required")
		return
	}
	text := *req.Notes
	h.mutate(w, r, func(ctx context.Context, eng *regsync.Engine, id string) error {
		return eng.UpdateNotes(ctx, id, text)
	})
}

type mutation func(ctx context.Context, eng *regsync.Engine, id string) error

// mutate runs one organizer change and answers with the reconciled department.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn mutation) {
	eng, err := h.admin.Engine(r.Context())
	if err != nil {
		fail(w, r, err, "failed to open registrations")
		return
	}
	if err := fn(r.Context(), eng, chi.URLParam(r, "id")); err != nil {
		fail(w, r, err, "failed to update registration")
		return
	}
	writeSnapshot(w, eng.Snapshot())
}

func writeSnapshot(w http.ResponseWriter, snap regsync.Snapshot) {
	// Return an empty array rather than null for better client compatibility.
	if snap.Registrations == nil {
		snap.Registrations = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, snap)
}

// rawAmount accepts "1500" as well as 1500. Anything else is passed through and
// rejected by the engine.
func rawAmount(msg json.RawMessage) string {
	s := strings.TrimSpace(string(msg))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(msg, &str); err == nil {
			return str
		}
	}
	if s == "null" {
		return ""
	}
	return s
}
