package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Shivanand-hulikatti/reunion/internal/auth"
	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/service"
	"github.com/Shivanand-hulikatti/reunion/internal/storage"
	"github.com/go-chi/chi/v5"
)

type activateRequest struct {
	Department     string `json:"department"`
	ActivationCode string `json:"activation_code"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type presignRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

// Activate handles POST /auth/activate
// Checks a department + activation code pair and returns the pending user id.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	id, err := h.accounts.VerifyPendingUser(r.Context(), req.Department, req.ActivationCode)
	if err != nil {
		fail(w, r, err, "failed to verify activation code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pending_user_id": id})
}

// SignUp handles POST /auth/signup
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		fail(w, r, err, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// SignIn handles POST /auth/signin
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err, "failed to sign in")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CompleteProfile handles POST /profile
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req service.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	u, err := h.accounts.CompleteProfile(r.Context(), who, req)
	if err != nil {
		fail(w, r, err, "failed to complete profile")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UploadPhoto handles POST /profile/photo
// Expects a multipart form with the image in the "photo" field.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.assets == nil {
		writeError(w, http.StatusServiceUnavailable, storage.ErrDisabled.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	file, header, err := r.FormFile("photo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "photo field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	url, err := h.assets.UploadProfileAsset(r.Context(), who.UserID, data, header.Header.Get("Content-Type"))
	if err != nil {
		fail(w, r, err, "failed to upload photo")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// PresignPhoto handles POST /profile/photo/presign
// Returns a short-lived URL the client can PUT the image to directly.
func (h *Handler) PresignPhoto(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.assets == nil {
		writeError(w, http.StatusServiceUnavailable, storage.ErrDisabled.Error())
		return
	}
	var req presignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.assets.PresignUpload(r.Context(), who.UserID, req.FileName, req.FileType)
	if err != nil {
		fail(w, r, err, "failed to prepare upload")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Directory handles GET /directory
func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.accounts.Directory(r.Context())
	if err != nil {
		fail(w, r, err, "failed to list directory")
		return
	}
	if entries == nil {
		entries = []model.DirectoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Profile handles GET /profiles/{id}
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
