// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/regsync"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/Shivanand-hulikatti/reunion/internal/service"
	"github.com/Shivanand-hulikatti/reunion/internal/storage"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
)

type AccountSvc interface {
	VerifyPendingUser(ctx context.Context, department, code string) (string, error)
	SignUp(ctx context.Context, in service.SignUpInput) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*service.AuthResult, error)
	CompleteProfile(ctx context.Context, who model.Identity, in service.ProfileInput) (*model.ActiveUser, error)
	Directory(ctx context.Context) ([]model.DirectoryEntry, error)
	Profile(ctx context.Context, id string) (*model.ActiveUser, error)
}

type EventSvc interface {
	Register(ctx context.Context, who model.Identity, in service.RegisterInput) (*model.Registration, error)
	MyRegistration(ctx context.Context, who model.Identity) (*service.MyRegistration, error)
}

type AdminSvc interface {
	Engine(ctx context.Context) (*regsync.Engine, error)
}

type AssetStore interface {
	UploadProfileAsset(ctx context.Context, ownerID string, data []byte, mimeType string) (string, error)
	PresignUpload(ctx context.Context, ownerID, fileName, mimeType string) (*storage.Presigned, error)
}

// Handler holds all HTTP handlers of the reunion API.
type Handler struct {
	accounts  AccountSvc
	events    EventSvc
	admin     AdminSvc
	assets    AssetStore
	maxUpload int64
}

// New constructs a Handler. assets may be nil when object storage is not configured.
func New(accounts AccountSvc, events EventSvc, admin AdminSvc, assets AssetStore, maxUpload int64) *Handler {
	return &Handler{accounts: accounts, events: events, admin: admin, assets: assets, maxUpload: maxUpload}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// fail maps a service error to its HTTP status. Client errors carry their message;
// server errors are logged and answered with msg.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Error(msg,
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, regsync.ErrValidation),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, storage.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, regsync.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, regsync.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrActivationMismatch):
		return http.StatusNotFound
	case errors.Is(err, regsync.ErrBusy),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrProfileExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, regsync.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
