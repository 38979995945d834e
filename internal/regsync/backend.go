// Package regsync keeps an organizer's view of their department's registrations in step
// with the backend. Every mutation is authorized server-side and followed by a full
// reload, so local state never trusts what a write returned.
package regsync

import (
	"context"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
)

// Backend is the remote source of truth for registrations and their aggregates.
//
// Implementations return ErrNotFound for ids outside the department and may return
// any other error for transport failures; the engine classifies them.
type Backend interface {
	// CurrentUser resolves the caller. A nil identity with a nil error means anonymous.
	CurrentUser(ctx context.Context) (*model.Identity, error)
	IsOrganizer(ctx context.Context, who model.Identity, department string) (bool, error)
	FetchRegistrations(ctx context.Context, department string) ([]model.Registration, error)
	FetchStats(ctx context.Context, department string) (model.DepartmentStats, error)
	GetRegistration(ctx context.Context, department, id string) (*model.Registration, error)
	UpdateRegistration(ctx context.Context, department, id string, patch model.RegistrationPatch) (*model.Registration, error)
}

// Snapshot is an immutable copy of the engine state.
type Snapshot struct {
	Department    string                `json:"department"`
	Registrations []model.Registration  `json:"registrations"`
	Stats         model.DepartmentStats `json:"stats"`
}
