// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation wraps every rejected input.
	ErrValidation         = errors.New("validation error")
	ErrActivationMismatch = errors.New("activation code does not match any pending user")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RegistrationStore is the persistence the registration flows need.
type RegistrationStore interface {
	ListByDepartment(ctx context.Context, department string) ([]model.Registration, error)
	Stats(ctx context.Context, department string) (model.DepartmentStats, error)
	Get(ctx context.Context, department, id string) (*model.Registration, error)
	Update(ctx context.Context, department, id string, patch model.RegistrationPatch) (*model.Registration, error)
	Create(ctx context.Context, in repository.NewRegistration) (*model.Registration, error)
	GetByUser(ctx context.Context, userID string) (*model.Registration, error)
}

// UserStore is the persistence for pending users, accounts and profiles.
type UserStore interface {
	PendingByActivation(ctx context.Context, department, code string) (*model.PendingUser, error)
	PendingByID(ctx context.Context, id string) (*model.PendingUser, error)
	DeletePending(ctx context.Context, id string) error
	CreateAccount(ctx context.Context, acc *model.Account) error
	AccountByEmail(ctx context.Context, email string) (*model.Account, error)
	AccountByID(ctx context.Context, id string) (*model.Account, error)
	CreateActiveUser(ctx context.Context, u *model.ActiveUser) error
	ActiveUser(ctx context.Context, id string) (*model.ActiveUser, error)
	HasProfile(ctx context.Context, id string) (bool, error)
	OrganizerOf(ctx context.Context, userID, department string) (bool, error)
	Directory(ctx context.Context) ([]model.DirectoryEntry, error)
}

// DirectoryCache holds the directory listing between requests.
type DirectoryCache interface {
	Get(ctx context.Context) ([]model.DirectoryEntry, bool)
	Set(ctx context.Context, entries []model.DirectoryEntry) error
	Invalidate(ctx context.Context) error
}

// TokenIssuer signs access tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs the struct tags on in and turns failures into ErrValidation.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}
