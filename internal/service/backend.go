package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/auth"
	"github.com/Shivanand-hulikatti/reunion/internal/events"
	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/regsync"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
)

// RegistrationBackend serves regsync.Engine from PostgreSQL. The caller is read from
// the request context, so one value is shared by every request.
type RegistrationBackend struct {
	regs      RegistrationStore
	users     UserStore
	publisher events.Publisher
}

var _ regsync.Backend = (*RegistrationBackend)(nil)

// NewRegistrationBackend returns a regsync.Backend over the stores. A nil publisher
// drops change events.
func NewRegistrationBackend(regs RegistrationStore, users UserStore, publisher events.Publisher) *RegistrationBackend {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &RegistrationBackend{regs: regs, users: users, publisher: publisher}
}

func (b *RegistrationBackend) CurrentUser(ctx context.Context) (*model.Identity, error) {
	who, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, nil
	}
	return &who, nil
}

func (b *RegistrationBackend) IsOrganizer(ctx context.Context, who model.Identity, department string) (bool, error) {
	return b.users.OrganizerOf(ctx, who.UserID, department)
}

func (b *RegistrationBackend) FetchRegistrations(ctx context.Context, department string) ([]model.Registration, error) {
	return b.regs.ListByDepartment(ctx, department)
}

func (b *RegistrationBackend) FetchStats(ctx context.Context, department string) (model.DepartmentStats, error) {
	return b.regs.Stats(ctx, department)
}

func (b *RegistrationBackend) GetRegistration(ctx context.Context, department, id string) (*model.Registration, error) {
	reg, err := b.regs.Get(ctx, department, id)
	return reg, notFound(err)
}

// UpdateRegistration writes patch and announces the change. A failed publish is
// only logged; the write already happened.
func (b *RegistrationBackend) UpdateRegistration(ctx context.Context, department, id string, patch model.RegistrationPatch) (*model.Registration, error) {
	reg, err := b.regs.Update(ctx, department, id, patch)
	if err != nil {
		return nil, notFound(err)
	}

	ev := events.RegistrationChanged{
		RegistrationID: reg.ID,
		Department:     department,
		Status:         string(reg.Status),
		AmountPaid:     reg.AmountPaid,
		ChangedAt:      time.Now().UTC(),
	}
	if who, ok := auth.IdentityFrom(ctx); ok {
		ev.ActorID = who.UserID
	}
	if err := b.publisher.Publish(ctx, ev); err != nil {
		logger.Log.Warn("publish registration change failed",
			logger.String("registration_id", reg.ID),
			logger.Error(err),
		)
	}
	return reg, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", regsync.ErrNotFound, err)
	}
	return err
}

// AdminService hands out a sync engine bound to the caller's own department.
type AdminService struct {
	backend *RegistrationBackend
	users   UserStore
	timeout time.Duration
}

func NewAdminService(backend *RegistrationBackend, users UserStore, timeout time.Duration) *AdminService {
	return &AdminService{backend: backend, users: users, timeout: timeout}
}

// Engine returns a fresh engine for the caller. The engine still authorizes every
// operation itself; the department lookup here only picks which list to show.
func (s *AdminService) Engine(ctx context.Context) (*regsync.Engine, error) {
	who, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: not authenticated", regsync.ErrAuthorization)
	}
	u, err := s.users.ActiveUser(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no profile", regsync.ErrAuthorization)
		}
		return nil, fmt.Errorf("%w: load caller profile: %w", regsync.ErrBackend, err)
	}
	return regsync.New(s.backend,
		regsync.WithTimeout(s.timeout),
		regsync.WithDepartment(u.Department),
	), nil
}
