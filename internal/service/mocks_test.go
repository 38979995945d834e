package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/events"
	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/stretchr/testify/mock"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) PendingByActivation(ctx context.Context, department, code string) (*model.PendingUser, error) {
	args := m.Called(ctx, department, code)
	p, _ := args.Get(0).(*model.PendingUser)
	return p, args.Error(1)
}

func (m *mockUsers) PendingByID(ctx context.Context, id string) (*model.PendingUser, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.PendingUser)
	return p, args.Error(1)
}

func (m *mockUsers) DeletePending(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) CreateAccount(ctx context.Context, acc *model.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *mockUsers) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *mockUsers) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *mockUsers) CreateActiveUser(ctx context.Context, u *model.ActiveUser) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUsers) ActiveUser(ctx context.Context, id string) (*model.ActiveUser, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.ActiveUser)
	return u, args.Error(1)
}

func (m *mockUsers) HasProfile(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) OrganizerOf(ctx context.Context, userID, department string) (bool, error) {
	args := m.Called(ctx, userID, department)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) Directory(ctx context.Context) ([]model.DirectoryEntry, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]model.DirectoryEntry)
	return e, args.Error(1)
}

type mockRegs struct{ mock.Mock }

func (m *mockRegs) ListByDepartment(ctx context.Context, department string) ([]model.Registration, error) {
	args := m.Called(ctx, department)
	r, _ := args.Get(0).([]model.Registration)
	return r, args.Error(1)
}

func (m *mockRegs) Stats(ctx context.Context, department string) (model.DepartmentStats, error) {
	args := m.Called(ctx, department)
	st, _ := args.Get(0).(model.DepartmentStats)
	return st, args.Error(1)
}

func (m *mockRegs) Get(ctx context.Context, department, id string) (*model.Registration, error) {
	args := m.Called(ctx, department, id)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

func (m *mockRegs) Update(ctx context.Context, department, id string, patch model.RegistrationPatch) (*model.Registration, error) {
	args := m.Called(ctx, department, id, patch)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

func (m *mockRegs) Create(ctx context.Context, in repository.NewRegistration) (*model.Registration, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

func (m *mockRegs) GetByUser(ctx context.Context, userID string) (*model.Registration, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context) ([]model.DirectoryEntry, bool) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]model.DirectoryEntry)
	return e, args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, entries []model.DirectoryEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubTokens struct{}

func (stubTokens) Issue(userID string) (string, time.Time, error) {
	return "token-" + userID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev events.RegistrationChanged) error {
	return m.Called(ctx, ev).Error(0)
}
