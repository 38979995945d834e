package regsync

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/shopspring/decimal"
)

// row is what the fake stores. Status is derived on every read, like the real backend.
type row struct {
	id         string
	department string
	owed       decimal.Decimal
	paid       decimal.Decimal
	cancelled  bool
	notes      *string
	guests     int
	name       string
}

type fakeBackend struct {
	mu sync.Mutex

	caller     *model.Identity
	organizers map[string]string // user id -> department
	rows       map[string]*row

	fetchErr  error
	updateErr error
	updates   int
	loads     int

	// onFetch runs inside FetchRegistrations, before the rows are read.
	onFetch func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		organizers: map[string]string{},
		rows:       map[string]*row{},
	}
}

func (f *fakeBackend) add(r row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := r
	f.rows[r.id] = &cp
}

func (f *fakeBackend) read(r *row) model.Registration {
	return model.Registration{
		ID:             r.id,
		AmountOwed:     r.owed,
		AmountPaid:     r.paid,
		Status:         model.DeriveStatus(r.owed, r.paid, r.cancelled),
		OrganizerNotes: r.notes,
		NumberOfGuests: r.guests,
		FullName:       r.name,
	}
}

func (f *fakeBackend) get(id string) model.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(f.rows[id])
}

func (f *fakeBackend) CurrentUser(context.Context) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caller, nil
}

func (f *fakeBackend) IsOrganizer(_ context.Context, who model.Identity, department string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dep, ok := f.organizers[who.UserID]
	return ok && dep == department, nil
}

func (f *fakeBackend) FetchRegistrations(_ context.Context, department string) ([]model.Registration, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []model.Registration
	for _, r := range f.rows {
		if r.department == department {
			out = append(out, f.read(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeBackend) FetchStats(ctx context.Context, department string) (model.DepartmentStats, error) {
	f.mu.Lock()
	var regs []model.Registration
	for _, r := range f.rows {
		if r.department == department {
			regs = append(regs, f.read(r))
		}
	}
	f.mu.Unlock()
	return model.Summarize(regs), nil
}

func (f *fakeBackend) GetRegistration(_ context.Context, department, id string) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.department != department {
		return nil, ErrNotFound
	}
	reg := f.read(r)
	return &reg, nil
}

func (f *fakeBackend) UpdateRegistration(_ context.Context, department, id string, p model.RegistrationPatch) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.rows[id]
	if !ok || r.department != department {
		return nil, ErrNotFound
	}
	f.updates++
	if p.Status != nil {
		r.cancelled = *p.Status == model.StatusCancelled
	}
	if p.AmountPaid != nil {
		r.paid = *p.AmountPaid
	}
	if p.Notes != nil {
		n := *p.Notes
		r.notes = &n
	}
	reg := f.read(r)
	return &reg, nil
}

var errTransport = errors.New("connection reset by peer")
