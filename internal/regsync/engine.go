package regsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 10 * time.Second

// Engine holds one organizer's view of a department. It is meant to live for a
// single session or request and is not shared between callers.
type Engine struct {
	backend Backend
	timeout time.Duration

	busy atomic.Bool
	seq  atomic.Uint64

	mu         sync.RWMutex
	department string
	regs       []model.Registration
	stats      model.DepartmentStats
	applied    uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds every backend round trip. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithDepartment preselects the department so mutators can run before the first Load.
func WithDepartment(department string) Option {
	return func(e *Engine) { e.department = department }
}

// New returns an Engine with no department loaded and the default timeout.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Busy reports whether a mutation and its reconciliation are in flight.
func (e *Engine) Busy() bool {
	return e.busy.Load()
}

// Department is the department of the last applied load, or the preselected one.
func (e *Engine) Department() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.department
}

// Snapshot returns a copy of the current list and stats.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	regs := make([]model.Registration, len(e.regs))
	copy(regs, e.regs)
	return Snapshot{
		Department:    e.department,
		Registrations: regs,
		Stats:         e.stats,
	}
}

// Load authorizes the caller for department and replaces the list and stats with
// fresh backend state.
func (e *Engine) Load(ctx context.Context, department string) error {
	department = strings.TrimSpace(department)
	if department == "" {
		return fmt.Errorf("%w: department is required", ErrValidation)
	}
	if err := e.authorize(ctx, department); err != nil {
		return err
	}
	return e.reload(ctx, department)
}

// Refresh reloads the current department.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Load(ctx, e.Department())
}

// Cancel marks a registration cancelled regardless of what has been paid.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	return e.mutate(ctx, "cancel", id, func(context.Context, string) (model.RegistrationPatch, error) {
		return model.CancelPatch(), nil
	})
}

// Reactivate lifts a cancellation. The new status comes from the current amounts only.
func (e *Engine) Reactivate(ctx context.Context, id string) error {
	return e.mutate(ctx, "reactivate", id, func(ctx context.Context, department string) (model.RegistrationPatch, error) {
		var reg *model.Registration
		err := e.call(ctx, "get registration", func(ctx context.Context) error {
			var err error
			reg, err = e.backend.GetRegistration(ctx, department, id)
			return err
		})
		if err != nil {
			return model.RegistrationPatch{}, err
		}
		return model.ReactivatePatch(reg.AmountOwed, reg.AmountPaid), nil
	})
}

// UpdateAmountPaid stores a new amount paid. raw must be a finite, non-negative decimal.
func (e *Engine) UpdateAmountPaid(ctx context.Context, id, raw string) error {
	return e.mutate(ctx, "update amount paid", id, func(context.Context, string) (model.RegistrationPatch, error) {
		amount, err := ParseAmount(raw)
		if err != nil {
			return model.RegistrationPatch{}, err
		}
		return model.AmountPaidPatch(amount), nil
	})
}

// UpdateNotes replaces the organizer note.
func (e *Engine) UpdateNotes(ctx context.Context, id, text string) error {
	return e.mutate(ctx, "update notes", id, func(context.Context, string) (model.RegistrationPatch, error) {
		return model.NotesPatch(text), nil
	})
}

// MaxAmount is the largest amount the amount_paid column (NUMERIC(12,2)) can hold.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ParseAmount accepts a plain decimal such as "0", "1500" or "799.50". Amounts with
// more than two significant decimals or above MaxAmount are rejected, never rounded.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount paid cannot be empty", ErrValidation)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount paid %q", ErrValidation, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount paid cannot be negative", ErrValidation)
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, fmt.Errorf("%w: amount paid has more than two decimals", ErrValidation)
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount paid exceeds %s", ErrValidation, MaxAmount.StringFixed(2))
	}
	return amount, nil
}

type patchFunc func(ctx context.Context, department string) (model.RegistrationPatch, error)

func (e *Engine) mutate(ctx context.Context, op, id string, build patchFunc) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.busy.Store(false)

	department := e.Department()
	if department == "" {
		return fmt.Errorf("%s: %w: no department selected", op, ErrValidation)
	}

	if err := e.authorize(ctx, department); err != nil {
		return err
	}

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w: invalid registration id", op, ErrValidation)
	}

	patch, err := build(ctx, department)
	if err != nil {
		e.logFailure(op, id, err)
		return err
	}

	err = e.call(ctx, op, func(ctx context.Context) error {
		_, err := e.backend.UpdateRegistration(ctx, department, id, patch)
		return err
	})
	if err != nil {
		e.logFailure(op, id, err)
		return err
	}

	logger.Log.Info("registration updated",
		logger.String("op", op),
		logger.String("registration_id", id),
		logger.String("department", department),
	)

	// The write result is discarded on purpose: the reload is the only state we keep.
	return e.reload(ctx, department)
}

func (e *Engine) authorize(ctx context.Context, department string) error {
	var who *model.Identity
	err := e.call(ctx, "resolve caller", func(ctx context.Context) error {
		var err error
		who, err = e.backend.CurrentUser(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if who == nil || who.UserID == "" {
		return fmt.Errorf("%w: not authenticated", ErrAuthorization)
	}

	var ok bool
	err = e.call(ctx, "check organizer", func(ctx context.Context) error {
		var err error
		ok, err = e.backend.IsOrganizer(ctx, *who, department)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		logger.Log.Warn("organizer check failed",
			logger.String("user_id", who.UserID),
			logger.String("department", department),
		)
		return fmt.Errorf("%w: not an organizer of %s", ErrAuthorization, department)
	}
	return nil
}

// reload fetches list and stats concurrently and applies them unless a newer
// load has already been applied.
func (e *Engine) reload(ctx context.Context, department string) error {
	seq := e.seq.Add(1)

	var (
		regs  []model.Registration
		stats model.DepartmentStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.call(gctx, "fetch registrations", func(ctx context.Context) error {
			var err error
			regs, err = e.backend.FetchRegistrations(ctx, department)
			return err
		})
	})
	g.Go(func() error {
		return e.call(gctx, "fetch stats", func(ctx context.Context) error {
			var err error
			stats, err = e.backend.FetchStats(ctx, department)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq < e.applied {
		logger.Log.Debug("stale load discarded",
			logger.Uint64("seq", seq),
			logger.Uint64("applied", e.applied),
		)
		return nil
	}
	e.applied = seq
	e.department = department
	e.regs = regs
	e.stats = stats
	return nil
}

// call runs one backend round trip under the engine timeout.
func (e *Engine) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		return classify(op, err)
	}
	return nil
}

func (e *Engine) logFailure(op, id string, err error) {
	logger.Log.Warn("registration change failed",
		logger.String("op", op),
		logger.String("registration_id", id),
		logger.Error(err),
	)
}
