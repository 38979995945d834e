// Package repository implements all database queries for the reunion service.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when a user signs up for the reunion twice.
var ErrAlreadyRegistered = errors.New("user already registered for the reunion")

// ErrEmailTaken is returned when an account with the same email exists.
var ErrEmailTaken = errors.New("email already in use")

// ErrProfileExists is returned when a profile was already completed for the account.
var ErrProfileExists = errors.New("profile already completed")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RegistrationRepository handles persistence for event registrations.
type RegistrationRepository struct {
	db DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const selectRegistration = `
SELECT r.id, r.user_id, r.total_to_pay, r.amount_paid, r.payment_status, r.organizer_notes,
       r.number_of_guests, r.attending_with_vehicle, r.number_of_vehicles,
       u.full_name, u.phone_number, a.email, r.created_at, r.updated_at
FROM event_registrations r
JOIN active_users u ON u.id = r.user_id
LEFT JOIN accounts a ON a.id = u.id`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var (
		reg    model.Registration
		stored string
	)
	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.AmountOwed, &reg.AmountPaid, &stored, &reg.OrganizerNotes,
		&reg.NumberOfGuests, &reg.AttendingWithVehicle, &reg.NumberOfVehicles,
		&reg.FullName, &reg.PhoneNumber, &reg.Email, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Only the cancel override is trusted from storage; paid/pending is derived.
	reg.Status = model.DeriveStatus(reg.AmountOwed, reg.AmountPaid, model.PaymentStatus(stored) == model.StatusCancelled)
	return &reg, nil
}

// ListByDepartment returns every registration whose attendee belongs to department,
// newest first.
func (r *RegistrationRepository) ListByDepartment(ctx context.Context, department string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		selectRegistration+`
		 WHERE u.department = $1
		 ORDER BY r.created_at DESC, r.id`,
		department,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	regs := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// Stats aggregates the department's registrations.
func (r *RegistrationRepository) Stats(ctx context.Context, department string) (model.DepartmentStats, error) {
	regs, err := r.ListByDepartment(ctx, department)
	if err != nil {
		return model.DepartmentStats{}, fmt.Errorf("department stats: %w", err)
	}
	return model.Summarize(regs), nil
}

// Get returns one registration of department or ErrNotFound.
func (r *RegistrationRepository) Get(ctx context.Context, department, id string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		selectRegistration+` WHERE r.id = $1 AND u.department = $2`,
		id, department,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// GetByUser returns the registration owned by userID or ErrNotFound.
func (r *RegistrationRepository) GetByUser(ctx context.Context, userID string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		selectRegistration+` WHERE r.user_id = $1`,
		userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration by user: %w", err)
	}
	return reg, nil
}

// Update applies patch to a registration of department. The stored payment_status
// is rewritten from the resulting amounts so it never disagrees with what reads derive.
func (r *RegistrationRepository) Update(ctx context.Context, department, id string, patch model.RegistrationPatch) (*model.Registration, error) {
	if patch.Empty() {
		return r.Get(ctx, department, id)
	}

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE event_registrations r
		 SET amount_paid     = COALESCE($3::numeric(12, 2), r.amount_paid),
		     organizer_notes = COALESCE($4::text, r.organizer_notes),
		     payment_status  = CASE
		         WHEN COALESCE($5::text, r.payment_status) = 'cancelled' THEN 'cancelled'
		         WHEN COALESCE($3::numeric(12, 2), r.amount_paid) >= r.total_to_pay THEN 'paid'
		         ELSE 'pending'
		     END,
		     updated_at      = $6
		 FROM active_users u
		 WHERE r.id = $1 AND u.id = r.user_id AND u.department = $2`,
		id, department, patch.AmountPaid, patch.Notes, status, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, department, id)
}

// NewRegistration describes an attendee signing up.
type NewRegistration struct {
	UserID               string
	NumberOfGuests       int
	AttendingWithVehicle bool
	NumberOfVehicles     int
	AmountOwed           decimal.Decimal
}

// Create inserts a registration inside a transaction. The attendee row is locked
// with SELECT ... FOR UPDATE so two concurrent sign-ups of the same user serialise
// and the second one sees the first and fails with ErrAlreadyRegistered.
func (r *RegistrationRepository) Create(ctx context.Context, in NewRegistration) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var department string
	err = tx.QueryRow(ctx,
		`SELECT department FROM active_users WHERE id = $1 FOR UPDATE`,
		in.UserID,
	).Scan(&department)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock attendee row: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_registrations WHERE user_id = $1)`,
		in.UserID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		err = ErrAlreadyRegistered
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO event_registrations
		   (id, user_id, number_of_guests, total_to_pay, amount_paid, payment_status,
		    attending_with_vehicle, number_of_vehicles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $8)`,
		id, in.UserID, in.NumberOfGuests, in.AmountOwed, string(model.DeriveStatus(in.AmountOwed, decimal.Zero, false)),
		in.AttendingWithVehicle, in.NumberOfVehicles, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrAlreadyRegistered
			return nil, err
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return r.Get(ctx, department, id)
}
