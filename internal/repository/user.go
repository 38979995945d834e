package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/jackc/pgx/v5"
)

// UserRepository handles pending users, accounts and completed profiles.
type UserRepository struct {
	db DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// PendingByActivation finds the pending user matching department and activation code.
func (r *UserRepository) PendingByActivation(ctx context.Context, department, code string) (*model.PendingUser, error) {
	return r.pending(ctx,
		`SELECT id, full_name, department, gender, activation_code, created_at
		 FROM pending_users
		 WHERE department = $1 AND activation_code = $2
		 LIMIT 1`,
		department, code,
	)
}

// PendingByID returns a pending user or ErrNotFound.
func (r *UserRepository) PendingByID(ctx context.Context, id string) (*model.PendingUser, error) {
	return r.pending(ctx,
		`SELECT id, full_name, department, gender, activation_code, created_at
		 FROM pending_users WHERE id = $1`,
		id,
	)
}

func (r *UserRepository) pending(ctx context.Context, query string, args ...any) (*model.PendingUser, error) {
	var p model.PendingUser
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&p.ID, &p.FullName, &p.Department, &p.Gender, &p.ActivationCode, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pending user: %w", err)
	}
	return &p, nil
}

// DeletePending removes a pending user once its profile is complete.
func (r *UserRepository) DeletePending(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM pending_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pending user: %w", err)
	}
	return nil
}

// CreateAccount inserts an account. A duplicate email yields ErrEmailTaken.
func (r *UserRepository) CreateAccount(ctx context.Context, acc *model.Account) error {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash, department, gender, original_full_name, pending_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		acc.ID, acc.Email, acc.PasswordHash, acc.Department, acc.Gender, acc.OriginalFullName, acc.PendingID, acc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// AccountByEmail returns the account registered under email or ErrNotFound.
func (r *UserRepository) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.account(ctx, `WHERE email = $1`, email)
}

// AccountByID returns an account or ErrNotFound.
func (r *UserRepository) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	return r.account(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) account(ctx context.Context, where string, arg any) (*model.Account, error) {
	var a model.Account
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, department, gender, original_full_name, pending_id, created_at
		 FROM accounts `+where,
		arg,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Department, &a.Gender, &a.OriginalFullName, &a.PendingID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// CreateActiveUser stores a completed profile. A second profile for the same
// account yields ErrProfileExists.
func (r *UserRepository) CreateActiveUser(ctx context.Context, u *model.ActiveUser) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO active_users
		   (id, first_name, last_name, nickname, full_name, department, gender,
		    date_of_birth, phone_number, about_me, profile_photo, is_organizer, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID, u.FirstName, u.LastName, u.Nickname, u.FullName, u.Department, u.Gender,
		u.DateOfBirth, u.PhoneNumber, u.AboutMe, u.ProfilePhoto, u.IsOrganizer, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return fmt.Errorf("insert active user: %w", err)
	}
	return nil
}

// ActiveUser returns a completed profile or ErrNotFound.
func (r *UserRepository) ActiveUser(ctx context.Context, id string) (*model.ActiveUser, error) {
	var u model.ActiveUser
	err := r.db.QueryRow(ctx,
		`SELECT id, first_name, last_name, nickname, full_name, department, gender,
		        date_of_birth, phone_number, about_me, profile_photo, is_organizer, created_at
		 FROM active_users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.FullName, &u.Department, &u.Gender,
		&u.DateOfBirth, &u.PhoneNumber, &u.AboutMe, &u.ProfilePhoto, &u.IsOrganizer, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active user: %w", err)
	}
	return &u, nil
}

// HasProfile reports whether the account completed its profile.
func (r *UserRepository) HasProfile(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM active_users WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check profile: %w", err)
	}
	return ok, nil
}

// OrganizerOf reports whether userID is flagged as organizer of department.
// The flag and the department are both read on every call.
func (r *UserRepository) OrganizerOf(ctx context.Context, userID, department string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM active_users
		   WHERE id = $1 AND is_organizer AND department = $2
		 )`,
		userID, department,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check organizer: %w", err)
	}
	return ok, nil
}

// Directory lists every completed profile ordered by full name.
func (r *UserRepository) Directory(ctx context.Context) ([]model.DirectoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, full_name, department, profile_photo
		 FROM active_users
		 ORDER BY full_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	defer rows.Close()

	entries := []model.DirectoryEntry{}
	for rows.Next() {
		var e model.DirectoryEntry
		if err := rows.Scan(&e.ID, &e.FullName, &e.Department, &e.ProfilePhoto); err != nil {
			return nil, fmt.Errorf("scan directory entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
