// Package model defines the core domain types for the reunion service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the derived payment state of a registration.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusCancelled PaymentStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// DeriveStatus is the single rule for payment status: an explicit cancellation wins,
// otherwise a registration is paid once the amount paid covers the amount owed.
func DeriveStatus(owed, paid decimal.Decimal, cancelled bool) PaymentStatus {
	if cancelled {
		return StatusCancelled
	}
	if paid.GreaterThanOrEqual(owed) {
		return StatusPaid
	}
	return StatusPending
}

// Registration is one attendee's signup for the reunion as the organizer sees it.
type Registration struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	AmountOwed           decimal.Decimal `json:"total_to_pay"`
	AmountPaid           decimal.Decimal `json:"amount_paid"`
	Status               PaymentStatus   `json:"payment_status"`
	OrganizerNotes       *string         `json:"organizer_notes"`
	NumberOfGuests       int             `json:"number_of_guests"`
	AttendingWithVehicle bool            `json:"attending_with_vehicle"`
	NumberOfVehicles     int             `json:"number_of_vehicles"`
	FullName             string          `json:"full_name"`
	PhoneNumber          *string         `json:"phone_number"`
	Email                *string         `json:"email"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Cancelled reports whether the registration carries the explicit cancel override.
func (r *Registration) Cancelled() bool {
	return r.Status == StatusCancelled
}

// Outstanding is what is still owed, never below zero.
func (r *Registration) Outstanding() decimal.Decimal {
	rest := r.AmountOwed.Sub(r.AmountPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Attendees counts the registrant plus their guests.
func (r *Registration) Attendees() int {
	return r.NumberOfGuests + 1
}

// RegistrationPatch is a partial update of the organizer-editable columns.
// Nil fields are left untouched. Build one with the constructors below.
type RegistrationPatch struct {
	Status     *PaymentStatus
	AmountPaid *decimal.Decimal
	Notes      *string
}

func CancelPatch() RegistrationPatch {
	s := StatusCancelled
	return RegistrationPatch{Status: &s}
}

// ReactivatePatch stores the non-cancelled status derived from the current amounts.
func ReactivatePatch(owed, paid decimal.Decimal) RegistrationPatch {
	s := DeriveStatus(owed, paid, false)
	return RegistrationPatch{Status: &s}
}

func AmountPaidPatch(amount decimal.Decimal) RegistrationPatch {
	return RegistrationPatch{AmountPaid: &amount}
}

func NotesPatch(text string) RegistrationPatch {
	return RegistrationPatch{Notes: &text}
}

// Empty reports whether the patch would change nothing.
func (p RegistrationPatch) Empty() bool {
	return p.Status == nil && p.AmountPaid == nil && p.Notes == nil
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
}

// PendingUser is an imported alumnus that has not activated an account yet.
type PendingUser struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Department     string    `json:"department"`
	Gender         string    `json:"gender"`
	ActivationCode string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Account holds sign-in credentials plus the data copied from the pending user.
type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Department       string    `json:"department"`
	Gender           string    `json:"gender"`
	OriginalFullName string    `json:"original_full_name"`
	PendingID        *string   `json:"pending_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ActiveUser is an alumnus with a completed profile.
type ActiveUser struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Nickname     *string   `json:"nickname,omitempty"`
	FullName     string    `json:"full_name"`
	Department   string    `json:"department"`
	Gender       string    `json:"gender"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	PhoneNumber  string    `json:"phone_number"`
	AboutMe      string    `json:"about_me"`
	ProfilePhoto string    `json:"profile_photo"`
	IsOrganizer  bool      `json:"is_organizer"`
	CreatedAt    time.Time `json:"created_at"`
}

// DirectoryEntry is the public card shown in the alumni directory.
type DirectoryEntry struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Department   string `json:"department"`
	ProfilePhoto string `json:"profile_photo"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
