package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	regID  = "11111111-1111-1111-1111-111111111111"
	userID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	civil  = "Ingeniería Civil"
)

const (
	updateSQL = `(?s)UPDATE event_registrations r\s+` +
		`SET amount_paid\s+= COALESCE\(\$3::numeric\(12, 2\), r\.amount_paid\),.*` +
		`WHEN COALESCE\(\$5::text, r\.payment_status\) = 'cancelled' THEN 'cancelled'\s+` +
		`WHEN COALESCE\(\$3::numeric\(12, 2\), r\.amount_paid\) >= r\.total_to_pay THEN 'paid'\s+` +
		`ELSE 'pending'.*` +
		`FROM active_users u\s+WHERE r\.id = \$1 AND u\.id = r\.user_id AND u\.department = \$2`
	getSQL  = `WHERE r\.id = \$1 AND u\.department = \$2`
	listSQL = `WHERE u\.department = \$1\s+ORDER BY r\.created_at DESC`
)

var regColumns = []string{
	"id", "user_id", "total_to_pay", "amount_paid", "payment_status", "organizer_notes",
	"number_of_guests", "attending_with_vehicle", "number_of_vehicles",
	"full_name", "phone_number", "email", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func addReg(rows *pgxmock.Rows, id, owed, paid, stored string) *pgxmock.Rows {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, userID, decimal.RequireFromString(owed), decimal.RequireFromString(paid), stored, (*string)(nil),
		1, false, 0,
		"Ana Pérez", (*string)(nil), (*string)(nil), at, at,
	)
}

type argFunc func(any) bool

func (f argFunc) Match(v any) bool { return f(v) }

func decimalArg(want string) pgxmock.Argument {
	return argFunc(func(v any) bool {
		d, ok := v.(*decimal.Decimal)
		return ok && d != nil && d.Equal(decimal.RequireFromString(want))
	})
}

func stringArg(want string) pgxmock.Argument {
	return argFunc(func(v any) bool {
		s, ok := v.(*string)
		return ok && s != nil && *s == want
	})
}

func nilArg() pgxmock.Argument {
	return argFunc(func(v any) bool {
		switch p := v.(type) {
		case *string:
			return p == nil
		case *decimal.Decimal:
			return p == nil
		}
		return v == nil
	})
}

func TestRegistrationRepository_UpdateAmountPaid(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectExec(updateSQL).
		WithArgs(regID, civil, decimalArg("1500"), nilArg(), nilArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(getSQL).
		WithArgs(regID, civil).
		WillReturnRows(addReg(pgxmock.NewRows(regColumns), regID, "1500", "1500", "paid"))

	reg, err := repo.Update(context.Background(), civil, regID, model.AmountPaidPatch(decimal.NewFromInt(1500)))

	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, reg.Status)
	assert.True(t, reg.AmountPaid.Equal(decimal.NewFromInt(1500)))
}

func TestRegistrationRepository_UpdateCancelSendsStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectExec(updateSQL).
		WithArgs(regID, civil, nilArg(), nilArg(), stringArg("cancelled"), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(getSQL).
		WithArgs(regID, civil).
		WillReturnRows(addReg(pgxmock.NewRows(regColumns), regID, "1500", "1500", "cancelled"))

	reg, err := repo.Update(context.Background(), civil, regID, model.CancelPatch())

	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, reg.Status)
}

func TestRegistrationRepository_UpdateOtherDepartmentIsNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectExec(updateSQL).
		WithArgs(regID, "Arquitectura", nilArg(), stringArg("nota"), nilArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := repo.Update(context.Background(), "Arquitectura", regID, model.NotesPatch("nota"))

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrationRepository_UpdateError(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectExec(updateSQL).
		WithArgs(regID, civil, decimalArg("10"), nilArg(), nilArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Update(context.Background(), civil, regID, model.AmountPaidPatch(decimal.NewFromInt(10)))

	assert.ErrorContains(t, err, "update registration")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRegistrationRepository_ListDerivesStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	rows := pgxmock.NewRows(regColumns)
	addReg(rows, "r-stale", "1500", "500", "paid")
	addReg(rows, "r-covered", "1500", "1500", "pending")
	addReg(rows, "r-cancelled", "1500", "1500", "cancelled")
	mock.ExpectQuery(listSQL).WithArgs(civil).WillReturnRows(rows)

	regs, err := repo.ListByDepartment(context.Background(), civil)

	require.NoError(t, err)
	require.Len(t, regs, 3)
	assert.Equal(t, model.StatusPending, regs[0].Status)
	assert.Equal(t, model.StatusPaid, regs[1].Status)
	assert.Equal(t, model.StatusCancelled, regs[2].Status)
}

func TestRegistrationRepository_GetNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectQuery(getSQL).WithArgs(regID, civil).WillReturnRows(pgxmock.NewRows(regColumns))

	_, err := repo.Get(context.Background(), civil, regID)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrationRepository_CreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT department FROM active_users WHERE id = \$1 FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"department"}).AddRow(civil))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM event_registrations WHERE user_id = \$1\)`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), NewRegistration{UserID: userID, AmountOwed: decimal.NewFromInt(1500)})

	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistrationRepository_CreateUniqueViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"department"}).AddRow(civil))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO event_registrations`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), NewRegistration{UserID: userID, AmountOwed: decimal.NewFromInt(1500)})

	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistrationRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewRegistrationRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"department"}).AddRow(civil))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO event_registrations`).
		WithArgs(pgxmock.AnyArg(), userID, 2, pgxmock.AnyArg(), "pending", false, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(getSQL).
		WithArgs(pgxmock.AnyArg(), civil).
		WillReturnRows(addReg(pgxmock.NewRows(regColumns), regID, "4500", "0", "pending"))

	reg, err := repo.Create(context.Background(), NewRegistration{
		UserID:         userID,
		NumberOfGuests: 2,
		AmountOwed:     decimal.NewFromInt(4500),
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reg.Status)
}

func TestUserRepository_OrganizerOf(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`WHERE id = \$1 AND is_organizer AND department = \$2`).
		WithArgs(userID, civil).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`WHERE id = \$1 AND is_organizer AND department = \$2`).
		WithArgs(userID, "Arquitectura").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.OrganizerOf(context.Background(), userID, civil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.OrganizerOf(context.Background(), userID, "Arquitectura")
	require.NoError(t, err)
	assert.False(t, ok)
}
