package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		owed      string
		paid      string
		cancelled bool
		want      PaymentStatus
	}{
		{"nothing paid", "1500", "0", false, StatusPending},
		{"partially paid", "1000", "800", false, StatusPending},
		{"exactly paid", "1500", "1500", false, StatusPaid},
		{"overpaid", "1500", "2000", false, StatusPaid},
		{"cancelled while paid", "1500", "1500", true, StatusCancelled},
		{"cancelled unpaid", "1500", "0", true, StatusCancelled},
		{"free ticket", "0", "0", false, StatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(d(tt.owed), d(tt.paid), tt.cancelled))
		})
	}
}

func TestReactivatePatchNeverCancels(t *testing.T) {
	p := ReactivatePatch(d("1000"), d("800"))
	if assert.NotNil(t, p.Status) {
		assert.Equal(t, StatusPending, *p.Status)
	}
	assert.Nil(t, p.AmountPaid)
	assert.Nil(t, p.Notes)

	p = ReactivatePatch(d("1500"), d("1500"))
	assert.Equal(t, StatusPaid, *p.Status)
}

func TestRegistrationPatchEmpty(t *testing.T) {
	assert.True(t, RegistrationPatch{}.Empty())
	assert.False(t, NotesPatch("").Empty())
	assert.False(t, AmountPaidPatch(decimal.Zero).Empty())
	assert.False(t, CancelPatch().Empty())
}

func TestOutstandingFloorsAtZero(t *testing.T) {
	r := Registration{AmountOwed: d("1500"), AmountPaid: d("2000")}
	assert.True(t, r.Outstanding().IsZero())

	r.AmountPaid = d("500.50")
	assert.True(t, r.Outstanding().Equal(d("999.50")))
}

func TestSummarize(t *testing.T) {
	regs := []Registration{
		{AmountOwed: d("1500"), AmountPaid: d("0"), Status: StatusPending},
		{AmountOwed: d("1500"), AmountPaid: d("0"), Status: StatusPending},
		{AmountOwed: d("1500"), AmountPaid: d("1500"), Status: StatusCancelled},
	}

	st := Summarize(regs)

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.Cancelled)
	assert.Equal(t, 2, st.TotalAttendees)
	assert.True(t, st.TotalCollected.Equal(d("1500")), "collected %s", st.TotalCollected)
	assert.True(t, st.TotalOutstanding.Equal(d("3000")), "outstanding %s", st.TotalOutstanding)
}

func TestSummarizeCountsGuestsOfActiveOnly(t *testing.T) {
	regs := []Registration{
		{AmountOwed: d("4500"), AmountPaid: d("4500"), Status: StatusPaid, NumberOfGuests: 2},
		{AmountOwed: d("3000"), AmountPaid: d("0"), Status: StatusCancelled, NumberOfGuests: 1},
		{AmountOwed: d("1500"), AmountPaid: d("2000"), Status: StatusPaid},
	}

	st := Summarize(regs)

	assert.Equal(t, 4, st.TotalAttendees)
	assert.True(t, st.TotalOutstanding.IsZero())
	assert.True(t, st.TotalCollected.Equal(d("6500")))
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	assert.Zero(t, st.Total)
	assert.True(t, st.TotalCollected.IsZero())
	assert.True(t, st.TotalOutstanding.IsZero())
}

func TestDepartmentStatsJSONKeys(t *testing.T) {
	st := DepartmentStats{Total: 3, Active: 2, Cancelled: 1, TotalAttendees: 4, TotalCollected: d("1500"), TotalOutstanding: d("3000")}

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]any{
		"total_registrations":     float64(3),
		"active_registrations":    float64(2),
		"cancelled_registrations": float64(1),
		"total_attendees":         float64(4),
		"total_collected":         "1500",
		"total_outstanding":       "3000",
	}, got)
}
