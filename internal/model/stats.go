package model

import "github.com/shopspring/decimal"

// DepartmentStats aggregates every registration of one department.
//
// TotalAttendees counts guests+1 over active registrations only. TotalCollected sums
// amount_paid over all registrations, cancelled included, because cancelling does not
// refund. TotalOutstanding only counts what active registrations still owe.
type DepartmentStats struct {
	Total            int             `json:"total_registrations"`
	Active           int             `json:"active_registrations"`
	Cancelled        int             `json:"cancelled_registrations"`
	TotalAttendees   int             `json:"total_attendees"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// Summarize folds registrations into DepartmentStats.
func Summarize(regs []Registration) DepartmentStats {
	st := DepartmentStats{
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for i := range regs {
		r := &regs[i]
		st.Total++
		st.TotalCollected = st.TotalCollected.Add(r.AmountPaid)
		if r.Cancelled() {
			st.Cancelled++
			continue
		}
		st.Active++
		st.TotalAttendees += r.Attendees()
		st.TotalOutstanding = st.TotalOutstanding.Add(r.Outstanding())
	}
	return st
}
