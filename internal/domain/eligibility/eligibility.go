// Package eligibility answers when a donor may give blood again.
//
// The cooldown is calendar-month based. When the target month is shorter
// than the day of the last donation (Nov 30 + 3 months), the result clamps
// to the last day of the target month (Feb 28/29) rather than rolling over
// into the following month.
package eligibility

import "time"

// CooldownMonths is the wait between whole-blood donations.
const CooldownMonths = 3

// NextEligibleDate returns the first instant a donor who last gave at last
// may donate again. The time of day and location of last are preserved.
func NextEligibleDate(last time.Time) time.Time {
	return addMonthsClamped(last, CooldownMonths)
}

// CanDonateAgain reports whether a donor whose last donation was at last is
// eligible at now. A donor who has never donated (nil) is always eligible.
func CanDonateAgain(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return !now.Before(NextEligibleDate(*last))
}

// Status is the display summary returned to donors.
type Status struct {
	CanDonate        bool       `json:"canDonate"`
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`
	NextEligibleDate *time.Time `json:"nextEligibleDate,omitempty"`
	DaysRemaining    int        `json:"daysRemaining"`
}

// Evaluate builds a Status for last as of now.
func Evaluate(last *time.Time, now time.Time) Status {
	st := Status{CanDonate: CanDonateAgain(last, now), LastDonationDate: last}
	if last == nil {
		return st
	}
	next := NextEligibleDate(*last)
	st.NextEligibleDate = &next
	if !st.CanDonate {
		remaining := next.Sub(now)
		days := int(remaining / (24 * time.Hour))
		if remaining%(24*time.Hour) != 0 {
			days++
		}
		st.DaysRemaining = days
	}
	return st
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
