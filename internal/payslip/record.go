package payslip

import (
	"slices"
	"strings"
	"time"
)

// Record is one month of the dataset. Records are created by the portal
// client or the store and never modified afterwards.
type Record struct {
	// DateLabel is the list label, e.g. "令和05年03月度給与". Its first 8 runes
	// are the MonthKey.
	DateLabel string

	TotalPay Value[int64]
	NetPay   Value[int64]

	OvertimeHours          Value[float64]
	PaidLeaveConsumedHours Value[float64]
	PaidLeaveUsedDays      Value[float64]
	PaidLeaveRemainingDays Value[float64]
}

// Key returns the month key of the record.
func (r Record) Key() (MonthKey, bool) {
	return KeyOf(r.DateLabel)
}

// Period decodes the Gregorian year and month of the record.
func (r Record) Period() (int, time.Month, bool) {
	return ParsePeriod(r.DateLabel)
}

// InYear reports whether the label belongs to the Gregorian year, matching
// on the era-year fragment as the portal list does.
func (r Record) InYear(year int) bool {
	return strings.Contains(r.DateLabel, YearMarker(year))
}

// sortKey maps a record to a comparable month start; undecodable labels map
// to the zero time so they sort first.
func (r Record) sortKey() time.Time {
	y, m, ok := r.Period()
	if !ok {
		return time.Time{}
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// SortCanonical orders records ascending by month in place. The sort is
// stable, so records for the same month keep their relative order and
// sorting twice is a no-op.
func SortCanonical(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.sortKey().Compare(b.sortKey())
	})
}

// Sorted returns a canonically ordered copy.
func Sorted(records []Record) []Record {
	out := slices.Clone(records)
	SortCanonical(out)
	return out
}
