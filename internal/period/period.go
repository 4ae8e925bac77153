// Package period computes which payroll months must be present in the dataset
// and which of them are still missing.
package period

import (
	"log/slog"
	"slices"
	"time"

	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
)

// Mode selects how the required window is computed.
type Mode int

const (
	// ModeTargetedYear covers one year: a rolling window when the target is
	// the current year, January–December otherwise.
	ModeTargetedYear Mode = iota
	// ModeFullScan covers every month since the service started.
	ModeFullScan
)

// String implements fmt.Stringer for logging.
func (m Mode) String() string {
	if m == ModeFullScan {
		return "full_scan"
	}
	return "targeted_year"
}

// YearMonth is a Gregorian calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Next returns the following month, carrying into the next year.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Prev returns the preceding month, borrowing from the previous year.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Key returns the month key for ym.
func (ym YearMonth) Key() payslip.MonthKey {
	return payslip.NewMonthKey(ym.Year, ym.Month)
}

// UpperBound is the latest month whose payslip should already be issued.
// Before the issue day the current month is not expected yet.
func UpperBound(today time.Time) YearMonth {
	end := YearMonth{Year: today.Year(), Month: today.Month()}
	if today.Day() < config.IssueDay {
		return end.Prev()
	}
	return end
}

// bounds returns the inclusive start and end of the required window.
func bounds(today time.Time, mode Mode, uiYear int) (YearMonth, YearMonth) {
	if mode == ModeFullScan {
		start := YearMonth{Year: config.ServiceStartYear, Month: config.ServiceStartMonth}
		return start, UpperBound(today)
	}
	if uiYear == today.Year() {
		start := YearMonth{Year: today.Year() - 1, Month: config.RollingStartMonth}
		return start, UpperBound(today)
	}
	return YearMonth{Year: uiYear, Month: time.January}, YearMonth{Year: uiYear, Month: time.December}
}

// Window returns every month key in the required window. A window whose start
// is after its end is empty.
func Window(today time.Time, mode Mode, uiYear int) KeySet {
	start, end := bounds(today, mode, uiYear)
	set := make(KeySet)
	for ym := start; !end.Before(ym); ym = ym.Next() {
		set.Add(ym.Key())
	}

	slog.Debug(config.MsgWindowComputed,
		config.LogKeyComponent, config.CompPeriod,
		config.LogKeyMode, mode.String(),
		config.LogKeyStart, start.Key().String(),
		config.LogKeyEnd, end.Key().String(),
		config.LogKeyCount, set.Len(),
	)
	return set
}

// Delta returns the months required but not yet present.
func Delta(required, existing KeySet) KeySet {
	delta := make(KeySet, required.Len())
	for k := range required {
		if !existing.Has(k) {
			delta.Add(k)
		}
	}
	return delta
}

// YearsToRun returns the Gregorian years covered by required, ascending.
// It is derived from the required window, not from the delta, so a year with
// nothing missing is still listed.
func YearsToRun(required KeySet) []int {
	seen := make(map[int]struct{})
	for k := range required {
		if y := k.Year(); y != 0 {
			seen[y] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}
