// Package summary derives calendar-year and fiscal-year figures from the
// dataset. Nothing here is persisted.
package summary

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
)

// CalendarYear holds the January–December totals of one year. The Latest*
// fields are copied from the most recent record, sentinel included.
type CalendarYear struct {
	TotalPay           int64
	TotalNetPay        int64
	TotalOvertimeHours decimal.Decimal

	LatestLeaveConsumedHours payslip.Value[float64]
	LatestLeaveUsedDays      payslip.Value[float64]
	LatestLeaveRemainingDays payslip.Value[float64]
}

// ForCalendarYear sums the records of one year, which must already be in
// canonical order. Unavailable figures contribute nothing.
func ForCalendarYear(records []payslip.Record) CalendarYear {
	var s CalendarYear
	if len(records) == 0 {
		return s
	}

	for _, r := range records {
		s.TotalPay += payslip.Sum(r.TotalPay)
		s.TotalNetPay += payslip.Sum(r.NetPay)
		s.TotalOvertimeHours = s.TotalOvertimeHours.Add(hours(r.OvertimeHours))
	}

	latest := records[len(records)-1]
	s.LatestLeaveConsumedHours = latest.PaidLeaveConsumedHours
	s.LatestLeaveUsedDays = latest.PaidLeaveUsedDays
	s.LatestLeaveRemainingDays = latest.PaidLeaveRemainingDays

	slog.Debug("Calendar-year summary computed",
		config.LogKeyComponent, config.CompSummary,
		config.LogKeyCount, len(records),
	)
	return s
}

// InFiscalYear reports whether (year, month) falls in the fiscal year that
// starts in April of fiscalYear.
func InFiscalYear(fiscalYear, year int, month time.Month) bool {
	switch year {
	case fiscalYear:
		return month >= config.FiscalStartMonth
	case fiscalYear + 1:
		return month < config.FiscalStartMonth
	}
	return false
}

// FiscalYearOvertime sums overtime from April of year to March of year+1 over
// the whole dataset. Records with an undecodable label or Unavailable overtime
// are skipped.
func FiscalYearOvertime(all []payslip.Record, year int) decimal.Decimal {
	var total decimal.Decimal
	for _, r := range all {
		y, m, ok := r.Period()
		if !ok || !InFiscalYear(year, y, m) {
			continue
		}
		total = total.Add(hours(r.OvertimeHours))
	}
	return total
}

// hours converts a figure to a decimal at the precision it was read with,
// so 10.1 + 20.2 totals exactly 30.3. Unavailable is zero.
func hours(v payslip.Value[float64]) decimal.Decimal {
	f, ok := v.Get()
	if !ok {
		return decimal.Decimal{}
	}
	return decimal.NewFromFloat(f)
}

// RecordsForYear returns the records labelled with the year, canonically
// ordered.
func RecordsForYear(all []payslip.Record, year int) []payslip.Record {
	var out []payslip.Record
	for _, r := range all {
		if r.InYear(year) {
			out = append(out, r)
		}
	}
	payslip.SortCanonical(out)
	return out
}

// CountByYear counts the records of each requested year.
func CountByYear(all []payslip.Record, years []int) map[int]int {
	counts := make(map[int]int, len(years))
	for _, y := range years {
		counts[y] = 0
		for _, r := range all {
			if r.InYear(y) {
				counts[y]++
			}
		}
	}
	return counts
}
