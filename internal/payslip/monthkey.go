package payslip

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tartampluch/go-payslip/internal/config"
)

// MonthKey names one payroll month the way the portal labels it,
// e.g. "令和05年03月". It is the first 8 runes of every date label.
type MonthKey string

var (
	monthKeyPattern = regexp.MustCompile(`^` + config.EraMarker + `(\d{2})年(\d{2})月$`)
	labelPattern    = regexp.MustCompile(config.EraMarker + `(\d+)年(\d+)月`)
)

// NewMonthKey builds the key for a Gregorian year and month.
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%s%02d年%02d月", config.EraMarker, EraYear(year), int(month)))
}

// ParseMonthKey validates s as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	m := monthKeyPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid month key %q", s)
	}
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month in key %q", s)
	}
	return MonthKey(s), nil
}

// Year returns the Gregorian year of the key. It returns 0 for a malformed key.
func (k MonthKey) Year() int {
	y, _, ok := ParsePeriod(string(k))
	if !ok {
		return 0
	}
	return y
}

// Month returns the calendar month of the key.
func (k MonthKey) Month() time.Month {
	_, m, ok := ParsePeriod(string(k))
	if !ok {
		return 0
	}
	return m
}

// String implements fmt.Stringer.
func (k MonthKey) String() string {
	return string(k)
}

// EraYear converts a Gregorian year into the era-year used in labels.
func EraYear(year int) int {
	return year - config.EraOffset
}

// GregorianYear converts an era-year back into a Gregorian year.
func GregorianYear(eraYear int) int {
	return eraYear + config.EraOffset
}

// YearMarker is the label fragment identifying every month of a Gregorian
// year, e.g. "令和05年" for 2023.
func YearMarker(year int) string {
	return fmt.Sprintf("%s%02d年", config.EraMarker, EraYear(year))
}

// ParsePeriod extracts the Gregorian year and month from any text containing
// "令和N年M月". It reports false when no such fragment is present.
func ParsePeriod(label string) (int, time.Month, bool) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	era, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(m[2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return GregorianYear(era), time.Month(month), true
}

// KeyOf returns the month-key prefix of a date label, or false when the label
// does not start with a valid key.
func KeyOf(label string) (MonthKey, bool) {
	r := []rune(label)
	if len(r) < config.MonthKeyLength {
		return "", false
	}
	k, err := ParseMonthKey(string(r[:config.MonthKeyLength]))
	if err != nil {
		return "", false
	}
	return k, true
}
