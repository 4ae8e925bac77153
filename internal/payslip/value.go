package payslip

import (
	"strconv"

	"github.com/tartampluch/go-payslip/internal/config"
)

// Number is the set of figure types a payslip carries: yen amounts and
// hour/day quantities.
type Number interface {
	~int64 | ~float64
}

// Value is a figure the portal either reported (Known) or did not
// (Unavailable). The zero Value is Unavailable.
type Value[T Number] struct {
	n     T
	known bool
}

// Known wraps a reported figure.
func Known[T Number](n T) Value[T] {
	return Value[T]{n: n, known: true}
}

// Unavailable returns the sentinel for a figure the portal did not report.
func Unavailable[T Number]() Value[T] {
	return Value[T]{}
}

// Get returns the figure and whether it is known.
func (v Value[T]) Get() (T, bool) {
	return v.n, v.known
}

// IsKnown reports whether the value carries a figure.
func (v Value[T]) IsKnown() bool {
	return v.known
}

// String renders the figure as stored in the dataset; Unavailable is "N/A".
func (v Value[T]) String() string {
	if !v.known {
		return config.Unavailable
	}
	switch n := any(v.n).(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	// Named types built on int64/float64.
	if f := float64(v.n); f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(float64(v.n), 'f', -1, 64)
}

// Sum adds every known value, skipping Unavailable ones.
func Sum[T Number](values ...Value[T]) T {
	var total T
	for _, v := range values {
		if v.known {
			total += v.n
		}
	}
	return total
}
