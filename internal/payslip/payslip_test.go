package payslip_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-payslip/internal/payslip"
)

func TestMonthKey_RoundTrip(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  payslip.MonthKey
	}{
		{2019, time.January, "令和01年01月"},
		{2023, time.March, "令和05年03月"},
		{2026, time.December, "令和08年12月"},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			k := payslip.NewMonthKey(tt.year, tt.month)
			assert.Equal(t, tt.want, k)
			assert.Equal(t, tt.year, k.Year())
			assert.Equal(t, tt.month, k.Month())

			parsed, err := payslip.ParseMonthKey(string(k))
			require.NoError(t, err)
			assert.Equal(t, k, parsed)
		})
	}
}

func TestParseMonthKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "令和5年3月", "令和05年13月", "平成30年01月", "令和05年03月度"} {
		_, err := payslip.ParseMonthKey(s)
		assert.Error(t, err, "%q must be rejected", s)
	}
}

func TestParsePeriod(t *testing.T) {
	y, m, ok := payslip.ParsePeriod("令和05年03月度給与")
	require.True(t, ok)
	assert.Equal(t, 2023, y)
	assert.Equal(t, time.March, m)

	y, m, ok = payslip.ParsePeriod("賞与 令和6年12月")
	require.True(t, ok, "Unpadded numbers anywhere in the label are accepted")
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.December, m)

	_, _, ok = payslip.ParsePeriod("不明")
	assert.False(t, ok)
}

func TestKeyOf(t *testing.T) {
	k, ok := payslip.KeyOf("令和05年03月度給与")
	require.True(t, ok)
	assert.Equal(t, payslip.MonthKey("令和05年03月"), k)

	_, ok = payslip.KeyOf("令和05")
	assert.False(t, ok)

	_, ok = payslip.KeyOf("賞与明細書（夏季）分")
	assert.False(t, ok, "A long label without a month key has no key")

	_, ok = payslip.KeyOf("令和05年13月度給与")
	assert.False(t, ok)
}

func TestValue_Sentinel(t *testing.T) {
	var zero payslip.Value[int64]
	assert.False(t, zero.IsKnown(), "The zero Value must be Unavailable")
	assert.Equal(t, "N/A", zero.String())

	v := payslip.Known(int64(1000))
	n, ok := v.Get()
	assert.True(t, ok)
	assert.Equal(t, int64(1000), n)
	assert.Equal(t, "1000", v.String())

	assert.Equal(t, "1.5", payslip.Known(1.5).String())
	assert.Equal(t, "10", payslip.Known(10.0).String())
}

func TestSum_SkipsUnavailable(t *testing.T) {
	total := payslip.Sum(payslip.Known(int64(1000)), payslip.Unavailable[int64](), payslip.Known(int64(250)))
	assert.Equal(t, int64(1250), total)

	hours := payslip.Sum(payslip.Unavailable[float64]())
	assert.Equal(t, 0.0, hours)
}

func TestSortCanonical(t *testing.T) {
	records := []payslip.Record{
		{DateLabel: "令和05年04月度給与"},
		{DateLabel: "令和04年12月度給与"},
		{DateLabel: "壊れたラベル"},
		{DateLabel: "令和05年01月度給与"},
	}

	payslip.SortCanonical(records)

	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.DateLabel
	}
	assert.Equal(t, []string{"壊れたラベル", "令和04年12月度給与", "令和05年01月度給与", "令和05年04月度給与"}, labels)

	again := payslip.Sorted(records)
	assert.Equal(t, records, again, "Sorting twice must be a no-op")
}

func TestRecord_InYear(t *testing.T) {
	r := payslip.Record{DateLabel: "令和05年03月度給与"}
	assert.True(t, r.InYear(2023))
	assert.False(t, r.InYear(2024))
}
