package feed_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/feed"
	"github.com/tartampluch/go-payslip/internal/payslip"
)

var now = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

func TestRender_EventPerMonth(t *testing.T) {
	records := []payslip.Record{
		{DateLabel: "令和05年04月度給与", NetPay: payslip.Known(int64(245000)), OvertimeHours: payslip.Known(5.5)},
		{DateLabel: "令和05年03月度給与", NetPay: payslip.Unavailable[int64]()},
		{DateLabel: "賞与"},
	}

	data, err := feed.Render(records, now)
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)

	name, err := cal.Props.Text(config.PropXWRCalName)
	require.NoError(t, err)
	assert.Equal(t, config.ICalCalName, name)

	events := cal.Events()
	require.Len(t, events, 2, "Labels without a month are skipped")

	first := events[0]
	uid, err := first.Props.Text(config.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "202303@"+config.ICalDomain, uid, "Events are in month order")

	summary, err := first.Props.Text(config.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "令和05年03月度給与 差引支給額 N/A円", summary)

	start, err := events[1].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2023, start.Year())
	assert.Equal(t, time.April, start.Month())
	assert.Equal(t, config.IssueDay, start.Day())

	desc, err := events[1].Props.Text(config.PropDescription)
	require.NoError(t, err)
	assert.Contains(t, desc, config.ColNetPay+": 245000")
	assert.Contains(t, desc, config.ColOvertimeHours+": 5.5")
	assert.Equal(t, 6, len(strings.Split(desc, "\n")))
}

func TestRender_EmptyIsValidStub(t *testing.T) {
	data, err := feed.Render(nil, now)
	require.NoError(t, err)
	assert.Equal(t, config.StubVCalendar, string(data))
}
