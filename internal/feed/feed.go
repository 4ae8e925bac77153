// Package feed renders the dataset as an iCalendar feed with one all-day
// event per payslip, dated on the issue day of its month.
package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
)

// Render encodes records as a VCALENDAR. Records whose label carries no
// month are left out. now stamps every event.
func Render(records []payslip.Record, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, r := range payslip.Sorted(records) {
		event, ok := newEvent(r)
		if !ok {
			continue
		}
		event.Props.Set(dtStampProp)
		cal.Children = append(cal.Children, event.Component)
	}

	log := slog.With(config.LogKeyComponent, config.CompFeed)

	if len(cal.Children) == 0 {
		log.Debug(config.MsgFeedEmpty)
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	log.Info(config.MsgFeedRendered, config.LogKeyCount, len(cal.Children))
	return buf.Bytes(), nil
}

func newEvent(r payslip.Record) (*ical.Event, bool) {
	year, month, ok := r.Period()
	if !ok {
		return nil, false
	}

	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, year, int(month), config.ICalDomain))
	event.Props.SetText(config.PropSummary, fmt.Sprintf(config.FormatFeedSummary, r.DateLabel, r.NetPay))
	event.Props.SetText(config.PropDescription, describe(r))

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDate(time.Date(year, month, config.IssueDay, 0, 0, 0, 0, time.Local))
	event.Props.Set(dtStartProp)

	return event, true
}

// describe lists every figure, one per line, in dataset column order.
func describe(r payslip.Record) string {
	lines := []string{
		fmt.Sprintf(config.FormatFeedLine, config.ColTotalPay, r.TotalPay),
		fmt.Sprintf(config.FormatFeedLine, config.ColNetPay, r.NetPay),
		fmt.Sprintf(config.FormatFeedLine, config.ColOvertimeHours, r.OvertimeHours),
		fmt.Sprintf(config.FormatFeedLine, config.ColLeaveConsumedHours, r.PaidLeaveConsumedHours),
		fmt.Sprintf(config.FormatFeedLine, config.ColLeaveUsedDays, r.PaidLeaveUsedDays),
		fmt.Sprintf(config.FormatFeedLine, config.ColLeaveRemainingDays, r.PaidLeaveRemainingDays),
	}
	return strings.Join(lines, "\n")
}
