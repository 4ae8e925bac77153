package portal

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/payslip"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/width"
)

// Detail holds the figures read from one detail page. Fields not found on
// the page stay Unavailable.
type Detail struct {
	TotalPay               payslip.Value[int64]
	NetPay                 payslip.Value[int64]
	OvertimeHours          payslip.Value[float64]
	PaidLeaveConsumedHours payslip.Value[float64]
	PaidLeaveUsedDays      payslip.Value[float64]
	PaidLeaveRemainingDays payslip.Value[float64]
}

// Record attaches the list label to the figures.
func (d Detail) Record(label string) payslip.Record {
	return payslip.Record{
		DateLabel:              label,
		TotalPay:               d.TotalPay,
		NetPay:                 d.NetPay,
		OvertimeHours:          d.OvertimeHours,
		PaidLeaveConsumedHours: d.PaidLeaveConsumedHours,
		PaidLeaveUsedDays:      d.PaidLeaveUsedDays,
		PaidLeaveRemainingDays: d.PaidLeaveRemainingDays,
	}
}

// ParseDetail extracts the payslip figures from the dt/dd pairs of div#Html.
// It never fails: anything it cannot read is Unavailable.
func ParseDetail(doc *html.Node) (d Detail) {
	log := slog.With(config.LogKeyComponent, config.CompPortal)

	defer func() {
		if r := recover(); r != nil {
			log.Error(config.MsgDetailPanic, config.LogKeyError, r)
			d = Detail{}
		}
	}()

	if doc == nil {
		return Detail{}
	}

	section := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && attr(n, "id") == config.DetailSectionID
	})
	if section == nil {
		log.Warn(config.MsgDetailNoSection)
		return Detail{}
	}

	for _, dl := range findAll(section, byAtom(atom.Dl)) {
		dt := find(dl, byAtom(atom.Dt))
		dd := find(dl, byAtom(atom.Dd))
		if dt == nil || dd == nil {
			continue
		}
		value := text(dd)

		switch text(dt) {
		case config.LabelTotalPay:
			d.TotalPay = parseAmount(value)
		case config.LabelNetPay:
			d.NetPay = parseAmount(value)
		case config.LabelOvertimeHours:
			d.OvertimeHours = parseQuantity(value)
		case config.LabelLeaveConsumedHours:
			d.PaidLeaveConsumedHours = parseQuantity(value)
		case config.LabelLeaveUsedDays:
			d.PaidLeaveUsedDays = parseQuantity(value)
		case config.LabelLeaveRemainingDays:
			d.PaidLeaveRemainingDays = parseQuantity(value)
		}
	}

	log.Debug(config.MsgDetailParsed,
		config.LogKeyCount, len(findAll(section, byAtom(atom.Dl))),
	)
	return d
}

// normalizeFigure narrows full-width characters and drops thousands
// separators, so "１２，３４５" reads as "12345".
func normalizeFigure(s string) string {
	s = width.Narrow.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, ",", "")
}

// trimUnit drops a trailing unit such as 日 or 時間.
func trimUnit(s string, units ...string) string {
	for _, u := range units {
		if trimmed, ok := strings.CutSuffix(s, u); ok {
			return strings.TrimSpace(trimmed)
		}
	}
	return s
}

// parseAmount reads a yen figure. A fractional amount is rounded to the
// nearest yen.
func parseAmount(s string) payslip.Value[int64] {
	s = trimUnit(normalizeFigure(s), config.YenSuffix)
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return payslip.Unavailable[int64]()
		}
		return payslip.Known(int64(math.Round(f)))
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return payslip.Unavailable[int64]()
	}
	return payslip.Known(n)
}

// parseQuantity reads an hours or days figure, with or without its unit.
func parseQuantity(s string) payslip.Value[float64] {
	s = trimUnit(normalizeFigure(s), config.HourSuffix, config.LegacyDaySuffix)
	if !strings.Contains(s, ".") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return payslip.Unavailable[float64]()
		}
		return payslip.Known(float64(n))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return payslip.Unavailable[float64]()
	}
	return payslip.Known(f)
}
