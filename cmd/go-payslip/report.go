package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/engine"
	"github.com/tartampluch/go-payslip/internal/messages"
	"github.com/tartampluch/go-payslip/internal/payslip"
)

// consoleProgress prints engine progress lines with a status marker.
type consoleProgress struct {
	w io.Writer
}

func (p *consoleProgress) Info(msg string)    { fmt.Fprintln(p.w, "  "+msg) }
func (p *consoleProgress) Error(msg string)   { fmt.Fprintln(p.w, "✗ "+msg) }
func (p *consoleProgress) Success(msg string) { fmt.Fprintln(p.w, "✓ "+msg) }

// printReport writes the post-run summary. Figures are grouped per the
// catalog language (300,000 for ja and en alike).
func printReport(w io.Writer, catalog *messages.Catalog, res *engine.Result) {
	lang := config.DefaultLanguage
	if catalog != nil {
		lang = catalog.Lang
	}
	p := message.NewPrinter(language.Make(lang))

	line := func(key string, data map[string]any) {
		fmt.Fprintln(w, catalog.T(key, data))
	}

	fmt.Fprintln(w)
	line(config.TKeyReportTitle, map[string]any{"Year": res.TargetYear})
	line(config.TKeyReportTotalPay, map[string]any{"Value": p.Sprintf("%d", res.Summary.TotalPay)})
	line(config.TKeyReportNetPay, map[string]any{"Value": p.Sprintf("%d", res.Summary.TotalNetPay)})
	line(config.TKeyReportOvertime, map[string]any{"Value": formatHours(res.Summary.TotalOvertimeHours)})
	line(config.TKeyReportFiscal, map[string]any{
		"Year":  res.TargetYear,
		"Value": formatHours(res.FiscalOvertime),
	})
	line(config.TKeyReportLeave, map[string]any{
		"Hours":     formatQuantity(p, res.Summary.LatestLeaveConsumedHours),
		"Used":      formatQuantity(p, res.Summary.LatestLeaveUsedDays),
		"Remaining": formatQuantity(p, res.Summary.LatestLeaveRemainingDays),
	})

	years := make([]int, 0, len(res.OtherYears))
	for y := range res.OtherYears {
		years = append(years, y)
	}
	slices.Sort(years)
	for _, y := range years {
		line(config.TKeyReportOtherYear, map[string]any{"Year": y, "Count": res.OtherYears[y]})
	}

	line(config.TKeyReportDataset, map[string]any{"Path": res.DatasetPath})
	if res.Warning != "" {
		fmt.Fprintln(w, "! "+res.Warning)
	}
}

// formatHours keeps the precision the portal reported, e.g. 30.3 or 10.25.
func formatHours(h decimal.Decimal) string {
	return h.String()
}

func formatQuantity(p *message.Printer, v payslip.Value[float64]) string {
	n, ok := v.Get()
	if !ok {
		return config.Unavailable
	}
	return p.Sprintf("%v", n)
}
