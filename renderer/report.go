// Package renderer turns aggregated fund records into markdown reports.
//
// The markdown is printed to the terminal through glamour by the cli, and
// stays readable as plain text when piped somewhere else.
package renderer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	jijin "github.com/xiechanglei/xie-jijin"
)

// ReportMarkdown renders the aggregated records as the portfolio report
// table. Records are expected in presentation order (descending shares);
// funds that no source could resolve render as N/A rows.
func ReportMarkdown(records []jijin.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Funds\n\n")
	fmt.Fprintln(&b, "| Code | Name | Time | Base | Estimate | Change | Shares | P/L | Value | 1W | 1M | 1Q | 1Y |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|")

	for _, r := range records {
		if !r.Available() {
			fmt.Fprintf(&b, "| %s | N/A | N/A | N/A | N/A | N/A | %s | N/A | N/A | N/A | N/A | N/A | N/A |\n",
				r.Code, r.Shares.StringFixed(2))
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Code,
			r.FundName,
			r.Time,
			r.BaseValue.String(),
			r.NetValue.String(),
			Percent(r.DailyChangePercent),
			r.Shares.StringFixed(2),
			jijin.CNY(r.ProfitLoss).SignedString(),
			jijin.CNY(r.ProfitValue).String(),
			NullPercent(r.History.LastWeek),
			NullPercent(r.History.LastMonth),
			NullPercent(r.History.LastSeason),
			NullPercent(r.History.LastYear),
		)
	}

	b.WriteString("\nEstimates are scraped from public endpoints and may lag; for reference only, not investment advice.\n")
	return b.String()
}

// Percent formats a percent change with an explicit sign.
func Percent(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.String() + "%"
	}
	return "+" + d.String() + "%"
}

// NullPercent formats an optional percent change; the absent marker renders
// as a dash, to stay distinguishable from an actual zero.
func NullPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return Percent(d.Decimal)
}
