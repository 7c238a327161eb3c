// Package dayfund fetches fund data from dayfund.cn: the intraday estimate
// line (the first fallback of the valuation chain) and the periodic-return
// statistics table (the secondary history source).
package dayfund

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	jijin "github.com/xiechanglei/xie-jijin"
)

// The estimate endpoint answers one pipe-delimited line of positional
// fields:
//
//	2025-12-23|3.0571|3.0571|-0.0062|-0.20%|-0.36%|-0.0110|3.0461|3.0633|2025-12-24|10:55:00
//
// index 0 is the last settle date, 1 the settled unit value (the base), 5
// the estimated change percent, 7 the estimated unit value, 9 and 10 the
// estimate date and time. The line carries no fund name; that one comes
// from the title of the fund page, which also feeds the statistics table.

const (
	valueURL = "https://www.dayfund.cn/ajs/ajaxdata.shtml?showtype=getfundvalue&fundcode=%s"
	infoURL  = "https://www.dayfund.cn/fundinfo/%s.html"

	valueFieldCount = 11
)

// Source is the dayfund quote source.
type Source struct {
	client   *http.Client
	valueURL string // format strings with the fund code, overridable for tests
	infoURL  string
}

// New returns the dayfund quote and history source.
func New(client *http.Client) *Source {
	return &Source{client: client, valueURL: valueURL, infoURL: infoURL}
}

// Name returns the source's display name.
func (s *Source) Name() string { return "dayfund" }

// Fetch returns the current valuation of a fund. The numbers come from the
// estimate line, the display name from the fund page.
func (s *Source) Fetch(ctx context.Context, code string) (jijin.Valuation, error) {
	line, err := jijin.Twget(ctx, s.client, fmt.Sprintf(s.valueURL, code))
	if err != nil {
		return jijin.Valuation{}, err
	}
	v, err := parseValueLine(line)
	if err != nil {
		return jijin.Valuation{}, err
	}

	page, err := jijin.Twget(ctx, s.client, fmt.Sprintf(s.infoURL, code))
	if err != nil {
		return jijin.Valuation{}, err
	}
	name, err := parseFundName(page)
	if err != nil {
		return jijin.Valuation{}, err
	}
	v.FundName = name
	return v, nil
}

// parseValueLine decodes the positional estimate line. Pure function.
func parseValueLine(line string) (jijin.Valuation, error) {
	fields := strings.Split(strings.TrimSpace(line), "|")
	if len(fields) < valueFieldCount {
		return jijin.Valuation{}, &jijin.ParseError{Source: "dayfund", Reason: fmt.Sprintf("estimate line has %d fields, want %d", len(fields), valueFieldCount)}
	}

	base, err := decimal.NewFromString(fields[1])
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "dayfund", Reason: "bad base value " + fields[1]}
	}
	change, err := decimal.NewFromString(strings.TrimSuffix(fields[5], "%"))
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "dayfund", Reason: "bad change percent " + fields[5]}
	}
	net, err := decimal.NewFromString(fields[7])
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "dayfund", Reason: "bad estimated value " + fields[7]}
	}

	return jijin.Valuation{
		BaseValue:          base,
		NetValue:           net,
		DailyChangePercent: change,
		Time:               fields[9] + " " + fields[10],
	}, nil
}

var _ jijin.Source = (*Source)(nil)
var _ jijin.HistorySource = (*Source)(nil)
