// Package sina fetches fund estimates from the sina quote endpoint, the
// last fallback of the valuation chain.
package sina

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	jijin "github.com/xiechanglei/xie-jijin"
)

// The endpoint answers a GBK encoded javascript assignment per requested
// symbol:
//
//	var hq_str_fu_000001="华夏成长混合,1.0716,1.0690,0.24,2025-12-24 10:55:00";
//
// positional fields: name, estimated net value, settled base value, change
// percent, estimate time. The GBK bytes are transcoded from the response's
// Content-Type charset before parsing. The endpoint refuses requests that
// carry no Referer.

const (
	quoteURL = "https://hq.sinajs.cn/list=fu_%s"
	referer  = "https://finance.sina.com.cn"

	fieldCount = 5
)

var reQuote = regexp.MustCompile(`var hq_str_fu_\w+="([^"]*)";`)

// Source is the sina quote source.
type Source struct {
	client *http.Client
	url    string // format string with the fund code, overridable for tests
}

// New returns the sina quote source.
func New(client *http.Client) *Source {
	return &Source{client: client, url: quoteURL}
}

// Name returns the source's display name.
func (s *Source) Name() string { return "sina" }

// Fetch returns the current valuation of a fund.
func (s *Source) Fetch(ctx context.Context, code string) (jijin.Valuation, error) {
	header := http.Header{"Referer": []string{referer}}
	content, err := jijin.TwgetHeader(ctx, s.client, fmt.Sprintf(s.url, code), header)
	if err != nil {
		return jijin.Valuation{}, err
	}
	return parseQuote(content)
}

// parseQuote decodes the quote assignment. Pure function.
func parseQuote(content string) (jijin.Valuation, error) {
	m := reQuote.FindStringSubmatch(content)
	if m == nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: "no quote assignment in document"}
	}
	if m[1] == "" {
		// An unknown code answers an empty string, not an error page.
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: "empty quote"}
	}

	fields := strings.Split(m[1], ",")
	if len(fields) < fieldCount {
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: fmt.Sprintf("quote has %d fields, want %d", len(fields), fieldCount)}
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: "missing fund name"}
	}
	net, err := decimal.NewFromString(fields[1])
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: "bad estimated value " + fields[1]}
	}
	base, err := decimal.NewFromString(fields[2])
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: "bad base value " + fields[2]}
	}
	change, err := decimal.NewFromString(fields[3])
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "sina", Reason: "bad change percent " + fields[3]}
	}

	return jijin.Valuation{
		BaseValue:          base,
		NetValue:           net,
		DailyChangePercent: change,
		Time:               strings.TrimSpace(fields[4]),
		FundName:           name,
	}, nil
}

var _ jijin.Source = (*Source)(nil)
