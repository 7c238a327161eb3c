package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	jijin "github.com/xiechanglei/xie-jijin"
)

// The pingzhongdata endpoint answers a javascript file assigning the fund's
// full history to a handful of variables:
//
//	var fS_name = "华夏成长混合";
//	var fS_code = "000001";
//	var Data_netWorthTrend = [{"x":1735689600000,"y":1.069,...},...];
//	var Data_ACWorthTrend = [[1735689600000,3.425],...];
//	var syl_1n = "12.3";
//
// The array and string literals happen to be valid JSON, so each one is
// located by a targeted expression and decoded strictly. The document is
// never evaluated as code.

const pingzhongURL = "https://fund.eastmoney.com/pingzhongdata/%s.js"

var (
	reNetWorth = regexp.MustCompile(`Data_netWorthTrend\s*=\s*(\[.*?\]);`)
	reACWorth  = regexp.MustCompile(`Data_ACWorthTrend\s*=\s*(\[.*?\]);`)
	reName     = regexp.MustCompile(`fS_name\s*=\s*["']([^"']*)["'];`)
	reCode     = regexp.MustCompile(`fS_code\s*=\s*["']([^"']*)["'];`)
	reSyl      = map[string]*regexp.Regexp{
		"syl_1n": regexp.MustCompile(`syl_1n\s*[:=]\s*["']([^"']*)["'];`),
		"syl_6y": regexp.MustCompile(`syl_6y\s*[:=]\s*["']([^"']*)["'];`),
		"syl_3y": regexp.MustCompile(`syl_3y\s*[:=]\s*["']([^"']*)["'];`),
		"syl_1y": regexp.MustCompile(`syl_1y\s*[:=]\s*["']([^"']*)["'];`),
	}
)

// TrendPoint is one day of the net worth series.
type TrendPoint struct {
	X            int64           `json:"x"` // timestamp, milliseconds
	Y            float64         `json:"y"` // unit net value
	EquityReturn float64         `json:"equityReturn"`
	UnitMoney    json.RawMessage `json:"unitMoney,omitempty"`
}

// HistorySeries is the parsed pingzhongdata document.
type HistorySeries struct {
	FundCode      string          `json:"fundCode"`
	FundName      string          `json:"fundName"`
	NetWorthTrend []TrendPoint    `json:"netWorthTrend"`
	ACWorthTrend  json.RawMessage `json:"acWorthTrend"`
	Syl1N         string          `json:"syl_1n,omitempty"` // 1 year yield, percent
	Syl6Y         string          `json:"syl_6y,omitempty"` // 6 months
	Syl3Y         string          `json:"syl_3y,omitempty"` // 3 months
	Syl1Y         string          `json:"syl_1y,omitempty"` // 1 month
}

// FetchHistorySeries downloads and parses the full history of a fund. The
// payload is heavy and stable within a trading day, so it belongs behind the
// daily caching client.
func FetchHistorySeries(ctx context.Context, client *http.Client, code string) (*HistorySeries, error) {
	content, err := jijin.Twget(ctx, client, fmt.Sprintf(pingzhongURL, code))
	if err != nil {
		return nil, err
	}
	return parseHistorySeries(code, content)
}

// parseHistorySeries extracts the history series from the javascript
// document. Pure function.
func parseHistorySeries(code, content string) (*HistorySeries, error) {
	m := reNetWorth.FindStringSubmatch(content)
	if m == nil {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "no net worth trend in document"}
	}

	series := &HistorySeries{FundCode: code}
	if err := json.Unmarshal([]byte(m[1]), &series.NetWorthTrend); err != nil {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "bad net worth trend: " + err.Error()}
	}

	if m := reACWorth.FindStringSubmatch(content); m != nil && json.Valid([]byte(m[1])) {
		series.ACWorthTrend = json.RawMessage(m[1])
	} else {
		series.ACWorthTrend = json.RawMessage("[]")
	}

	if m := reName.FindStringSubmatch(content); m != nil {
		series.FundName = m[1]
	}
	if m := reCode.FindStringSubmatch(content); m != nil {
		series.FundCode = m[1]
	}

	yields := map[string]*string{
		"syl_1n": &series.Syl1N,
		"syl_6y": &series.Syl6Y,
		"syl_3y": &series.Syl3Y,
		"syl_1y": &series.Syl1Y,
	}
	for key, dst := range yields {
		if m := reSyl[key].FindStringSubmatch(content); m != nil {
			*dst = m[1]
		}
	}
	return series, nil
}
