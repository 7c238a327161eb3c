package eastmoney

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	jijin "github.com/xiechanglei/xie-jijin"
)

// The live estimate endpoint answers a JSONP document:
//
//	jsonpgz({"fundcode":"000001","name":"华夏成长混合","jzrq":"2025-12-23",
//	         "dwjz":"1.0690","gsz":"1.0716","gszzl":"0.24","gztime":"2025-12-24 10:55"});
//
// The wrapper is stripped and the body parsed as plain JSON. The payload is
// remote content and is never evaluated.

const (
	jsonpPrefix = "jsonpgz("
	jsonpSuffix = ");"
)

// unwrapJSONP strips the jsonpgz(...) wrapper and returns the inner JSON.
func unwrapJSONP(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, jsonpPrefix) || !strings.HasSuffix(content, jsonpSuffix) {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "not a jsonpgz document"}
	}
	inner := content[len(jsonpPrefix) : len(content)-len(jsonpSuffix)]
	if !json.Valid([]byte(inner)) {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "jsonpgz body is not valid JSON"}
	}
	return []byte(inner), nil
}

// parseEstimate extracts a normalized valuation from the JSONP document.
// It is a pure function: no I/O, no shared state.
func parseEstimate(content string) (jijin.Valuation, error) {
	inner, err := unwrapJSONP(content)
	if err != nil {
		return jijin.Valuation{}, err
	}

	// All numeric fields come as strings in this payload.
	var gz struct {
		Name   string `json:"name"`
		Dwjz   string `json:"dwjz"`   // last settled net value
		Gsz    string `json:"gsz"`    // estimated net value
		Gszzl  string `json:"gszzl"`  // estimated daily change percent
		Gztime string `json:"gztime"` // estimate timestamp
	}
	if err := json.Unmarshal(inner, &gz); err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "eastmoney", Reason: err.Error()}
	}
	if gz.Name == "" {
		return jijin.Valuation{}, &jijin.ParseError{Source: "eastmoney", Reason: "missing fund name"}
	}

	base, err := decimal.NewFromString(gz.Dwjz)
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "eastmoney", Reason: "bad dwjz " + gz.Dwjz}
	}
	net, err := decimal.NewFromString(gz.Gsz)
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "eastmoney", Reason: "bad gsz " + gz.Gsz}
	}
	change, err := decimal.NewFromString(gz.Gszzl)
	if err != nil {
		return jijin.Valuation{}, &jijin.ParseError{Source: "eastmoney", Reason: "bad gszzl " + gz.Gszzl}
	}

	return jijin.Valuation{
		BaseValue:          base,
		NetValue:           net,
		DailyChangePercent: change,
		Time:               gz.Gztime,
		FundName:           gz.Name,
	}, nil
}
