package eastmoney

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	jijin "github.com/xiechanglei/xie-jijin"
)

// Sector fund flow from the push2 endpoint. The payload is a deeply nested
// JSON envelope whose interesting part is the data.diff list of sectors with
// cryptic f-numbered fields.

// flowFields maps the reporting period to the push2 sorting field.
var flowFields = map[string]string{
	"today":   "f62",
	"fiveDay": "f164",
	"tenDay":  "f174",
}

const flowURL = "https://push2.eastmoney.com/api/qt/clist/get?" +
	"fid=%s&po=1&pz=999&pn=1&np=1&fltt=2&invt=2&ut=8dec03ba335b81bf4ebdf7b29ec27d15&fs=m:90+t:2&" +
	"fields=f12,f14,f2,f3,f62,f184,f66,f69,f72,f75,f78,f81,f84,f87,f204,f205,f124,f1,f13"

// PlateFlow is the fund flow of one stock sector.
type PlateFlow struct {
	Code                string  `json:"code"`                  // f12
	Name                string  `json:"name"`                  // f14
	Price               float64 `json:"price"`                 // f2
	ChangePercent       float64 `json:"changePercent"`         // f3
	MainNetInflow       float64 `json:"mainNetInflow"`         // f62
	MainInflowRatio     float64 `json:"mainInflowRatio"`       // f184
	SuperLargeNetInflow float64 `json:"superLargeNetInflow"`   // f66
	SuperLargeFlowRatio float64 `json:"superLargeInflowRatio"` // f69
	LargeNetInflow      float64 `json:"largeNetInflow"`        // f72
	LargeInflowRatio    float64 `json:"largeInflowRatio"`      // f75
	MidNetInflow        float64 `json:"midNetInflow"`          // f78
	MidInflowRatio      float64 `json:"midInflowRatio"`        // f81
	SmallNetInflow      float64 `json:"smallNetInflow"`        // f84
	SmallInflowRatio    float64 `json:"smallInflowRatio"`      // f87
	TopStock            string  `json:"topStock"`              // f204
	TopStockCode        string  `json:"topStockCode"`          // f205
}

// ValidFlowPeriod reports whether the period names a supported window.
func ValidFlowPeriod(period string) bool {
	_, ok := flowFields[period]
	return ok
}

// FetchPlateFlow returns the sector fund flow for one of the supported
// periods: today, fiveDay or tenDay.
func FetchPlateFlow(ctx context.Context, client *http.Client, period string) ([]PlateFlow, error) {
	fid, ok := flowFields[period]
	if !ok {
		return nil, fmt.Errorf("unsupported flow period %q", period)
	}

	var jobj any
	if err := jijin.Jwget(ctx, client, fmt.Sprintf(flowURL, fid), &jobj); err != nil {
		return nil, err
	}
	return parsePlateFlow(jobj)
}

// parsePlateFlow extracts the sector list from the decoded push2 envelope.
func parsePlateFlow(jobj any) ([]PlateFlow, error) {
	if rc, err := jsonpath.Get("$.rc", jobj); err != nil || rc != float64(0) {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "push2 answered a non zero rc"}
	}

	jdiff, err := jsonpath.Get("$.data.diff", jobj)
	if err != nil {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "no data.diff in push2 payload"}
	}
	jlist, ok := jdiff.([]any)
	if !ok {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "data.diff is not a list"}
	}

	flows := make([]PlateFlow, 0, len(jlist))
	for _, jrow := range jlist {
		row, ok := jrow.(map[string]any)
		if !ok {
			continue
		}
		flows = append(flows, PlateFlow{
			Code:                jstring(row["f12"]),
			Name:                jstring(row["f14"]),
			Price:               jfloat(row["f2"]),
			ChangePercent:       jfloat(row["f3"]),
			MainNetInflow:       jfloat(row["f62"]),
			MainInflowRatio:     jfloat(row["f184"]),
			SuperLargeNetInflow: jfloat(row["f66"]),
			SuperLargeFlowRatio: jfloat(row["f69"]),
			LargeNetInflow:      jfloat(row["f72"]),
			LargeInflowRatio:    jfloat(row["f75"]),
			MidNetInflow:        jfloat(row["f78"]),
			MidInflowRatio:      jfloat(row["f81"]),
			SmallNetInflow:      jfloat(row["f84"]),
			SmallInflowRatio:    jfloat(row["f87"]),
			TopStock:            jstring(row["f204"]),
			TopStockCode:        jstring(row["f205"]),
		})
	}
	return flows, nil
}

// jstring reads a JSON value as a string, tolerating absence.
func jstring(v any) string {
	s, _ := v.(string)
	return s
}

// jfloat reads a JSON value as a number. The push2 endpoint answers "-" for
// suspended values, which reads as zero here.
func jfloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
