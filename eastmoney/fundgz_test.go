package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	jijin "github.com/xiechanglei/xie-jijin"
)

const sampleGz = `jsonpgz({"fundcode":"000001","name":"华夏成长混合","jzrq":"2025-12-23","dwjz":"1.0690","gsz":"1.0716","gszzl":"0.24","gztime":"2025-12-24 10:55"});`

func TestParseEstimate(t *testing.T) {
	v, err := parseEstimate(sampleGz)
	if err != nil {
		t.Fatalf("parseEstimate: %v", err)
	}
	if v.FundName != "华夏成长混合" {
		t.Errorf("got name %q", v.FundName)
	}
	if !v.BaseValue.Equal(decimal.RequireFromString("1.0690")) {
		t.Errorf("got base %s", v.BaseValue)
	}
	if !v.NetValue.Equal(decimal.RequireFromString("1.0716")) {
		t.Errorf("got net %s", v.NetValue)
	}
	if !v.DailyChangePercent.Equal(decimal.RequireFromString("0.24")) {
		t.Errorf("got change %s", v.DailyChangePercent)
	}
	if v.Time != "2025-12-24 10:55" {
		t.Errorf("got time %q", v.Time)
	}
}

func TestParseEstimateRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"html error page", "<html><body>502 Bad Gateway</body></html>"},
		{"wrong callback", `loadData({"name":"x"});`},
		{"invalid inner json", `jsonpgz({"name":);`},
		{"missing name", `jsonpgz({"fundcode":"000001","dwjz":"1.0","gsz":"1.1","gszzl":"0.2"});`},
		{"bad number", `jsonpgz({"name":"基金","dwjz":"n/a","gsz":"1.1","gszzl":"0.2"});`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseEstimate(tc.content)
			if err == nil {
				t.Fatal("want a parse error")
			}
			var perr *jijin.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("got %T, want *jijin.ParseError", err)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleGz)
	}))
	defer srv.Close()

	s := New(srv.Client())
	s.url = srv.URL + "/js/%s.js"

	v, err := s.Fetch(context.Background(), "000001")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if v.FundName != "华夏成长混合" {
		t.Errorf("got name %q", v.FundName)
	}
}

func TestUnwrapJSONP(t *testing.T) {
	inner, err := unwrapJSONP(sampleGz)
	if err != nil {
		t.Fatalf("unwrapJSONP: %v", err)
	}
	if string(inner[0]) != "{" {
		t.Errorf("inner payload does not start with an object: %q", inner)
	}
}
