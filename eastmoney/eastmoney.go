// Package eastmoney fetches fund data from the eastmoney endpoints: the
// live estimate (fundgz), the full history series (pingzhongdata), the
// sector fund flow (push2) and the fund stock archives.
//
// It is the primary quote source of the valuation chain.
package eastmoney

import (
	"context"
	"fmt"
	"net/http"

	jijin "github.com/xiechanglei/xie-jijin"
)

const gzURL = "https://fundgz.1234567.com.cn/js/%s.js"

// Source is the live estimate quote source.
type Source struct {
	client *http.Client
	url    string // format string with the fund code, overridable for tests
}

// New returns the eastmoney quote source.
func New(client *http.Client) *Source {
	return &Source{client: client, url: gzURL}
}

// Name returns the source's display name.
func (s *Source) Name() string { return "eastmoney" }

// Fetch returns the current valuation of a fund from the live estimate
// endpoint.
func (s *Source) Fetch(ctx context.Context, code string) (jijin.Valuation, error) {
	content, err := jijin.Twget(ctx, s.client, fmt.Sprintf(s.url, code))
	if err != nil {
		return jijin.Valuation{}, err
	}
	return parseEstimate(content)
}

// Raw returns the live estimate as the raw JSON object the endpoint wraps,
// for API passthrough.
func (s *Source) Raw(ctx context.Context, code string) ([]byte, error) {
	content, err := jijin.Twget(ctx, s.client, fmt.Sprintf(s.url, code))
	if err != nil {
		return nil, err
	}
	return unwrapJSONP(content)
}

var _ jijin.Source = (*Source)(nil)
