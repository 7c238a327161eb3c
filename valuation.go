package jijin

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable is returned when no configured quote source could
// produce a valid valuation for a fund code. It is fatal to an add or set
// operation that needs a base value to compute shares, but a pure report
// degrades to an unavailable row instead.
var ErrQuoteUnavailable = errors.New("no quote source could resolve a valuation")

// ParseError reports that a quote source responded but its payload did not
// match the expected format. The fallback chain treats it exactly like a
// network failure: try the next source.
type ParseError struct {
	Source string // source name, e.g. "eastmoney"
	Reason string
}

func (e *ParseError) Error() string {
	return "cannot parse " + e.Source + " payload: " + e.Reason
}

// Valuation is the normalized live quote for a fund. It is ephemeral,
// produced on every fetch and never persisted.
type Valuation struct {
	// BaseValue is the last officially settled net value.
	BaseValue decimal.Decimal
	// NetValue is the current estimated net value. It may lag or be stale.
	NetValue decimal.Decimal
	// DailyChangePercent is the percent change of the estimate vs the base.
	DailyChangePercent decimal.Decimal
	// Time is the provider-reported timestamp, kept opaque and display-only.
	Time string
	// FundName is the display name. An empty name is the sentinel for a
	// failed fetch and renders as an "N/A" row.
	FundName string
}

// HistoryStats holds the periodic-return statistics of a fund. Each field is
// a NullDecimal: an invalid value means the source gave no answer for that
// period, which is different from the source answering zero.
type HistoryStats struct {
	LastWeek   decimal.NullDecimal `json:"lastWeek"`
	LastMonth  decimal.NullDecimal `json:"lastMonth"`
	LastSeason decimal.NullDecimal `json:"lastSeason"`
	LastYear   decimal.NullDecimal `json:"lastYear"`
}

// IsZero reports whether no period carries a value at all.
func (h HistoryStats) IsZero() bool {
	return !h.LastWeek.Valid && !h.LastMonth.Valid && !h.LastSeason.Valid && !h.LastYear.Valid
}

// Record is the merge of a stored holding, a live valuation and the history
// statistics, plus the derived profit fields. Derived fields are recomputed
// on every fetch and never persisted.
type Record struct {
	Code   string
	Shares decimal.Decimal

	Valuation
	History HistoryStats

	// ProfitLoss is (NetValue - BaseValue) * Shares, zero without a position.
	ProfitLoss decimal.Decimal
	// ProfitValue is Shares * NetValue, the current position value.
	ProfitValue decimal.Decimal
}

// Available reports whether any quote source answered for this fund.
func (r Record) Available() bool { return r.FundName != "" }

// newRecord merges a valuation with the caller-supplied share count. Shares
// always come from the store, never from a live source: providers do not
// know the user's position.
func newRecord(code string, shares decimal.Decimal, v Valuation, h HistoryStats) Record {
	r := Record{Code: code, Shares: shares, Valuation: v, History: h}
	if shares.IsPositive() {
		r.ProfitLoss = v.NetValue.Sub(v.BaseValue).Mul(shares)
		r.ProfitValue = shares.Mul(v.NetValue)
	}
	return r
}

// unavailableRecord is the degraded record returned when every source failed.
// It carries only the identity of the position so the report can still show
// the row.
func unavailableRecord(code string, shares decimal.Decimal) Record {
	return Record{Code: code, Shares: shares}
}
