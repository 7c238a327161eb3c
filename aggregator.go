package jijin

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Source is a live quote source for fund valuations. Sources are unreliable
// scraping targets: any error, transport or parse alike, simply means "try
// the next source in the chain".
type Source interface {
	// Name returns the source's display name, e.g. "eastmoney".
	Name() string
	// Fetch returns the current valuation for a fund code.
	Fetch(ctx context.Context, code string) (Valuation, error)
}

// HistorySource provides the periodic-return statistics of a fund. It is
// unrelated to the valuation chain and fails independently of it.
type HistorySource interface {
	FetchHistory(ctx context.Context, code string) (HistoryStats, error)
}

// HistoryCache is the day-scoped cache for history statistics. *Store
// implements it.
type HistoryCache interface {
	CachedHistory(code string) (HistoryStats, bool)
	SetCachedHistory(code string, stats HistoryStats) error
}

// ShareRepairer receives the lazy share repair for holdings that carry an
// invested amount but no derived share count yet. *Store implements it.
type ShareRepairer interface {
	UpdateShares(code string, baseValue decimal.Decimal) error
}

// Aggregator orchestrates, per tracked fund, the valuation fetch with source
// fallback, the best-effort history fetch, the share reconciliation and the
// profit computation. It owns no persistent state.
type Aggregator struct {
	sources []Source
	history HistorySource

	// Optional collaborators, both typically the store.
	Cache    HistoryCache
	Repairer ShareRepairer
}

// NewAggregator builds an aggregator over a fixed priority chain of quote
// sources. The first source is the primary; each following one is tried only
// after the previous one failed.
func NewAggregator(history HistorySource, sources ...Source) *Aggregator {
	return &Aggregator{sources: sources, history: history}
}

// valuation walks the source chain and returns the first valuation that
// parses. Individual source failures are logged and swallowed; they never
// propagate past the aggregator on the read path.
func (a *Aggregator) valuation(ctx context.Context, code string) (Valuation, error) {
	var lastErr error = ErrQuoteUnavailable
	for _, src := range a.sources {
		v, err := src.Fetch(ctx, code)
		if err != nil {
			log.Printf("source %s failed for %s: %v", src.Name(), code, err)
			lastErr = err
			continue
		}
		if v.FundName == "" || !v.BaseValue.IsPositive() {
			// A nameless or priceless valuation is as useless as no answer.
			log.Printf("source %s returned an incomplete valuation for %s", src.Name(), code)
			continue
		}
		return v, nil
	}
	return Valuation{}, lastErr
}

// BaseValue resolves the current base net value for a fund code through the
// source chain. This is the resolution hook the store needs to convert an
// invested amount into shares; unlike the report path it fails loudly.
func (a *Aggregator) BaseValue(ctx context.Context, code string) (decimal.Decimal, error) {
	v, err := a.valuation(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return v.BaseValue, nil
}

// historyStats returns the periodic-return statistics for a fund,
// best-effort. A same-day cached answer wins over a fetch; a fetch failure
// yields empty statistics, never an error.
func (a *Aggregator) historyStats(ctx context.Context, code string) HistoryStats {
	if a.Cache != nil {
		if stats, ok := a.Cache.CachedHistory(code); ok {
			return stats
		}
	}
	if a.history == nil {
		return HistoryStats{}
	}
	stats, err := a.history.FetchHistory(ctx, code)
	if err != nil {
		log.Printf("history source failed for %s: %v", code, err)
		return HistoryStats{}
	}
	if a.Cache != nil && !stats.IsZero() {
		if err := a.Cache.SetCachedHistory(code, stats); err != nil {
			log.Printf("cannot cache history for %s: %v", code, err)
		}
	}
	return stats
}

// Current resolves one fund to its aggregated record. The valuation and the
// history statistics are two independent fetches and run concurrently. When
// every valuation source fails the record degrades to bare {code, shares}:
// availability degradation is a normal outcome, not an error.
func (a *Aggregator) Current(ctx context.Context, code string, shares decimal.Decimal) Record {
	var (
		wg    sync.WaitGroup
		v     Valuation
		vErr  error
		stats HistoryStats
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		v, vErr = a.valuation(ctx, code)
	}()
	go func() {
		defer wg.Done()
		stats = a.historyStats(ctx, code)
	}()
	wg.Wait()

	if vErr != nil {
		return unavailableRecord(code, shares)
	}
	return newRecord(code, shares, v, stats)
}

// reconcile applies the lazy share repair: a holding that carries an
// invested amount but no share count yet gets its shares derived from the
// freshly fetched base value, and the repair is persisted.
func (a *Aggregator) reconcile(h Holding, rec Record) Record {
	if !h.Money.IsPositive() || !h.Shares.IsZero() || !rec.BaseValue.IsPositive() {
		return rec
	}
	shares := h.Money.Div(rec.BaseValue)
	if a.Repairer != nil {
		if err := a.Repairer.UpdateShares(h.Code, rec.BaseValue); err != nil {
			log.Printf("cannot repair shares for %s: %v", h.Code, err)
		}
	}
	return newRecord(h.Code, shares, rec.Valuation, rec.History)
}

// Batch aggregates a set of holdings concurrently. Fetch completion order is
// meaningless; the result is explicitly re-sorted by descending shares, the
// canonical presentation order. One unavailable fund never aborts the batch.
func (a *Aggregator) Batch(ctx context.Context, holdings []Holding) []Record {
	records := make([]Record, len(holdings))

	var wg sync.WaitGroup
	for i, h := range holdings {
		wg.Add(1)
		go func(i int, h Holding) {
			defer wg.Done()
			rec := a.Current(ctx, h.Code, h.Shares)
			records[i] = a.reconcile(h, rec)
		}(i, h)
	}
	wg.Wait()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Shares.GreaterThan(records[j].Shares)
	})
	return records
}
