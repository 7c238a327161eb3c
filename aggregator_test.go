package jijin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

// scriptedSource is a quote source with a fixed answer and a call counter.
// Batch fetches from one goroutine per fund, so the counter is atomic.
type scriptedSource struct {
	name  string
	v     Valuation
	err   error
	calls atomic.Int32
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) Fetch(context.Context, string) (Valuation, error) {
	s.calls.Add(1)
	return s.v, s.err
}

type scriptedHistory struct {
	stats HistoryStats
	err   error
	calls atomic.Int32
}

func (s *scriptedHistory) FetchHistory(context.Context, string) (HistoryStats, error) {
	s.calls.Add(1)
	return s.stats, s.err
}

func goodValuation(name string) Valuation {
	return Valuation{
		FundName:           name,
		BaseValue:          d("2"),
		NetValue:           d("2.1"),
		DailyChangePercent: d("5"),
		Time:               "2026-08-28 15:00",
	}
}

func TestValuationFallbackOrder(t *testing.T) {
	broken := &scriptedSource{name: "primary", err: errors.New("timeout")}
	backup := &scriptedSource{name: "backup", v: goodValuation("备用基金")}
	spare := &scriptedSource{name: "spare", v: goodValuation("从未使用")}

	agg := NewAggregator(nil, broken, backup, spare)
	v, err := agg.valuation(context.Background(), "000001")
	if err != nil {
		t.Fatalf("valuation: %v", err)
	}
	if v.FundName != "备用基金" {
		t.Errorf("got %q, want the backup source's answer", v.FundName)
	}
	if broken.calls.Load() != 1 || backup.calls.Load() != 1 {
		t.Errorf("got calls primary=%d backup=%d, want 1/1", broken.calls.Load(), backup.calls.Load())
	}
	// the chain stops at the first success
	if spare.calls.Load() != 0 {
		t.Errorf("the chain kept going after a success, spare called %d times", spare.calls.Load())
	}
}

func TestValuationRejectsIncomplete(t *testing.T) {
	nameless := goodValuation("")
	priceless := goodValuation("无价基金")
	priceless.BaseValue = decimal.Zero

	agg := NewAggregator(nil,
		&scriptedSource{name: "nameless", v: nameless},
		&scriptedSource{name: "priceless", v: priceless},
	)
	_, err := agg.valuation(context.Background(), "000001")
	if err == nil {
		t.Fatal("incomplete valuations must not satisfy the chain")
	}
}

func TestValuationAllSourcesFail(t *testing.T) {
	agg := NewAggregator(nil, &scriptedSource{name: "a", err: errors.New("down")})
	_, err := agg.valuation(context.Background(), "000001")
	if err == nil {
		t.Fatal("want an error when every source fails")
	}
}

func TestBaseValueFailsLoudly(t *testing.T) {
	agg := NewAggregator(nil)
	if _, err := agg.BaseValue(context.Background(), "000001"); !errors.Is(err, ErrQuoteUnavailable) {
		t.Errorf("got %v, want ErrQuoteUnavailable", err)
	}
}

func TestCurrentDegradesToUnavailable(t *testing.T) {
	agg := NewAggregator(nil, &scriptedSource{name: "a", err: errors.New("down")})

	rec := agg.Current(context.Background(), "000001", d("42"))
	if rec.Available() {
		t.Fatal("record must be the unavailable sentinel")
	}
	if rec.Code != "000001" || !rec.Shares.Equal(d("42")) {
		t.Errorf("degraded record lost its identity: %+v", rec)
	}
	if !rec.ProfitLoss.IsZero() || !rec.ProfitValue.IsZero() {
		t.Error("degraded record must not carry derived values")
	}
}

func TestCurrentComputesProfit(t *testing.T) {
	agg := NewAggregator(nil, &scriptedSource{name: "a", v: goodValuation("某基金")})

	rec := agg.Current(context.Background(), "000001", d("500"))
	// (2.1 - 2) * 500
	if !rec.ProfitLoss.Equal(d("50")) {
		t.Errorf("got profit %s, want 50", rec.ProfitLoss)
	}
	// 500 * 2.1
	if !rec.ProfitValue.Equal(d("1050")) {
		t.Errorf("got value %s, want 1050", rec.ProfitValue)
	}
}

func TestCurrentZeroSharesNoProfit(t *testing.T) {
	agg := NewAggregator(nil, &scriptedSource{name: "a", v: goodValuation("某基金")})

	rec := agg.Current(context.Background(), "000001", decimal.Zero)
	if !rec.ProfitLoss.IsZero() || !rec.ProfitValue.IsZero() {
		t.Errorf("no position must mean no profit, got %s/%s", rec.ProfitLoss, rec.ProfitValue)
	}
}

func TestHistoryBestEffort(t *testing.T) {
	hist := &scriptedHistory{err: errors.New("stats page down")}
	agg := NewAggregator(hist, &scriptedSource{name: "a", v: goodValuation("某基金")})

	rec := agg.Current(context.Background(), "000001", d("10"))
	if !rec.Available() {
		t.Fatal("a history failure must not sink the valuation")
	}
	if !rec.History.IsZero() {
		t.Errorf("got history %+v, want all absent", rec.History)
	}
}

func TestHistoryCacheWins(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("000001", d("100"), fixedBase("2")); err != nil {
		t.Fatal(err)
	}
	cached := HistoryStats{LastWeek: decimal.NewNullDecimal(d("9.9"))}
	if err := s.SetCachedHistory("000001", cached); err != nil {
		t.Fatal(err)
	}

	hist := &scriptedHistory{stats: HistoryStats{LastWeek: decimal.NewNullDecimal(d("1"))}}
	agg := NewAggregator(hist, &scriptedSource{name: "a", v: goodValuation("某基金")})
	agg.Cache = s

	stats := agg.historyStats(context.Background(), "000001")
	if !stats.LastWeek.Decimal.Equal(d("9.9")) {
		t.Errorf("got lastWeek %s, want the cached 9.9", stats.LastWeek.Decimal)
	}
	if hist.calls.Load() != 0 {
		t.Errorf("a same-day cache hit must skip the fetch, got %d calls", hist.calls.Load())
	}
}

func TestHistoryFetchFillsCache(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("000001", d("100"), fixedBase("2")); err != nil {
		t.Fatal(err)
	}

	hist := &scriptedHistory{stats: HistoryStats{LastWeek: decimal.NewNullDecimal(d("1.5"))}}
	agg := NewAggregator(hist, &scriptedSource{name: "a", v: goodValuation("某基金")})
	agg.Cache = s

	agg.historyStats(context.Background(), "000001")
	if got, ok := s.CachedHistory("000001"); !ok {
		t.Error("fetched stats were not cached")
	} else if !got.LastWeek.Decimal.Equal(d("1.5")) {
		t.Errorf("cached lastWeek %s, want 1.5", got.LastWeek.Decimal)
	}

	agg.historyStats(context.Background(), "000001")
	if hist.calls.Load() != 1 {
		t.Errorf("second call fetched again, got %d calls", hist.calls.Load())
	}
}

func TestReconcileRepairsShares(t *testing.T) {
	s := newTestStore(t)
	s.append(&Holding{Code: "000001", Money: d("1000")})

	agg := NewAggregator(nil, &scriptedSource{name: "a", v: goodValuation("某基金")})
	agg.Repairer = s

	rec := agg.Current(context.Background(), "000001", decimal.Zero)
	rec = agg.reconcile(s.Holdings()[0], rec)

	if !rec.Shares.Equal(d("500")) {
		t.Errorf("got shares %s, want 1000/2=500", rec.Shares)
	}
	if got := s.Get("000001").Shares; !got.Equal(d("500")) {
		t.Errorf("repair was not persisted, store has %s", got)
	}
	// the repaired record carries recomputed profit
	if !rec.ProfitLoss.Equal(d("50")) {
		t.Errorf("got profit %s, want 50", rec.ProfitLoss)
	}
}

func TestBatchSortsByDescendingShares(t *testing.T) {
	agg := NewAggregator(nil, &scriptedSource{name: "a", v: goodValuation("某基金")})

	holdings := []Holding{
		{Code: "small", Shares: d("10")},
		{Code: "big", Shares: d("1000")},
		{Code: "mid", Shares: d("500")},
	}
	records := agg.Batch(context.Background(), holdings)

	want := []string{"big", "mid", "small"}
	for i, code := range want {
		if records[i].Code != code {
			t.Errorf("position %d: got %s, want %s", i, records[i].Code, code)
		}
	}
}

// TestBatchWithStoreWired runs the default wiring: the store serves as both
// the history cache and the share repairer while Batch mutates it from one
// goroutine per fund. Run with -race; the store must serialize the writes.
func TestBatchWithStoreWired(t *testing.T) {
	s := newTestStore(t)
	codes := []string{"000001", "000002", "000003", "000004"}
	for _, code := range codes {
		// money-only holdings, so every goroutine triggers a repair
		s.append(&Holding{Code: code, Money: d("1000")})
	}

	hist := historyFunc(func(context.Context, string) (HistoryStats, error) {
		return HistoryStats{LastWeek: decimal.NewNullDecimal(d("1.5"))}, nil
	})
	agg := NewAggregator(hist, sourceFunc(func(context.Context, string) (Valuation, error) {
		return goodValuation("某基金"), nil
	}))
	agg.Cache = s
	agg.Repairer = s

	records := agg.Batch(context.Background(), s.Holdings())
	if len(records) != len(codes) {
		t.Fatalf("got %d records, want %d", len(records), len(codes))
	}
	for _, r := range records {
		// 1000 invested at base value 2
		if !r.Shares.Equal(d("500")) {
			t.Errorf("fund %s: got shares %s, want 500", r.Code, r.Shares)
		}
	}
	for _, code := range codes {
		if got := s.Get(code).Shares; !got.Equal(d("500")) {
			t.Errorf("fund %s: repair not persisted, store has %s", code, got)
		}
		if stats, ok := s.CachedHistory(code); !ok {
			t.Errorf("fund %s: history not cached", code)
		} else if !stats.LastWeek.Decimal.Equal(d("1.5")) {
			t.Errorf("fund %s: cached lastWeek %s", code, stats.LastWeek.Decimal)
		}
	}
}

func TestBatchOneFailureDoesNotAbort(t *testing.T) {
	agg := NewAggregator(nil, sourceFunc(func(_ context.Context, code string) (Valuation, error) {
		if code == "gone" {
			return Valuation{}, errors.New("not found")
		}
		return goodValuation("某基金"), nil
	}))

	holdings := []Holding{
		{Code: "ok", Shares: d("10")},
		{Code: "gone", Shares: d("5")},
	}

	records := agg.Batch(context.Background(), holdings)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if !records[0].Available() || records[0].Code != "ok" {
		t.Errorf("first record should be the available one, got %+v", records[0])
	}
	if records[1].Available() {
		t.Error("failed fund must degrade, not disappear")
	}
}

// sourceFunc adapts a function to the Source interface.
type sourceFunc func(ctx context.Context, code string) (Valuation, error)

func (f sourceFunc) Name() string { return "func" }

func (f sourceFunc) Fetch(ctx context.Context, code string) (Valuation, error) {
	return f(ctx, code)
}

// historyFunc adapts a function to the HistorySource interface.
type historyFunc func(ctx context.Context, code string) (HistoryStats, error)

func (f historyFunc) FetchHistory(ctx context.Context, code string) (HistoryStats, error) {
	return f(ctx, code)
}
