package jijin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xiechanglei/xie-jijin/date"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	return s
}

// fixedBase resolves every code to the same base value.
func fixedBase(v string) BaseValueFunc {
	base := decimal.RequireFromString(v)
	return func(string) (decimal.Decimal, error) { return base, nil }
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestOpenStoreMissingFile(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("a missing file must open as an empty store, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("got %d holdings, want 0", s.Len())
	}
}

func TestOpenStoreCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte(`{"000001": {`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := OpenStore(path)
	if err == nil {
		t.Fatal("a malformed document must fail to open")
	}
	if !strings.Contains(err.Error(), "corrupted") {
		t.Errorf("error %q does not name the corruption", err)
	}
}

func TestOpenStoreLegacyNumbers(t *testing.T) {
	// files written by earlier versions carry plain JSON numbers
	path := filepath.Join(t.TempDir(), "store.json")
	doc := `{"000001": {"code":"000001","money":1000,"shares":512.3}}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	h := s.Get("000001")
	if h == nil {
		t.Fatal("missing holding")
	}
	if !h.Money.Equal(d("1000")) || !h.Shares.Equal(d("512.3")) {
		t.Errorf("got money=%s shares=%s", h.Money, h.Shares)
	}
}

func TestAddDerivesShares(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("000001", d("1000"), fixedBase("2")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h := s.Get("000001")
	if !h.Shares.Equal(d("500")) {
		t.Errorf("got shares %s, want 500", h.Shares)
	}
}

func TestAddZeroMoneySkipsResolution(t *testing.T) {
	s := newTestStore(t)

	resolve := func(string) (decimal.Decimal, error) {
		t.Fatal("resolution must not run for a zero amount")
		return decimal.Zero, nil
	}
	if err := s.Add("000001", decimal.Zero, resolve); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !s.Get("000001").Shares.IsZero() {
		t.Error("zero money must yield zero shares")
	}
}

func TestAddQuoteUnavailable(t *testing.T) {
	s := newTestStore(t)

	resolve := func(string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("connection refused")
	}
	err := s.Add("000001", d("1000"), resolve)
	if !errors.Is(err, ErrQuoteUnavailable) {
		t.Fatalf("got %v, want ErrQuoteUnavailable", err)
	}
	// a failed add must not leave a partial entry behind
	if s.Has("000001") {
		t.Error("failed add still wrote the holding")
	}
}

func TestAddOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("000001", d("1000"), fixedBase("2")); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("000001", d("300"), fixedBase("3")); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("got %d holdings, want 1", s.Len())
	}
	h := s.Get("000001")
	if !h.Money.Equal(d("300")) || !h.Shares.Equal(d("100")) {
		t.Errorf("got money=%s shares=%s, want 300/100", h.Money, h.Shares)
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.Remove("999999"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestSetSharesClearsMoney(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("000001", d("1000"), fixedBase("2")); err != nil {
		t.Fatal(err)
	}

	if err := s.SetShares("000001", d("128")); err != nil {
		t.Fatalf("SetShares: %v", err)
	}
	h := s.Get("000001")
	if !h.Shares.Equal(d("128")) {
		t.Errorf("got shares %s, want 128", h.Shares)
	}
	if !h.Money.IsZero() {
		t.Errorf("money must be cleared, got %s", h.Money)
	}
}

func TestUpdateSharesRepairsOnlyPending(t *testing.T) {
	s := newTestStore(t)

	// a legacy holding with money but no derived shares yet
	if err := s.Add("000001", d("1000"), nil); err == nil {
		t.Fatal("want failure without a resolver")
	}
	s.append(&Holding{Code: "000001", Money: d("1000")})
	s.append(&Holding{Code: "000002", Money: d("1000"), Shares: d("400")})

	if err := s.UpdateShares("000001", d("2.5")); err != nil {
		t.Fatalf("UpdateShares: %v", err)
	}
	if got := s.Get("000001").Shares; !got.Equal(d("400")) {
		t.Errorf("got shares %s, want 400", got)
	}

	// an already-derived holding is left alone
	if err := s.UpdateShares("000002", d("2")); err != nil {
		t.Fatal(err)
	}
	if got := s.Get("000002").Shares; !got.Equal(d("400")) {
		t.Errorf("repair touched settled shares: %s", got)
	}
}

func TestInsertionOrderSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}

	codes := []string{"519983", "000001", "110011", "005827"}
	for _, code := range codes {
		if err := s.Add(code, d("100"), fixedBase("2")); err != nil {
			t.Fatal(err)
		}
	}

	reloaded, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	holdings := reloaded.Holdings()
	if len(holdings) != len(codes) {
		t.Fatalf("got %d holdings, want %d", len(holdings), len(codes))
	}
	for i, code := range codes {
		if holdings[i].Code != code {
			t.Errorf("position %d: got %s, want %s", i, holdings[i].Code, code)
		}
	}
}

func TestCachedHistoryScopedToDay(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("000001", d("100"), fixedBase("2")); err != nil {
		t.Fatal(err)
	}

	stats := HistoryStats{LastWeek: decimal.NewNullDecimal(d("1.5"))}
	if err := s.SetCachedHistory("000001", stats); err != nil {
		t.Fatalf("SetCachedHistory: %v", err)
	}

	if got, ok := s.cachedHistoryOn("000001", date.Today()); !ok {
		t.Error("today's entry must be served")
	} else if !got.LastWeek.Decimal.Equal(d("1.5")) {
		t.Errorf("got lastWeek %s", got.LastWeek.Decimal)
	}

	if _, ok := s.cachedHistoryOn("000001", date.Today().Add(1)); ok {
		t.Error("an entry from another day must be treated as absent")
	}
}

func TestSetCachedHistoryUnknownCode(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCachedHistory("999999", HistoryStats{}); err != nil {
		t.Fatalf("caching for an unknown code must be a no-op, got %v", err)
	}
	if s.Has("999999") {
		t.Error("cache write created a holding")
	}
}
