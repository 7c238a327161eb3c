package jijin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/xiechanglei/xie-jijin/date"
)

// This file contains the holdings store: a single JSON document, keyed by
// fund code, that records the tracked set of funds. The store owns that file
// exclusively; every mutation is a full read-modify-write of the whole
// document followed by an in-process cache of the last-written state.
//
// The document is a JSON object and not an array, to stay byte-compatible
// with files written by earlier versions. Its key order is meaningful: it is
// the insertion order of the funds and the canonical iteration order for
// reports, so decoding preserves it instead of going through a Go map.

// CachedHistory is a HistoryStats tagged with the calendar date it was
// fetched on. The cache entry is valid only for that day.
type CachedHistory struct {
	HistoryStats
	Date date.Date `json:"date"`
}

// Holding is the persisted entry for one tracked fund.
type Holding struct {
	// Code is the fund code, the primary key of the document.
	Code string `json:"code"`
	// Money is the amount originally invested. It is the canonical user
	// input: shares are derived from it when a base value is known.
	Money decimal.Decimal `json:"money"`
	// Shares is the number of units held, either zero (no computed
	// position yet) or Money divided by the base value at resolution time.
	Shares decimal.Decimal `json:"shares"`
	// HisData caches the history statistics for one calendar day.
	HisData *CachedHistory `json:"hisData,omitempty"`
}

// BaseValueFunc resolves the current base net value for a fund code. The
// store calls it whenever an invested amount must be converted into shares.
type BaseValueFunc func(code string) (decimal.Decimal, error)

// Store persists the set of tracked fund codes with their share counts.
//
// The batch pipeline mutates it from one goroutine per fund (history cache
// writes, lazy share repairs), so every access to the holdings and the file
// behind them is serialized by the mutex.
type Store struct {
	path string

	mu       sync.Mutex // guards holdings, index and the backing file
	holdings []*Holding
	index    map[string]*Holding
}

// OpenStore reads the holdings document at path. A missing file yields an
// empty store; a malformed document is an error, there is no silent repair.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, index: make(map[string]*Holding)}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read store %q: %w", path, err)
	}
	if err := s.decode(content); err != nil {
		return nil, fmt.Errorf("store %q is corrupted: %w", path, err)
	}
	return s, nil
}

// decode parses the whole document, keeping the holdings in file order.
func (s *Store) decode(content []byte) error {
	dec := json.NewDecoder(bytes.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("want a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		code := tok.(string) // object keys are always strings
		h := &Holding{}
		if err := dec.Decode(h); err != nil {
			return fmt.Errorf("entry %q: %w", code, err)
		}
		if h.Code == "" {
			h.Code = code
		}
		s.append(h)
	}
	_, err = dec.Token() // consume the closing '}'
	return err
}

func (s *Store) append(h *Holding) {
	s.holdings = append(s.holdings, h)
	s.index[h.Code] = h
}

// save writes the whole document back, preserving insertion order. The write
// is a single whole-file overwrite; there is no crash-safety guarantee
// beyond what the filesystem gives to one write call. Callers hold s.mu.
func (s *Store) save() error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, h := range s.holdings {
		entry, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("cannot encode entry %q: %w", h.Code, err)
		}
		fmt.Fprintf(&buf, "  %q: %s", h.Code, entry)
		if i < len(s.holdings)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write store %q: %w", s.path, err)
	}
	return nil
}

// Path returns the file backing this store.
func (s *Store) Path() string { return s.path }

// Len returns the number of tracked funds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holdings)
}

// Has reports whether the fund code is tracked.
func (s *Store) Has(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[code]
	return ok
}

// Get returns a copy of the holding for a code, or nil when the code is not
// tracked.
func (s *Store) Get(code string) *Holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok {
		return nil
	}
	out := *h
	return &out
}

// Holdings returns the tracked funds in insertion order. The returned
// holdings are copies: mutating them does not touch the store.
func (s *Store) Holdings() []Holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Holding, 0, len(s.holdings))
	for _, h := range s.holdings {
		out = append(out, *h)
	}
	return out
}

// Add tracks a fund code, or overwrites the position when the code is
// already tracked (re-add is equivalent to re-set). When money is positive
// the current base value is resolved and shares are derived from it; when
// that resolution fails the operation fails and nothing is written.
func (s *Store) Add(code string, money decimal.Decimal, resolve BaseValueFunc) error {
	// resolution does network I/O, keep it outside the lock
	shares, err := deriveShares(code, money, resolve)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok {
		h = &Holding{Code: code}
		s.append(h)
	}
	h.Money = money
	h.Shares = shares
	return s.save()
}

// Remove stops tracking a fund code. Removing an unknown code is a no-op.
func (s *Store) Remove(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[code]; !ok {
		return nil
	}
	delete(s.index, code)
	for i, h := range s.holdings {
		if h.Code == code {
			s.holdings = append(s.holdings[:i], s.holdings[i+1:]...)
			break
		}
	}
	return s.save()
}

// SetMoney overwrites the invested amount of a tracked fund and re-derives
// its shares. The caller is responsible for checking that the code is
// already tracked; the store only fails loudly when the base value cannot
// be resolved.
func (s *Store) SetMoney(code string, money decimal.Decimal, resolve BaseValueFunc) error {
	shares, err := deriveShares(code, money, resolve)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok {
		h = &Holding{Code: code}
		s.append(h)
	}
	h.Money = money
	h.Shares = shares
	return s.save()
}

// SetShares overwrites the share count directly, without any quote
// resolution. The invested amount is cleared so the record never carries two
// competing sources of truth.
func (s *Store) SetShares(code string, shares decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok {
		h = &Holding{Code: code}
		s.append(h)
	}
	h.Money = decimal.Zero
	h.Shares = shares
	return s.save()
}

// UpdateShares recomputes the shares of a holding from its invested amount
// and the given base value. This is the lazy repair path for records created
// before shares were derived at add time: it only touches holdings with a
// positive amount and no share count yet.
func (s *Store) UpdateShares(code string, baseValue decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok {
		return nil
	}
	if !h.Money.IsPositive() || !h.Shares.IsZero() || !baseValue.IsPositive() {
		return nil
	}
	h.Shares = h.Money.Div(baseValue)
	return s.save()
}

// CachedHistory returns the history statistics cached for code today. The
// cache is scoped to the calendar day it was written on; an entry from any
// other day is treated as absent.
func (s *Store) CachedHistory(code string) (HistoryStats, bool) {
	return s.cachedHistoryOn(code, date.Today())
}

func (s *Store) cachedHistoryOn(code string, on date.Date) (HistoryStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok || h.HisData == nil {
		return HistoryStats{}, false
	}
	if h.HisData.Date.String() != on.String() {
		return HistoryStats{}, false
	}
	return h.HisData.HistoryStats, true
}

// SetCachedHistory caches today's history statistics for code. Caching for
// an unknown code is a no-op: the tracked set is only changed by Add.
func (s *Store) SetCachedHistory(code string, stats HistoryStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[code]
	if !ok {
		return nil
	}
	h.HisData = &CachedHistory{HistoryStats: stats, Date: date.Today()}
	return s.save()
}

// deriveShares converts an invested amount into shares using the resolved
// base value. A zero or negative amount yields zero shares without any
// resolution attempt.
func deriveShares(code string, money decimal.Decimal, resolve BaseValueFunc) (decimal.Decimal, error) {
	if !money.IsPositive() {
		return decimal.Zero, nil
	}
	if resolve == nil {
		return decimal.Zero, ErrQuoteUnavailable
	}
	base, err := resolve(code)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrQuoteUnavailable, err)
	}
	if !base.IsPositive() {
		return decimal.Zero, ErrQuoteUnavailable
	}
	return money.Div(base), nil
}
