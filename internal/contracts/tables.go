package contracts

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the canonical date format used in logs and keys
const DateLayout = "2006-01-02"

// TruncateDay normalizes a timestamp to UTC midnight
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key identifies one row of a long table
type Key struct {
	Date   time.Time `json:"date"`
	Symbol Symbol    `json:"symbol"`
}

// Less implements the canonical order: date ascending, then symbol ascending
func (k Key) Less(other Key) bool {
	if !k.Date.Equal(other.Date) {
		return k.Date.Before(other.Date)
	}
	return k.Symbol < other.Symbol
}

// String formats the key for logs and error messages
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Date.Format(DateLayout), k.Symbol)
}

// PriceTable is the wide price table: one row per trading date, one column per symbol
// ⭐ SSOT: Price source → S1 가격 데이터 전달
type PriceTable struct {
	Dates   []time.Time   // strictly increasing
	Symbols []Symbol      // unique
	Close   [][]NullFloat // Close[date][symbol], adjusted close
}

// NewPriceTable validates shape and ordering of a wide price table
func NewPriceTable(dates []time.Time, symbols []Symbol, closes [][]NullFloat) (*PriceTable, error) {
	if len(closes) != len(dates) {
		return nil, fmt.Errorf("price table has %d rows for %d dates", len(closes), len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("price table dates not strictly increasing at %s",
				dates[i].Format(DateLayout))
		}
	}
	seen := make(map[Symbol]struct{}, len(symbols))
	for _, s := range symbols {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("duplicate symbol column %s", s)
		}
		seen[s] = struct{}{}
	}
	for i, row := range closes {
		if len(row) != len(symbols) {
			return nil, fmt.Errorf("price row %s has %d values for %d symbols",
				dates[i].Format(DateLayout), len(row), len(symbols))
		}
	}
	return &PriceTable{Dates: dates, Symbols: symbols, Close: closes}, nil
}

// PricePoint is one adjusted close observed by a source
type PricePoint struct {
	Date   time.Time `json:"date"`
	Symbol Symbol    `json:"symbol"`
	Close  NullFloat `json:"close"`
}

// PivotPrices turns long price points into a wide table over the requested symbols.
// Dates are the union of observed dates; a symbol without any finite close is an error.
func PivotPrices(symbols []Symbol, points []PricePoint) (*PriceTable, error) {
	col := make(map[Symbol]int, len(symbols))
	for i, s := range symbols {
		col[s] = i
	}

	byDay := make(map[int64]time.Time)
	seen := make(map[Symbol]bool, len(symbols))
	for _, p := range points {
		if _, ok := col[p.Symbol]; !ok {
			continue
		}
		d := TruncateDay(p.Date)
		byDay[d.Unix()] = d
		if p.Close.IsFinite() {
			seen[p.Symbol] = true
		}
	}
	for _, s := range symbols {
		if !seen[s] {
			return nil, NewDataUnavailableError(StageIngestion, s.String(), "no prices in range", nil)
		}
	}

	dates := make([]time.Time, 0, len(byDay))
	for _, d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	row := make(map[int64]int, len(dates))
	for i, d := range dates {
		row[d.Unix()] = i
	}

	closes := make([][]NullFloat, len(dates))
	for i := range closes {
		closes[i] = make([]NullFloat, len(symbols))
	}
	for _, p := range points {
		j, ok := col[p.Symbol]
		if !ok {
			continue
		}
		closes[row[TruncateDay(p.Date).Unix()]][j] = p.Close
	}

	return NewPriceTable(dates, append([]Symbol(nil), symbols...), closes)
}

// ReturnRecord is a one-period forward return aligned to the period start date
type ReturnRecord struct {
	Date        time.Time `json:"date"`
	Symbol      Symbol    `json:"symbol"`
	AssetReturn float64   `json:"asset_return"`
}

// Key returns the (date, symbol) key of the record
func (r ReturnRecord) Key() Key {
	return Key{Date: r.Date, Symbol: r.Symbol}
}

// FundamentalObservation is a raw, sparsely populated fundamental row
// 재무 필드는 분기/연간으로만 갱신되고, 시가총액은 일별
type FundamentalObservation struct {
	Date      time.Time `json:"date"`
	Symbol    Symbol    `json:"symbol"`
	BookValue NullFloat `json:"book_value"`
	Revenue   NullFloat `json:"revenue"`
	CashFlow  NullFloat `json:"cash_flow"`
	MarketCap NullFloat `json:"market_cap"`
}

// Key returns the (date, symbol) key of the observation
func (o FundamentalObservation) Key() Key {
	return Key{Date: o.Date, Symbol: o.Symbol}
}

// FundamentalRecord holds price-normalized fundamental ratios
type FundamentalRecord struct {
	Date       time.Time `json:"date"`
	Symbol     Symbol    `json:"symbol"`
	MarketCap  NullFloat `json:"market_cap"`
	BookPrice  NullFloat `json:"book_price"`
	SalesPrice NullFloat `json:"sales_price"`
	CFPrice    NullFloat `json:"cf_price"`
}

// Key returns the (date, symbol) key of the record
func (r FundamentalRecord) Key() Key {
	return Key{Date: r.Date, Symbol: r.Symbol}
}

// SymbolResult is the per-symbol outcome of a batch retrieval
type SymbolResult[T any] struct {
	Symbol Symbol
	Value  T
	Err    error
}

// OK reports whether the retrieval succeeded
func (r SymbolResult[T]) OK() bool {
	return r.Err == nil
}
