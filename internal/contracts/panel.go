package contracts

import "time"

// PanelRow is one (date, symbol) row present in returns, fundamentals and sectors
type PanelRow struct {
	Key
	AssetReturn float64   `json:"asset_return"`
	MarketCap   NullFloat `json:"market_cap"`
	BookPrice   NullFloat `json:"book_price"`
	SalesPrice  NullFloat `json:"sales_price"`
	CFPrice     NullFloat `json:"cf_price"`
	Sector      []int     `json:"sector"` // aligned to Panel.Sectors
}

// MergeDiagnostics exposes how much each join narrowed the data
type MergeDiagnostics struct {
	ReturnRows            int `json:"return_rows"`
	FundamentalRows       int `json:"fundamental_rows"`
	SectorSymbols         int `json:"sector_symbols"`
	AfterFundamentalJoin  int `json:"after_fundamental_join"`
	AfterSectorJoin       int `json:"after_sector_join"`
	LostAtFundamentalJoin int `json:"lost_at_fundamental_join"` // return keys without fundamentals
	LostAtSectorJoin      int `json:"lost_at_sector_join"`      // joined keys without a sector row
}

// Panel is the merged long table keyed by (date, symbol)
// ⭐ SSOT: S4 → S5 패널 전달 (inner join 결과, date → symbol 정렬)
type Panel struct {
	Sectors     SectorSet        `json:"sectors"`
	Rows        []PanelRow       `json:"rows"`
	Diagnostics MergeDiagnostics `json:"diagnostics"`
}

// Len returns the number of rows
func (p *Panel) Len() int {
	return len(p.Rows)
}

// Keys returns the (date, symbol) projection in panel order
func (p *Panel) Keys() []Key {
	keys := make([]Key, len(p.Rows))
	for i, r := range p.Rows {
		keys[i] = r.Key
	}
	return keys
}

// Dates returns the distinct dates of the panel in order
func (p *Panel) Dates() []time.Time {
	var dates []time.Time
	for i, r := range p.Rows {
		if i == 0 || !r.Date.Equal(p.Rows[i-1].Date) {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// Symbols returns the distinct symbols of the panel
func (p *Panel) Symbols() []Symbol {
	seen := make(map[Symbol]struct{})
	var out []Symbol
	for _, r := range p.Rows {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r.Symbol)
	}
	return out
}
