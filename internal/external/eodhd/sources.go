package eodhd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
)

// PriceSource adapts the client to contracts.PriceSource
type PriceSource struct {
	client *Client
}

// NewPriceSource creates a price source
func NewPriceSource(client *Client) *PriceSource {
	return &PriceSource{client: client}
}

// Fetch downloads adjusted closes one symbol at a time and pivots them
func (s *PriceSource) Fetch(ctx context.Context, symbols []contracts.Symbol, from, to time.Time) (*contracts.PriceTable, error) {
	if len(symbols) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, "prices", "empty universe", nil)
	}

	var points []contracts.PricePoint
	for _, sym := range symbols {
		bars, err := s.client.GetEOD(ctx, sym, from, to)
		if err != nil {
			return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, sym.String(), "fetch prices failed", err)
		}
		for _, b := range bars {
			d, err := time.Parse(contracts.DateLayout, b.Date)
			if err != nil {
				return nil, fmt.Errorf("parse bar date %q of %s: %w", b.Date, sym, err)
			}
			points = append(points, contracts.PricePoint{Date: d, Symbol: sym, Close: closeOf(b)})
		}
	}
	return contracts.PivotPrices(symbols, points)
}

func closeOf(b EODBar) contracts.NullFloat {
	switch {
	case b.AdjustedClose > 0:
		return contracts.Float(b.AdjustedClose)
	case b.Close > 0:
		return contracts.Float(b.Close)
	default:
		return contracts.Null()
	}
}

// FundamentalSource adapts the client to contracts.FundamentalSource
type FundamentalSource struct {
	client *Client
}

// NewFundamentalSource creates a fundamental source
func NewFundamentalSource(client *Client) *FundamentalSource {
	return &FundamentalSource{client: client}
}

// FetchOne merges daily market caps with quarterly statements.
// Statements are dated at their period end; periods before from are kept for forward-fill.
func (s *FundamentalSource) FetchOne(ctx context.Context, symbol contracts.Symbol, from, to time.Time) ([]contracts.FundamentalObservation, error) {
	caps, err := s.client.GetMarketCap(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	fund, err := s.client.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*contracts.FundamentalObservation)
	at := func(date string) (*contracts.FundamentalObservation, error) {
		if o, ok := byDate[date]; ok {
			return o, nil
		}
		d, err := time.Parse(contracts.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q of %s: %w", date, symbol, err)
		}
		o := &contracts.FundamentalObservation{Date: d, Symbol: symbol}
		byDate[date] = o
		return o, nil
	}

	for _, p := range caps {
		o, err := at(p.Date)
		if err != nil {
			return nil, err
		}
		if p.Value > 0 {
			o.MarketCap = contracts.Float(p.Value)
		}
	}

	if fund.Financials != nil {
		toDate := to.Format(contracts.DateLayout)
		apply := func(st *Statement, set func(*contracts.FundamentalObservation, StatementEntry)) error {
			if st == nil {
				return nil
			}
			for period, entry := range st.Quarterly {
				if period > toDate {
					continue
				}
				o, err := at(period)
				if err != nil {
					return err
				}
				set(o, entry)
			}
			return nil
		}
		if err := apply(fund.Financials.BalanceSheet, func(o *contracts.FundamentalObservation, e StatementEntry) {
			o.BookValue = e.TotalStockholderEquity.NullFloat
		}); err != nil {
			return nil, err
		}
		if err := apply(fund.Financials.IncomeStatement, func(o *contracts.FundamentalObservation, e StatementEntry) {
			o.Revenue = e.TotalRevenue.NullFloat
		}); err != nil {
			return nil, err
		}
		if err := apply(fund.Financials.CashFlow, func(o *contracts.FundamentalObservation, e StatementEntry) {
			o.CashFlow = e.TotalCashFromOperatingActivities.NullFloat
		}); err != nil {
			return nil, err
		}
	}

	if len(byDate) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, symbol.String(), "no fundamentals in range", nil)
	}

	obs := make([]contracts.FundamentalObservation, 0, len(byDate))
	for _, o := range byDate {
		obs = append(obs, *o)
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs, nil
}

// SectorSource adapts the client to contracts.SectorSource
type SectorSource struct {
	client *Client
}

// NewSectorSource creates a sector source
func NewSectorSource(client *Client) *SectorSource {
	return &SectorSource{client: client}
}

// FetchOne returns the sector label; an unclassified symbol gives an empty label
func (s *SectorSource) FetchOne(ctx context.Context, symbol contracts.Symbol) (string, error) {
	return s.client.GetSector(ctx, symbol)
}
