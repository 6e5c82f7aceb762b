package s1_panel

import (
	"sort"

	"github.com/wonny/factorpanel/internal/contracts"
)

// ForwardFill carries the last non-null book value, revenue and cash flow of each
// symbol forward in date order. Leading nulls stay null. Market cap is a daily
// series and is never filled. The input is not modified; the result is sorted by
// date, then symbol. Applying ForwardFill to its own output changes nothing.
func ForwardFill(obs []contracts.FundamentalObservation) []contracts.FundamentalObservation {
	out := make([]contracts.FundamentalObservation, len(obs))
	copy(out, obs)

	// symbol → date 정렬 후 심볼 단위로 carry
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date.Before(out[j].Date)
	})

	var last struct {
		symbol                  contracts.Symbol
		book, revenue, cashFlow contracts.NullFloat
	}
	for i := range out {
		if i == 0 || out[i].Symbol != last.symbol {
			last.symbol = out[i].Symbol
			last.book, last.revenue, last.cashFlow = contracts.Null(), contracts.Null(), contracts.Null()
		}
		out[i].BookValue = carry(out[i].BookValue, &last.book)
		out[i].Revenue = carry(out[i].Revenue, &last.revenue)
		out[i].CashFlow = carry(out[i].CashFlow, &last.cashFlow)
	}

	sortKeys(out, contracts.FundamentalObservation.Key)
	return out
}

func carry(v contracts.NullFloat, last *contracts.NullFloat) contracts.NullFloat {
	if v.IsFinite() {
		*last = v
		return v
	}
	return *last
}

// AlignFundamentals forward-fills raw observations and converts them into
// price-normalized ratios (book/price, sales/price, cash flow/price).
// A ratio is null unless both operands are present and market cap is non-zero;
// a missing ratio is never turned into 0.
// ⭐ SSOT: S2 재무 비율 계산은 여기서만
func AlignFundamentals(obs []contracts.FundamentalObservation) ([]contracts.FundamentalRecord, error) {
	if len(obs) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageFundamentals, "fundamentals", "no observations", nil)
	}

	seen := make(map[joinKey]struct{}, len(obs))
	for _, o := range obs {
		k := keyOf(o.Date, o.Symbol)
		if _, dup := seen[k]; dup {
			return nil, contracts.NewAlignmentError(contracts.StageFundamentals, o.Key().String(), "duplicate observation")
		}
		seen[k] = struct{}{}
	}

	filled := ForwardFill(obs)
	records := make([]contracts.FundamentalRecord, len(filled))
	for i, o := range filled {
		records[i] = contracts.FundamentalRecord{
			Date:       o.Date,
			Symbol:     o.Symbol,
			MarketCap:  o.MarketCap,
			BookPrice:  ratio(o.BookValue, o.MarketCap),
			SalesPrice: ratio(o.Revenue, o.MarketCap),
			CFPrice:    ratio(o.CashFlow, o.MarketCap),
		}
	}
	return records, nil
}

func ratio(x, marketCap contracts.NullFloat) contracts.NullFloat {
	if !x.IsFinite() || !marketCap.IsFinite() || marketCap.Float64 == 0 {
		return contracts.Null()
	}
	return contracts.Float(x.Float64 / marketCap.Float64)
}
