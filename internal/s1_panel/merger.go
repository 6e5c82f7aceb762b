package s1_panel

import (
	"fmt"

	"github.com/wonny/factorpanel/internal/contracts"
)

// MergePanel inner-joins returns with fundamentals on (date, symbol) and then
// with sector dummies on symbol. Only keys present in all three inputs survive;
// how many rows each join removed is reported in Panel.Diagnostics.
// ⭐ SSOT: S4 패널 병합은 여기서만
func MergePanel(
	returns []contracts.ReturnRecord,
	fundamentals []contracts.FundamentalRecord,
	sectors *contracts.SectorDummies,
) (*contracts.Panel, error) {
	switch {
	case len(returns) == 0:
		return nil, contracts.NewDataUnavailableError(contracts.StageMerge, "returns", "empty input", nil)
	case len(fundamentals) == 0:
		return nil, contracts.NewDataUnavailableError(contracts.StageMerge, "fundamentals", "empty input", nil)
	case sectors == nil || len(sectors.Rows) == 0:
		return nil, contracts.NewDataUnavailableError(contracts.StageMerge, "sectors", "empty input", nil)
	}

	// 입력 중복 키는 집합 의미를 깨므로 join 전에 거부
	seenReturns := make(map[joinKey]struct{}, len(returns))
	for _, r := range returns {
		k := keyOf(r.Date, r.Symbol)
		if _, dup := seenReturns[k]; dup {
			return nil, contracts.NewAlignmentError(contracts.StageMerge, r.Key().String(), "duplicate key in returns")
		}
		seenReturns[k] = struct{}{}
	}

	fundByKey := make(map[joinKey]contracts.FundamentalRecord, len(fundamentals))
	for _, f := range fundamentals {
		k := keyOf(f.Date, f.Symbol)
		if _, dup := fundByKey[k]; dup {
			return nil, contracts.NewAlignmentError(contracts.StageMerge, f.Key().String(), "duplicate key in fundamentals")
		}
		fundByKey[k] = f
	}

	sectorBySymbol := make(map[contracts.Symbol][]int, len(sectors.Rows))
	width := sectors.Set.Len()
	for _, s := range sectors.Rows {
		if _, dup := sectorBySymbol[s.Symbol]; dup {
			return nil, contracts.NewAlignmentError(contracts.StageMerge, s.Symbol.String(), "duplicate symbol in sector dummies")
		}
		if len(s.Vector) != width {
			return nil, contracts.NewAlignmentError(contracts.StageMerge, s.Symbol.String(),
				fmt.Sprintf("sector vector has %d columns, set has %d", len(s.Vector), width))
		}
		sectorBySymbol[s.Symbol] = s.Vector
	}

	diag := contracts.MergeDiagnostics{
		ReturnRows:      len(returns),
		FundamentalRows: len(fundamentals),
		SectorSymbols:   len(sectors.Rows),
	}

	rows := make([]contracts.PanelRow, 0, len(returns))
	for _, r := range returns {
		f, ok := fundByKey[keyOf(r.Date, r.Symbol)]
		if !ok {
			continue
		}
		diag.AfterFundamentalJoin++

		vector, ok := sectorBySymbol[r.Symbol]
		if !ok {
			continue
		}

		sector := make([]int, len(vector))
		copy(sector, vector)
		rows = append(rows, contracts.PanelRow{
			Key:         r.Key(),
			AssetReturn: r.AssetReturn,
			MarketCap:   f.MarketCap,
			BookPrice:   f.BookPrice,
			SalesPrice:  f.SalesPrice,
			CFPrice:     f.CFPrice,
			Sector:      sector,
		})
	}
	diag.AfterSectorJoin = len(rows)
	diag.LostAtFundamentalJoin = diag.ReturnRows - diag.AfterFundamentalJoin
	diag.LostAtSectorJoin = diag.AfterFundamentalJoin - diag.AfterSectorJoin

	if len(rows) == 0 {
		return nil, contracts.NewAlignmentError(contracts.StageMerge, "panel",
			fmt.Sprintf("join produced no rows (returns=%d fundamentals=%d sectors=%d)",
				diag.ReturnRows, diag.FundamentalRows, diag.SectorSymbols))
	}

	sortKeys(rows, func(r contracts.PanelRow) contracts.Key { return r.Key })
	return &contracts.Panel{
		Sectors:     sectors.Set,
		Rows:        rows,
		Diagnostics: diag,
	}, nil
}
