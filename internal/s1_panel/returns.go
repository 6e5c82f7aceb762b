package s1_panel

import (
	"math"
	"sort"

	"github.com/wonny/factorpanel/internal/contracts"
)

// ConvertReturns turns the wide price table into one-period forward returns.
//
// r(t) = price(t+1)/price(t) - 1 is recorded on date t, so the last date has no
// row. A missing or non-positive base price, a missing next price or a non-finite
// result is recorded as 0.0. Output is ordered by date, then symbol.
// ⭐ SSOT: S1 forward return 계산은 여기서만
func ConvertReturns(prices *contracts.PriceTable) ([]contracts.ReturnRecord, error) {
	records, _, err := ConvertReturnsWithFill(prices)
	return records, err
}

// ConvertReturnsWithFill also reports how many cells were zero-filled
func ConvertReturnsWithFill(prices *contracts.PriceTable) ([]contracts.ReturnRecord, int, error) {
	if prices == nil || len(prices.Symbols) == 0 {
		return nil, 0, contracts.NewDataUnavailableError(contracts.StageReturns, "prices", "price table has no symbols", nil)
	}
	if len(prices.Dates) == 0 {
		return nil, 0, contracts.NewDataUnavailableError(contracts.StageReturns, "prices", "price table has no dates", nil)
	}
	if len(prices.Dates) < 2 {
		return nil, 0, contracts.NewDataUnavailableError(contracts.StageReturns, "prices",
			"at least two dates are needed to observe a return", nil)
	}
	if usableColumns(prices) == 0 {
		return nil, 0, contracts.NewDataUnavailableError(contracts.StageReturns, "prices", "no usable price columns", nil)
	}

	// 컬럼 순서와 무관하게 symbol 오름차순 출력
	order := make([]int, len(prices.Symbols))
	for j := range order {
		order[j] = j
	}
	sort.Slice(order, func(a, b int) bool {
		return prices.Symbols[order[a]] < prices.Symbols[order[b]]
	})

	nDates := len(prices.Dates) - 1
	records := make([]contracts.ReturnRecord, 0, nDates*len(order))
	filled := 0
	for t := 0; t < nDates; t++ {
		for _, j := range order {
			r, ok := forwardReturn(prices.Close[t][j], prices.Close[t+1][j])
			if !ok {
				filled++
			}
			records = append(records, contracts.ReturnRecord{
				Date:        prices.Dates[t],
				Symbol:      prices.Symbols[j],
				AssetReturn: r,
			})
		}
	}
	return records, filled, nil
}

// usableColumns counts symbols with at least one finite, positive close
func usableColumns(prices *contracts.PriceTable) int {
	n := 0
	for j := range prices.Symbols {
		for t := range prices.Dates {
			if c := prices.Close[t][j]; c.IsFinite() && c.Float64 > 0 {
				n++
				break
			}
		}
	}
	return n
}

// forwardReturn returns (0, false) when the return is not observable
func forwardReturn(p0, p1 contracts.NullFloat) (float64, bool) {
	if !p0.IsFinite() || !p1.IsFinite() || p0.Float64 <= 0 {
		return 0.0, false
	}
	r := p1.Float64/p0.Float64 - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0.0, false
	}
	return r, true
}
