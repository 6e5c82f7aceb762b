package risk

import (
	"fmt"

	"github.com/wonny/factorpanel/internal/contracts"
)

// FactorRisk summarizes the estimated return history of one factor
type FactorRisk struct {
	Factor     string  `json:"factor"` // style factor id or sector label
	Dates      int     `json:"dates"`
	Mean       float64 `json:"mean"`
	Volatility float64 `json:"volatility"` // 기간당 표준편차
	VaRResult
}

// Summarize computes per-factor mean, volatility and historical VaR over a
// factor return table. Factors appear in first-seen order of the table.
func Summarize(table *contracts.FactorReturnTable, confidence float64) ([]FactorRisk, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, contracts.NewConfigurationError(contracts.StageFactors, "risk.confidence",
			fmt.Sprintf("confidence %.3f must be in (0, 1)", confidence))
	}
	if table == nil || len(table.Rows) == 0 {
		return nil, nil
	}

	var order []string
	series := make(map[string][]float64)
	for _, row := range table.Rows {
		if _, ok := series[row.Factor]; !ok {
			order = append(order, row.Factor)
		}
		series[row.Factor] = append(series[row.Factor], row.Return)
	}

	out := make([]FactorRisk, 0, len(order))
	for _, f := range order {
		values := series[f]
		mean, sd := MeanStdDev(values)
		out = append(out, FactorRisk{
			Factor:     f,
			Dates:      len(values),
			Mean:       mean,
			Volatility: sd,
			VaRResult:  HistoricalVaR(values, confidence),
		})
	}
	return out, nil
}
