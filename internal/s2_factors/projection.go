package s2_factors

import (
	"fmt"
	"math"

	"github.com/wonny/factorpanel/internal/contracts"
)

// Project selects the columns a factor needs, keeping the panel key order
func Project(panel *contracts.Panel, f contracts.FactorID) (*contracts.Projection, error) {
	columns := f.Columns()
	if columns == nil {
		return nil, contracts.NewConfigurationError(contracts.StageFactors, string(f), "unknown factor identifier")
	}

	values := make([][]contracts.NullFloat, panel.Len())
	for i, row := range panel.Rows {
		values[i] = make([]contracts.NullFloat, len(columns))
		for j, col := range columns {
			v, err := column(row, col)
			if err != nil {
				return nil, contracts.NewConfigurationError(contracts.StageFactors, string(f), err.Error())
			}
			values[i][j] = v
		}
	}

	return &contracts.Projection{
		Factor:  f,
		Keys:    panel.Keys(),
		Columns: append([]string(nil), columns...),
		Values:  values,
	}, nil
}

func column(row contracts.PanelRow, name string) (contracts.NullFloat, error) {
	switch name {
	case contracts.ColAssetReturn:
		return contracts.Float(row.AssetReturn), nil
	case contracts.ColMarketCap:
		return row.MarketCap, nil
	case contracts.ColBookPrice:
		return row.BookPrice, nil
	case contracts.ColSalesPrice:
		return row.SalesPrice, nil
	case contracts.ColCFPrice:
		return row.CFPrice, nil
	default:
		return contracts.Null(), fmt.Errorf("unknown panel column %s", name)
	}
}

// buildEstimationInput keeps the panel rows whose every value column and score is finite
// ⭐ SSOT: 회귀 입력에는 null/NaN/Inf 가 절대 없음
func buildEstimationInput(panel *contracts.Panel, scores *contracts.FactorScoreTable) (*contracts.EstimationInput, int, error) {
	if scores.Len() != panel.Len() {
		return nil, 0, contracts.NewAlignmentError(contracts.StageFactors, "scores",
			fmt.Sprintf("score table has %d rows, panel has %d", scores.Len(), panel.Len()))
	}

	input := &contracts.EstimationInput{
		Sectors: panel.Sectors,
		Factors: scores.Factors,
	}
	dropped := 0
	for i, row := range panel.Rows {
		if !complete(row, scores.Scores[i]) {
			dropped++
			continue
		}
		rowScores := make([]float64, len(scores.Scores[i]))
		for j, s := range scores.Scores[i] {
			rowScores[j] = s.Float64
		}
		input.Keys = append(input.Keys, row.Key)
		input.Returns = append(input.Returns, row.AssetReturn)
		input.MarketCaps = append(input.MarketCaps, row.MarketCap.Float64)
		input.SectorDummies = append(input.SectorDummies, append([]int(nil), row.Sector...))
		input.Scores = append(input.Scores, rowScores)
	}

	if len(input.Keys) == 0 {
		return nil, dropped, contracts.NewValidationError(contracts.StageFactors, "panel",
			fmt.Sprintf("no complete rows for estimation (%d dropped)", dropped))
	}
	if err := recheck(input); err != nil {
		return nil, dropped, err
	}
	return input, dropped, nil
}

func complete(row contracts.PanelRow, scores []contracts.NullFloat) bool {
	if !finite(row.AssetReturn) {
		return false
	}
	for _, v := range []contracts.NullFloat{row.MarketCap, row.BookPrice, row.SalesPrice, row.CFPrice} {
		if !v.IsFinite() {
			return false
		}
	}
	for _, s := range scores {
		if !s.IsFinite() {
			return false
		}
	}
	return true
}

// recheck guards the estimator boundary after the drop
func recheck(in *contracts.EstimationInput) error {
	for i, k := range in.Keys {
		if !finite(in.Returns[i]) || !finite(in.MarketCaps[i]) {
			return contracts.NewValidationError(contracts.StageFactors, k.String(), "non-finite value survived completeness filter")
		}
		for _, s := range in.Scores[i] {
			if !finite(s) {
				return contracts.NewValidationError(contracts.StageFactors, k.String(), "non-finite score survived completeness filter")
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
