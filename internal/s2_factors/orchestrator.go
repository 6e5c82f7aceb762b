package s2_factors

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

// Result holds the outputs of one factor run
type Result struct {
	Scores         *contracts.FactorScoreTable    `json:"scores"`
	FactorReturns  *contracts.FactorReturnTable   `json:"factor_returns"`
	Residuals      *contracts.ResidualReturnTable `json:"residuals"`
	RegressionRows int                            `json:"regression_rows"`
	DroppedRows    int                            `json:"dropped_rows"` // 결측/NaN 으로 회귀에서 제외된 행
	SkippedDates   []time.Time                    `json:"skipped_dates"`
}

// Orchestrator scores the requested style factors on a panel and estimates factor returns
// ⭐ SSOT: S5 팩터 파이프라인 조율은 여기서만
type Orchestrator struct {
	scorers   map[contracts.FactorID]contracts.StyleScorer
	estimator contracts.ReturnEstimator
	logger    *logger.Logger
}

// NewOrchestrator creates a new orchestrator. A later scorer replaces an earlier one for the same factor.
func NewOrchestrator(scorers []contracts.StyleScorer, estimator contracts.ReturnEstimator, log *logger.Logger) *Orchestrator {
	registry := make(map[contracts.FactorID]contracts.StyleScorer, len(scorers))
	for _, s := range scorers {
		registry[s.Factor()] = s
	}
	return &Orchestrator{
		scorers:   registry,
		estimator: estimator,
		logger:    log,
	}
}

// Run scores every requested factor and delegates the complete rows to the estimator
func (o *Orchestrator) Run(ctx context.Context, panel *contracts.Panel, factors []contracts.FactorID, params contracts.FactorParams) (*Result, error) {
	factors, err := o.validateFactors(factors)
	if err != nil {
		return nil, err
	}
	if panel == nil || panel.Len() == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageFactors, "panel", "empty panel", nil)
	}

	o.logger.WithFields(map[string]interface{}{
		"rows":    panel.Len(),
		"factors": contracts.FactorIDStrings(factors),
	}).Info("Starting factor run")

	// 1. 팩터별 projection → scorer 호출 → 가로 결합
	scores, err := o.scoreAll(ctx, panel, factors, params)
	if err != nil {
		return nil, err
	}

	// 2. panel ⋈ scores 후 불완전 행 제거
	input, dropped, err := buildEstimationInput(panel, scores)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		o.logger.WithFields(map[string]interface{}{
			"dropped":   dropped,
			"remaining": len(input.Keys),
		}).Warn("Dropped incomplete rows before estimation")
	}

	// 3. 팩터 수익률 추정
	output, err := o.estimator.Estimate(ctx, input, params.Estimator)
	if err != nil {
		return nil, fmt.Errorf("estimate factor returns: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"scored_rows":     scores.Len(),
		"regression_rows": len(input.Keys),
		"dropped_rows":    dropped,
		"factor_returns":  len(output.FactorReturns.Rows),
		"skipped_dates":   len(output.SkippedDates),
	}).Info("Factor run completed")

	return &Result{
		Scores:         scores,
		FactorReturns:  output.FactorReturns,
		Residuals:      output.Residuals,
		RegressionRows: len(input.Keys),
		DroppedRows:    dropped,
		SkippedDates:   output.SkippedDates,
	}, nil
}

func (o *Orchestrator) validateFactors(factors []contracts.FactorID) ([]contracts.FactorID, error) {
	parsed, err := contracts.ParseFactorIDs(contracts.FactorIDStrings(factors))
	if err != nil {
		return nil, err
	}
	for _, f := range parsed {
		if _, ok := o.scorers[f]; !ok {
			return nil, contracts.NewConfigurationError(contracts.StageFactors, string(f), "no scorer registered")
		}
	}
	return parsed, nil
}

func (o *Orchestrator) scoreAll(ctx context.Context, panel *contracts.Panel, factors []contracts.FactorID, params contracts.FactorParams) (*contracts.FactorScoreTable, error) {
	keys := panel.Keys()
	table := &contracts.FactorScoreTable{
		Factors: factors,
		Keys:    keys,
		Scores:  make([][]contracts.NullFloat, len(keys)),
	}
	for i := range table.Scores {
		table.Scores[i] = make([]contracts.NullFloat, len(factors))
	}

	for j, f := range factors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		projection, err := Project(panel, f)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		scored, err := o.scorers[f].Score(ctx, projection, params)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", f, err)
		}
		if err := checkAligned(f, keys, scored); err != nil {
			return nil, err
		}
		for i, v := range scored.Values {
			table.Scores[i][j] = v
		}

		o.logger.WithFields(map[string]interface{}{
			"factor":   string(f),
			"rows":     len(scored.Values),
			"duration": time.Since(start).String(),
		}).Debug("Scored factor")
	}
	return table, nil
}

// checkAligned verifies that a scorer returned exactly the projection keys in order
func checkAligned(f contracts.FactorID, keys []contracts.Key, scored *contracts.StyleScores) error {
	if scored == nil {
		return contracts.NewAlignmentError(contracts.StageFactors, string(f), "scorer returned no scores")
	}
	if len(scored.Keys) != len(keys) || len(scored.Values) != len(keys) {
		return contracts.NewAlignmentError(contracts.StageFactors, string(f),
			fmt.Sprintf("scorer returned %d keys and %d values for %d rows", len(scored.Keys), len(scored.Values), len(keys)))
	}
	for i := range keys {
		if !scored.Keys[i].Date.Equal(keys[i].Date) || scored.Keys[i].Symbol != keys[i].Symbol {
			return contracts.NewAlignmentError(contracts.StageFactors, string(f),
				fmt.Sprintf("key mismatch at row %d: got %s, want %s", i, scored.Keys[i], keys[i]))
		}
	}
	return nil
}
