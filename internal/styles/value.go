package styles

import (
	"context"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

// ValueScorer scores book/price, sales/price and cash flow/price
// ⭐ SSOT: 가치 스타일 점수 계산은 여기서만
type ValueScorer struct {
	logger *logger.Logger
}

// NewValueScorer creates a new value scorer
func NewValueScorer(log *logger.Logger) *ValueScorer {
	return &ValueScorer{logger: log}
}

// Factor returns the factor identifier
func (s *ValueScorer) Factor() contracts.FactorID {
	return contracts.FactorValue
}

// Score averages the per-date z-scores of the available ratios of each row
func (s *ValueScorer) Score(ctx context.Context, p *contracts.Projection, _ contracts.FactorParams) (*contracts.StyleScores, error) {
	sum := make([]float64, len(p.Keys))
	count := make([]int, len(p.Keys))

	for _, col := range contracts.FactorValue.Columns() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := p.Column(col)
		if err != nil {
			return nil, contracts.NewValidationError(contracts.StageFactors, string(s.Factor()), err.Error())
		}
		for i, z := range standardizeByDate(p.Keys, raw, nil) {
			if z.Valid {
				sum[i] += z.Float64
				count[i]++
			}
		}
	}

	values := make([]contracts.NullFloat, len(p.Keys))
	for i := range values {
		if count[i] > 0 {
			values[i] = contracts.Float(sum[i] / float64(count[i]))
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"rows":   len(values),
		"scored": countValid(values),
	}).Debug("Scored value")

	return &contracts.StyleScores{Factor: s.Factor(), Keys: p.Keys, Values: values}, nil
}
