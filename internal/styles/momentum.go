package styles

import (
	"context"
	"fmt"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

// MomentumScorer scores compounded trailing returns
// ⭐ SSOT: 모멘텀 스타일 점수 계산은 여기서만
type MomentumScorer struct {
	logger *logger.Logger
}

// NewMomentumScorer creates a new momentum scorer
func NewMomentumScorer(log *logger.Logger) *MomentumScorer {
	return &MomentumScorer{logger: log}
}

// Factor returns the factor identifier
func (s *MomentumScorer) Factor() contracts.FactorID {
	return contracts.FactorMomentum
}

// Score compounds the asset returns of the trailing window strictly before each
// date, then winsorizes and z-scores them per date. Rows without a full window
// are null.
func (s *MomentumScorer) Score(ctx context.Context, p *contracts.Projection, params contracts.FactorParams) (*contracts.StyleScores, error) {
	window := params.Momentum.TrailingWindow
	if window < 1 {
		return nil, contracts.NewConfigurationError(contracts.StageFactors, string(s.Factor()),
			fmt.Sprintf("trailing_window must be positive, got %d", window))
	}
	frac := params.Momentum.WinsorizationFraction
	if frac < 0 || frac >= 0.5 {
		return nil, contracts.NewConfigurationError(contracts.StageFactors, string(s.Factor()),
			fmt.Sprintf("winsorization_fraction must be in [0, 0.5), got %g", frac))
	}

	returns, err := p.Column(contracts.ColAssetReturn)
	if err != nil {
		return nil, contracts.NewValidationError(contracts.StageFactors, string(s.Factor()), err.Error())
	}

	// 심볼별 시계열 (키는 날짜 오름차순)
	bySymbol := make(map[contracts.Symbol][]int)
	for i, k := range p.Keys {
		bySymbol[k.Symbol] = append(bySymbol[k.Symbol], i)
	}

	raw := make([]contracts.NullFloat, len(p.Keys))
	for _, rows := range bySymbol {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for n, i := range rows {
			if n < window {
				continue
			}
			growth, ok := 1.0, true
			for _, prev := range rows[n-window : n] {
				if !returns[prev].IsFinite() {
					ok = false
					break
				}
				growth *= 1 + returns[prev].Float64
			}
			if ok {
				raw[i] = contracts.Float(growth - 1)
			}
		}
	}

	values := standardizeByDate(p.Keys, raw, func(v []float64) []float64 {
		return Winsorize(v, frac)
	})

	s.logger.WithFields(map[string]interface{}{
		"rows":   len(values),
		"scored": countValid(values),
		"window": window,
	}).Debug("Scored momentum")

	return &contracts.StyleScores{Factor: s.Factor(), Keys: p.Keys, Values: values}, nil
}

func countValid(values []contracts.NullFloat) int {
	n := 0
	for _, v := range values {
		if v.Valid {
			n++
		}
	}
	return n
}
