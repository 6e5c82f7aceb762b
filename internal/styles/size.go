package styles

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

// SizeScorer scores log market capitalization
// ⭐ SSOT: 규모 스타일 점수 계산은 여기서만
type SizeScorer struct {
	logger *logger.Logger
}

// NewSizeScorer creates a new size scorer
func NewSizeScorer(log *logger.Logger) *SizeScorer {
	return &SizeScorer{logger: log}
}

// Factor returns the factor identifier
func (s *SizeScorer) Factor() contracts.FactorID {
	return contracts.FactorSize
}

// Score takes log market cap, clips it per date to the configured percentiles
// and z-scores it. Non-positive market caps are null.
func (s *SizeScorer) Score(ctx context.Context, p *contracts.Projection, params contracts.FactorParams) (*contracts.StyleScores, error) {
	lower, upper := params.Size.LowerPercentile, params.Size.UpperPercentile
	if lower < 0 || upper > 1 || lower >= upper {
		return nil, contracts.NewConfigurationError(contracts.StageFactors, string(s.Factor()),
			fmt.Sprintf("percentiles must satisfy 0 <= lower < upper <= 1, got [%g, %g]", lower, upper))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	caps, err := p.Column(contracts.ColMarketCap)
	if err != nil {
		return nil, contracts.NewValidationError(contracts.StageFactors, string(s.Factor()), err.Error())
	}

	logCaps := make([]contracts.NullFloat, len(caps))
	for i, c := range caps {
		if c.IsFinite() && c.Float64 > 0 {
			logCaps[i] = contracts.Float(math.Log(c.Float64))
		}
	}

	values := standardizeByDate(p.Keys, logCaps, func(v []float64) []float64 {
		if len(v) == 0 {
			return v
		}
		lo, hi := Quantiles(v, lower, upper)
		Clip(v, lo, hi)
		return v
	})

	s.logger.WithFields(map[string]interface{}{
		"rows":   len(values),
		"scored": countValid(values),
	}).Debug("Scored size")

	return &contracts.StyleScores{Factor: s.Factor(), Keys: p.Keys, Values: values}, nil
}

// Defaults returns the built-in scorer of every supported factor
func Defaults(log *logger.Logger) []contracts.StyleScorer {
	return []contracts.StyleScorer{
		NewMomentumScorer(log),
		NewValueScorer(log),
		NewSizeScorer(log),
	}
}
