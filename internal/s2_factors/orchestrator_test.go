package s2_factors

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/estimator"
	"github.com/wonny/factorpanel/internal/styles"
	"github.com/wonny/factorpanel/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1+d, 0, 0, 0, 0, time.UTC)
}

// testPanel builds 3 dates × 6 symbols in canonical order
func testPanel(t *testing.T) *contracts.Panel {
	t.Helper()
	set, err := contracts.NewSectorSet([]string{"Energy", "Tech"})
	require.NoError(t, err)

	symbols := []contracts.Symbol{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}
	sectors := map[contracts.Symbol][]int{
		"AAA": {0, 1}, "BBB": {0, 1}, "CCC": {1, 0},
		"DDD": {1, 0}, "EEE": {0, 1}, "FFF": {1, 0},
	}

	p := &contracts.Panel{Sectors: set}
	for d := 0; d < 3; d++ {
		for i, sym := range symbols {
			x := float64(i + 1)
			p.Rows = append(p.Rows, contracts.PanelRow{
				Key:         contracts.Key{Date: day(d), Symbol: sym},
				AssetReturn: 0.01*x - 0.005*float64(d),
				MarketCap:   contracts.Float(100 * x * x),
				BookPrice:   contracts.Float(0.5 / x),
				SalesPrice:  contracts.Float(1.0 / x),
				CFPrice:     contracts.Float(0.1 * x),
				Sector:      sectors[sym],
			})
		}
	}
	return p
}

// fakeScorer echoes the first projection column, optionally corrupting keys
type fakeScorer struct {
	id       contracts.FactorID
	mutate   func(*contracts.StyleScores)
	received *contracts.Projection
}

func (s *fakeScorer) Factor() contracts.FactorID { return s.id }

func (s *fakeScorer) Score(_ context.Context, p *contracts.Projection, _ contracts.FactorParams) (*contracts.StyleScores, error) {
	s.received = p
	out := &contracts.StyleScores{Factor: s.id, Keys: append([]contracts.Key(nil), p.Keys...)}
	for _, row := range p.Values {
		out.Values = append(out.Values, row[0])
	}
	if s.mutate != nil {
		s.mutate(out)
	}
	return out, nil
}

type fakeEstimator struct {
	input *contracts.EstimationInput
}

func (e *fakeEstimator) Estimate(_ context.Context, in *contracts.EstimationInput, _ contracts.EstimatorParams) (*contracts.EstimationOutput, error) {
	e.input = in
	return &contracts.EstimationOutput{
		FactorReturns: &contracts.FactorReturnTable{},
		Residuals:     &contracts.ResidualReturnTable{},
	}, nil
}

func TestOrchestrator_ProjectsRequiredColumns(t *testing.T) {
	momentum := &fakeScorer{id: contracts.FactorMomentum}
	value := &fakeScorer{id: contracts.FactorValue}
	size := &fakeScorer{id: contracts.FactorSize}
	est := &fakeEstimator{}
	o := NewOrchestrator([]contracts.StyleScorer{momentum, value, size}, est, logger.NewNop())

	panel := testPanel(t)
	result, err := o.Run(context.Background(), panel, contracts.AllFactors(), contracts.FactorParams{})
	require.NoError(t, err)

	assert.Equal(t, []string{contracts.ColAssetReturn}, momentum.received.Columns)
	assert.Equal(t, []string{contracts.ColBookPrice, contracts.ColSalesPrice, contracts.ColCFPrice}, value.received.Columns)
	assert.Equal(t, []string{contracts.ColMarketCap}, size.received.Columns)

	// 모든 projection 은 동일한 키
	assert.Equal(t, panel.Keys(), momentum.received.Keys)
	assert.Equal(t, momentum.received.Keys, value.received.Keys)
	assert.Equal(t, momentum.received.Keys, size.received.Keys)

	require.Equal(t, panel.Len(), result.Scores.Len())
	assert.Equal(t, contracts.AllFactors(), result.Scores.Factors)
	assert.InDelta(t, panel.Rows[5].AssetReturn, result.Scores.Scores[5][0].Float64, 1e-12)
	assert.InDelta(t, panel.Rows[5].BookPrice.Float64, result.Scores.Scores[5][1].Float64, 1e-12)
	assert.InDelta(t, panel.Rows[5].MarketCap.Float64, result.Scores.Scores[5][2].Float64, 1e-12)

	require.NotNil(t, est.input)
	assert.Len(t, est.input.Keys, panel.Len())
	assert.Equal(t, panel.Len(), result.RegressionRows)
	assert.Zero(t, result.DroppedRows)
}

func TestOrchestrator_DropsIncompleteRows(t *testing.T) {
	est := &fakeEstimator{}
	o := NewOrchestrator([]contracts.StyleScorer{&fakeScorer{id: contracts.FactorSize}}, est, logger.NewNop())

	panel := testPanel(t)
	panel.Rows[1].BookPrice = contracts.Null()
	panel.Rows[4].MarketCap = contracts.Float(math.NaN())
	panel.Rows[7].AssetReturn = math.Inf(1)

	result, err := o.Run(context.Background(), panel, []contracts.FactorID{contracts.FactorSize}, contracts.FactorParams{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.DroppedRows)
	assert.Equal(t, panel.Len()-3, result.RegressionRows)
	for _, k := range est.input.Keys {
		assert.NotEqual(t, panel.Rows[1].Key, k)
		assert.NotEqual(t, panel.Rows[4].Key, k)
		assert.NotEqual(t, panel.Rows[7].Key, k)
	}
	for i := range est.input.Keys {
		assert.False(t, math.IsNaN(est.input.MarketCaps[i]))
		assert.False(t, math.IsInf(est.input.Returns[i], 0))
	}
	// score table keeps every panel row
	assert.Equal(t, panel.Len(), result.Scores.Len())
}

func TestOrchestrator_NoCompleteRows(t *testing.T) {
	o := NewOrchestrator([]contracts.StyleScorer{&fakeScorer{id: contracts.FactorSize}}, &fakeEstimator{}, logger.NewNop())

	panel := testPanel(t)
	for i := range panel.Rows {
		panel.Rows[i].CFPrice = contracts.Null()
	}

	_, err := o.Run(context.Background(), panel, []contracts.FactorID{contracts.FactorSize}, contracts.FactorParams{})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestOrchestrator_FactorValidation(t *testing.T) {
	o := NewOrchestrator([]contracts.StyleScorer{&fakeScorer{id: contracts.FactorSize}}, &fakeEstimator{}, logger.NewNop())
	panel := testPanel(t)

	tests := []struct {
		name    string
		factors []contracts.FactorID
	}{
		{"empty", nil},
		{"unknown", []contracts.FactorID{"quality"}},
		{"duplicate", []contracts.FactorID{contracts.FactorSize, contracts.FactorSize}},
		{"no scorer", []contracts.FactorID{contracts.FactorMomentum}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Run(context.Background(), panel, tt.factors, contracts.FactorParams{})
			assert.ErrorIs(t, err, contracts.ErrConfiguration)
			stage, ok := contracts.StageOf(err)
			assert.True(t, ok)
			assert.Equal(t, contracts.StageFactors, stage)
		})
	}
}

func TestOrchestrator_RejectsMisalignedScores(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*contracts.StyleScores)
	}{
		{"short", func(s *contracts.StyleScores) {
			s.Keys = s.Keys[1:]
			s.Values = s.Values[1:]
		}},
		{"reordered", func(s *contracts.StyleScores) {
			s.Keys[0], s.Keys[1] = s.Keys[1], s.Keys[0]
		}},
		{"shifted date", func(s *contracts.StyleScores) {
			s.Keys[2].Date = s.Keys[2].Date.AddDate(0, 0, 1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{id: contracts.FactorSize, mutate: tt.mutate}
			o := NewOrchestrator([]contracts.StyleScorer{scorer}, &fakeEstimator{}, logger.NewNop())

			_, err := o.Run(context.Background(), testPanel(t), []contracts.FactorID{contracts.FactorSize}, contracts.FactorParams{})
			assert.ErrorIs(t, err, contracts.ErrAlignment)
		})
	}
}

func TestOrchestrator_EmptyPanel(t *testing.T) {
	o := NewOrchestrator([]contracts.StyleScorer{&fakeScorer{id: contracts.FactorSize}}, &fakeEstimator{}, logger.NewNop())

	_, err := o.Run(context.Background(), &contracts.Panel{}, []contracts.FactorID{contracts.FactorSize}, contracts.FactorParams{})
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestOrchestrator_DoesNotMutatePanel(t *testing.T) {
	log := logger.NewNop()
	o := NewOrchestrator(styles.Defaults(log), estimator.New(log), log)

	panel := testPanel(t)
	before := testPanel(t)

	_, err := o.Run(context.Background(), panel, contracts.AllFactors(), defaultParams())
	require.NoError(t, err)
	assert.Equal(t, before, panel)
}

func TestOrchestrator_DefaultCollaborators(t *testing.T) {
	log := logger.NewNop()
	o := NewOrchestrator(styles.Defaults(log), estimator.New(log), log)

	first, err := o.Run(context.Background(), testPanel(t), contracts.AllFactors(), defaultParams())
	require.NoError(t, err)
	second, err := o.Run(context.Background(), testPanel(t), contracts.AllFactors(), defaultParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 18, first.Scores.Len())
	// 첫 날짜는 momentum 이력이 없어 회귀에서 제외
	assert.Equal(t, 6, first.DroppedRows)
	assert.Equal(t, 12, first.RegressionRows)
	assert.NotEmpty(t, first.FactorReturns.Rows)
	for _, r := range first.Residuals.Rows {
		assert.False(t, math.IsNaN(r.Residual))
	}
}

func defaultParams() contracts.FactorParams {
	return contracts.FactorParams{
		Momentum:  contracts.MomentumParams{TrailingWindow: 1, WinsorizationFraction: 0},
		Size:      contracts.SizeParams{LowerPercentile: 0.0, UpperPercentile: 1.0},
		Estimator: contracts.EstimatorParams{WinsorizationFraction: 0},
	}
}
