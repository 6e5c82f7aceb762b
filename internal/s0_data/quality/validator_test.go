package quality

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

func testPanel() *contracts.Panel {
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	row := func(d time.Time, sym contracts.Symbol, book contracts.NullFloat) contracts.PanelRow {
		return contracts.PanelRow{
			Key:        contracts.Key{Date: d, Symbol: sym},
			MarketCap:  contracts.Float(100),
			BookPrice:  book,
			SalesPrice: contracts.Float(1),
			CFPrice:    contracts.Float(0.1),
		}
	}
	return &contracts.Panel{
		Rows: []contracts.PanelRow{
			row(d0, "AAA", contracts.Float(0.5)),
			row(d0, "BBB", contracts.Null()),
			row(d1, "AAA", contracts.Float(0.5)),
			row(d1, "BBB", contracts.Float(0.4)),
		},
		Diagnostics: contracts.MergeDiagnostics{ReturnRows: 6, AfterSectorJoin: 4},
	}
}

func TestQualityGate_Check(t *testing.T) {
	gate := NewQualityGate(DefaultConfig(), logger.NewNop())

	snapshot, err := gate.Check(context.Background(), []contracts.Symbol{"AAA", "BBB", "CCC"}, testPanel())
	require.NoError(t, err)

	assert.Equal(t, 3, snapshot.TotalSymbols)
	assert.Equal(t, 2, snapshot.ValidSymbols)
	assert.Equal(t, 2, snapshot.Dates)
	assert.Equal(t, 4, snapshot.Rows)
	assert.Equal(t, 6, snapshot.Narrowing.ReturnRows)
	assert.InDelta(t, 0.75, snapshot.Coverage[contracts.ColBookPrice], 1e-12)
	assert.InDelta(t, 1.0, snapshot.Coverage[contracts.ColMarketCap], 1e-12)

	// 0.25*2/3 + 0.30 + 0.15*0.75 + 0.15 + 0.15
	assert.InDelta(t, 0.25*2.0/3.0+0.30+0.1125+0.30, snapshot.QualityScore, 1e-12)
	assert.True(t, snapshot.Passed)
	assert.True(t, snapshot.From.Before(snapshot.To))
}

func TestQualityGate_Enforce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSymbolRetention = 0.9
	cfg.Enforce = true
	gate := NewQualityGate(cfg, logger.NewNop())

	snapshot, err := gate.Check(context.Background(), []contracts.Symbol{"AAA", "BBB", "CCC"}, testPanel())
	assert.ErrorIs(t, err, contracts.ErrValidation)
	require.NotNil(t, snapshot)
	assert.False(t, snapshot.Passed)
}

func TestQualityGate_ReportOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScore = 0.99
	gate := NewQualityGate(cfg, logger.NewNop())

	snapshot, err := gate.Check(context.Background(), []contracts.Symbol{"AAA", "BBB"}, testPanel())
	require.NoError(t, err)
	assert.False(t, snapshot.Passed)
}

func TestQualityGate_NilPanel(t *testing.T) {
	gate := NewQualityGate(DefaultConfig(), logger.NewNop())

	_, err := gate.Check(context.Background(), nil, nil)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestQualityGate_ScoreIsStable(t *testing.T) {
	gate := NewQualityGate(DefaultConfig(), logger.NewNop())
	coverage := map[string]float64{
		contracts.ColMarketCap:  1.0 / 3.0,
		contracts.ColBookPrice:  0.1,
		contracts.ColSalesPrice: 0.7,
		contracts.ColCFPrice:    2.0 / 7.0,
	}
	retention := 5.0 / 6.0

	want := retention*0.25 +
		coverage[contracts.ColMarketCap]*0.30 +
		coverage[contracts.ColBookPrice]*0.15 +
		coverage[contracts.ColSalesPrice]*0.15 +
		coverage[contracts.ColCFPrice]*0.15

	for i := 0; i < 100; i++ {
		require.Equal(t, want, gate.calculateScore(coverage, retention), "iteration %d", i)
	}
}
