package quality

import (
	"context"
	"fmt"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

// QualityGate measures how complete a merged panel is and builds its snapshot
type QualityGate struct {
	config Config
	logger *logger.Logger
}

// Config holds quality gate thresholds
type Config struct {
	MinScore           float64 `yaml:"min_score" json:"min_score"`                       // 0.7
	MinSymbolRetention float64 `yaml:"min_symbol_retention" json:"min_symbol_retention"` // 0.5
	Enforce            bool    `yaml:"enforce" json:"enforce"`                           // true 면 미달 시 ValidationError
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		MinScore:           contracts.MinQualityScore,
		MinSymbolRetention: 0.5,
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config, log *logger.Logger) *QualityGate {
	return &QualityGate{
		config: config,
		logger: log,
	}
}

// Check builds the quality snapshot of a panel against the requested universe
// ⭐ SSOT: S4 → S5 패널 품질 검증
func (g *QualityGate) Check(ctx context.Context, symbols []contracts.Symbol, panel *contracts.Panel) (*contracts.DataQualitySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if panel == nil {
		return nil, contracts.NewDataUnavailableError(contracts.StageMerge, "panel", "no panel to check", nil)
	}

	snapshot := &contracts.DataQualitySnapshot{
		TotalSymbols: len(symbols),
		ValidSymbols: len(panel.Symbols()),
		Rows:         panel.Len(),
		Narrowing:    panel.Diagnostics,
	}
	dates := panel.Dates()
	snapshot.Dates = len(dates)
	if len(dates) > 0 {
		snapshot.From = dates[0]
		snapshot.To = dates[len(dates)-1]
	}

	// 1. 컬럼별 커버리지
	snapshot.Coverage = g.checkCoverage(panel)

	// 2. 품질 점수 계산
	snapshot.QualityScore = g.calculateScore(snapshot.Coverage, snapshot.SymbolRetention())
	snapshot.Passed = snapshot.QualityScore >= g.config.MinScore &&
		snapshot.SymbolRetention() >= g.config.MinSymbolRetention &&
		snapshot.ValidSymbols > 0

	g.logger.WithFields(map[string]interface{}{
		"total_symbols": snapshot.TotalSymbols,
		"valid_symbols": snapshot.ValidSymbols,
		"rows":          snapshot.Rows,
		"quality_score": snapshot.QualityScore,
		"passed":        snapshot.Passed,
	}).Info("Panel quality checked")

	if !snapshot.Passed && g.config.Enforce {
		return snapshot, contracts.NewValidationError(contracts.StageMerge, "panel",
			fmt.Sprintf("quality score %.3f, symbol retention %.3f below thresholds (%.3f, %.3f)",
				snapshot.QualityScore, snapshot.SymbolRetention(), g.config.MinScore, g.config.MinSymbolRetention))
	}
	return snapshot, nil
}

// checkCoverage returns the share of finite values per nullable panel column
func (g *QualityGate) checkCoverage(panel *contracts.Panel) map[string]float64 {
	coverage := map[string]float64{
		contracts.ColMarketCap:  0,
		contracts.ColBookPrice:  0,
		contracts.ColSalesPrice: 0,
		contracts.ColCFPrice:    0,
	}
	if panel.Len() == 0 {
		return coverage
	}

	for _, row := range panel.Rows {
		if row.MarketCap.IsFinite() {
			coverage[contracts.ColMarketCap]++
		}
		if row.BookPrice.IsFinite() {
			coverage[contracts.ColBookPrice]++
		}
		if row.SalesPrice.IsFinite() {
			coverage[contracts.ColSalesPrice]++
		}
		if row.CFPrice.IsFinite() {
			coverage[contracts.ColCFPrice]++
		}
	}
	n := float64(panel.Len())
	for k := range coverage {
		coverage[k] /= n
	}
	return coverage
}

// scoreWeights fixes the summation order of the weighted score (합계 = 1.0 with retention)
var scoreWeights = []struct {
	column string
	weight float64
}{
	{contracts.ColMarketCap, 0.30}, // 시가총액: size 팩터 + 회귀 가중치
	{contracts.ColBookPrice, 0.15},
	{contracts.ColSalesPrice, 0.15},
	{contracts.ColCFPrice, 0.15},
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64, retention float64) float64 {
	score := retention * 0.25 // 심볼 유지율
	for _, w := range scoreWeights {
		score += coverage[w.column] * w.weight
	}
	return score
}
