package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// VaRResult VaR 계산 결과
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
// - VaR=0.05 → 95% 신뢰수준에서 최대 5% 손실 가능
// - CVaR=0.07 → 5% tail에서 평균 7% 손실 예상
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// HistoricalVaR 과거 수익률 기반 VaR / CVaR (Historical Simulation)
// returns: 수익률 (양수=이익, 음수=손실)
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	out := VaRResult{Confidence: confidence}
	if len(returns) == 0 {
		return out
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// 하위 (1-confidence) 지점, tail 은 그 이하 전부 (1e-9: 0.1×10 이 0.999.. 로 떨어지는 것 방지)
	idx := int(math.Floor((1-confidence)*float64(len(sorted)) + 1e-9))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	out.VaR = lossOf(sorted[idx])
	out.CVaR = lossOf(stat.Mean(sorted[:idx+1], nil))
	return out
}

// MeanStdDev returns the mean and the sample standard deviation (0 for fewer than 2 values)
func MeanStdDev(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

func lossOf(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
