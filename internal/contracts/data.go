package contracts

import "time"

// DataQualitySnapshot is the panel quality report emitted after S4
// ⭐ SSOT: S4 → S5 패널 품질 정보 전달
type DataQualitySnapshot struct {
	RunID        string             `json:"run_id"`
	From         time.Time          `json:"from"`
	To           time.Time          `json:"to"`
	TotalSymbols int                `json:"total_symbols"` // 요청 유니버스
	ValidSymbols int                `json:"valid_symbols"` // 패널에 남은 심볼
	Dates        int                `json:"dates"`
	Rows         int                `json:"rows"`
	Coverage     map[string]float64 `json:"coverage"` // 컬럼별 non-null 비율
	Narrowing    MergeDiagnostics   `json:"narrowing"`
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`
}

// MinQualityScore is the threshold used by IsValid
const MinQualityScore = 0.7

// IsValid checks if the snapshot meets minimum requirements
func (d *DataQualitySnapshot) IsValid() bool {
	return d.QualityScore >= MinQualityScore && d.ValidSymbols > 0
}

// CoverageRate returns the average coverage rate across all columns
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}

// SymbolRetention returns the share of requested symbols that survived the merge
func (d *DataQualitySnapshot) SymbolRetention() float64 {
	if d.TotalSymbols == 0 {
		return 0.0
	}
	return float64(d.ValidSymbols) / float64(d.TotalSymbols)
}
