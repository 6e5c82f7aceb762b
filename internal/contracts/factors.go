package contracts

import (
	"fmt"
	"strings"
	"time"
)

// FactorID identifies a style factor
type FactorID string

const (
	FactorMomentum FactorID = "momentum"
	FactorValue    FactorID = "value"
	FactorSize     FactorID = "size"
)

// Panel column names used by projections
const (
	ColAssetReturn = "asset_return"
	ColMarketCap   = "market_cap"
	ColBookPrice   = "book_price"
	ColSalesPrice  = "sales_price"
	ColCFPrice     = "cf_price"
)

// AllFactors returns the supported factors in canonical order
func AllFactors() []FactorID {
	return []FactorID{FactorMomentum, FactorValue, FactorSize}
}

// Columns returns the panel columns a factor is computed from
func (f FactorID) Columns() []string {
	switch f {
	case FactorMomentum:
		return []string{ColAssetReturn}
	case FactorValue:
		return []string{ColBookPrice, ColSalesPrice, ColCFPrice}
	case FactorSize:
		return []string{ColMarketCap}
	default:
		return nil
	}
}

// IsValid checks if the identifier is supported
func (f FactorID) IsValid() bool {
	return f.Columns() != nil
}

func (f FactorID) String() string {
	return string(f)
}

// ParseFactorIDs validates a requested factor set
// 빈 집합, 알 수 없는 식별자, 중복은 모두 ConfigurationError
func ParseFactorIDs(raw []string) ([]FactorID, error) {
	if len(raw) == 0 {
		return nil, NewConfigurationError(StageFactors, "factors", "empty factor set")
	}

	seen := make(map[FactorID]struct{}, len(raw))
	out := make([]FactorID, 0, len(raw))
	for _, r := range raw {
		id := FactorID(strings.ToLower(strings.TrimSpace(r)))
		if !id.IsValid() {
			return nil, NewConfigurationError(StageFactors, r, "unknown factor identifier")
		}
		if _, dup := seen[id]; dup {
			return nil, NewConfigurationError(StageFactors, string(id), "duplicate factor identifier")
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// FactorIDStrings converts ids back to strings
func FactorIDStrings(ids []FactorID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Projection is the subset of panel columns handed to one scorer
// ⭐ SSOT: 모든 팩터 projection 은 동일한 Keys 를 공유
type Projection struct {
	Factor  FactorID      `json:"factor"`
	Keys    []Key         `json:"keys"`
	Columns []string      `json:"columns"`
	Values  [][]NullFloat `json:"values"` // Values[row][column]
}

// Column returns the values of a named column
func (p *Projection) Column(name string) ([]NullFloat, error) {
	for j, c := range p.Columns {
		if c == name {
			out := make([]NullFloat, len(p.Values))
			for i, row := range p.Values {
				out[i] = row[j]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("projection %s has no column %s", p.Factor, name)
}

// StyleScores is the output of a single scorer, one score per projection key
type StyleScores struct {
	Factor FactorID    `json:"factor"`
	Keys   []Key       `json:"keys"`
	Values []NullFloat `json:"values"`
}

// FactorScoreTable holds the concatenated scores of all requested factors
type FactorScoreTable struct {
	Factors []FactorID    `json:"factors"`
	Keys    []Key         `json:"keys"`
	Scores  [][]NullFloat `json:"scores"` // Scores[row][factor]
}

// Len returns the number of rows
func (t *FactorScoreTable) Len() int {
	return len(t.Keys)
}

// FactorReturn is the estimated return of one factor on one date
type FactorReturn struct {
	Date   time.Time `json:"date"`
	Factor string    `json:"factor"` // style factor id or sector label
	Return float64   `json:"return"`
}

// FactorReturnTable collects factor returns ordered by date, then by column order
type FactorReturnTable struct {
	Rows []FactorReturn `json:"rows"`
}

// ResidualReturn is the part of an asset return not explained by factors
type ResidualReturn struct {
	Key
	Residual float64 `json:"residual"`
}

// ResidualReturnTable collects residual returns in canonical key order
type ResidualReturnTable struct {
	Rows []ResidualReturn `json:"rows"`
}

// MomentumParams controls the momentum scorer
type MomentumParams struct {
	TrailingWindow        int     `json:"trailing_window"`
	WinsorizationFraction float64 `json:"winsorization_fraction"`
}

// SizeParams controls the size scorer
type SizeParams struct {
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
}

// EstimatorParams controls the factor return estimator
type EstimatorParams struct {
	WinsorizationFraction float64 `json:"winsorization_fraction"`
	ResidualizeStyles     bool    `json:"residualize_styles"`
}

// FactorParams bundles every scorer and estimator parameter
type FactorParams struct {
	Momentum  MomentumParams  `json:"momentum"`
	Size      SizeParams      `json:"size"`
	Estimator EstimatorParams `json:"estimator"`
}

// EstimationInput carries the four aligned projections handed to the estimator
// 모든 슬라이스는 Keys 와 같은 길이, 같은 순서 (null/NaN 없음)
type EstimationInput struct {
	Keys          []Key
	Returns       []float64
	MarketCaps    []float64
	Sectors       SectorSet
	SectorDummies [][]int
	Factors       []FactorID
	Scores        [][]float64 // Scores[row][factor]
}

// EstimationOutput is returned by a ReturnEstimator
type EstimationOutput struct {
	FactorReturns *FactorReturnTable
	Residuals     *ResidualReturnTable
	SkippedDates  []time.Time // 관측치가 회귀 변수보다 적거나 특이행렬인 날짜
}
