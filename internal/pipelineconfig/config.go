package pipelineconfig

import (
	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/s0_data/quality"
)

// Config는 팩터 패널 실행의 파라미터 전체
type Config struct {
	Meta      Meta           `yaml:"meta" json:"meta"`
	Factors   []string       `yaml:"factors" json:"factors" validate:"required,min=1,dive,oneof=momentum value size"`
	Momentum  Momentum       `yaml:"momentum" json:"momentum"`
	Size      Size           `yaml:"size" json:"size"`
	Estimator Estimator      `yaml:"estimator" json:"estimator"`
	Risk      Risk           `yaml:"risk" json:"risk"`
	Quality   quality.Config `yaml:"quality" json:"quality"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id" validate:"required"`
	Version  string `yaml:"version" json:"version"`
}

// Momentum S5: 모멘텀 스코어 파라미터
type Momentum struct {
	TrailingWindow        int     `yaml:"trailing_window" json:"trailing_window" validate:"gte=1"`
	WinsorizationFraction float64 `yaml:"winsorization_fraction" json:"winsorization_fraction" validate:"gte=0,lt=0.5"`
}

// Size S5: 규모 스코어 파라미터
type Size struct {
	LowerPercentile float64 `yaml:"lower_percentile" json:"lower_percentile" validate:"gte=0,lt=1"`
	UpperPercentile float64 `yaml:"upper_percentile" json:"upper_percentile" validate:"gt=0,lte=1"`
}

// Estimator S5: 팩터 수익률 추정 파라미터
type Estimator struct {
	WinsorizationFraction float64 `yaml:"winsorization_fraction" json:"winsorization_fraction" validate:"gte=0,lt=0.5"`
	ResidualizeStyles     bool    `yaml:"residualize_styles" json:"residualize_styles"`
}

// Risk 팩터 수익률 요약 파라미터
type Risk struct {
	Confidence float64 `yaml:"confidence" json:"confidence" validate:"gt=0,lt=1"` // historical VaR 신뢰수준
}

// Default returns the built-in parameters
func Default() *Config {
	return &Config{
		Meta:    Meta{ConfigID: "default", Version: "1"},
		Factors: contracts.FactorIDStrings(contracts.AllFactors()),
		Momentum: Momentum{
			TrailingWindow:        20,
			WinsorizationFraction: 0.05,
		},
		Size: Size{
			LowerPercentile: 0.01,
			UpperPercentile: 0.99,
		},
		Estimator: Estimator{
			WinsorizationFraction: 0.05,
		},
		Risk: Risk{
			Confidence: 0.95,
		},
		Quality: quality.DefaultConfig(),
	}
}

// FactorIDs returns the validated factor set
func (c *Config) FactorIDs() ([]contracts.FactorID, error) {
	return contracts.ParseFactorIDs(c.Factors)
}

// Params converts the YAML sections into scorer and estimator parameters
func (c *Config) Params() contracts.FactorParams {
	return contracts.FactorParams{
		Momentum: contracts.MomentumParams{
			TrailingWindow:        c.Momentum.TrailingWindow,
			WinsorizationFraction: c.Momentum.WinsorizationFraction,
		},
		Size: contracts.SizeParams{
			LowerPercentile: c.Size.LowerPercentile,
			UpperPercentile: c.Size.UpperPercentile,
		},
		Estimator: contracts.EstimatorParams{
			WinsorizationFraction: c.Estimator.WinsorizationFraction,
			ResidualizeStyles:     c.Estimator.ResidualizeStyles,
		},
	}
}
