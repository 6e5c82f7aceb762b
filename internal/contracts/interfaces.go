package contracts

import (
	"context"
	"time"
)

// PriceSource retrieves the wide price table of a universe (S0)
// ⭐ SSOT: S0 가격 수집 인터페이스
type PriceSource interface {
	Fetch(ctx context.Context, symbols []Symbol, from, to time.Time) (*PriceTable, error)
}

// FundamentalSource retrieves raw fundamental observations one symbol at a time (S0)
// ⭐ SSOT: S0 재무 수집 인터페이스
type FundamentalSource interface {
	FetchOne(ctx context.Context, symbol Symbol, from, to time.Time) ([]FundamentalObservation, error)
}

// SectorSource retrieves the sector label of a symbol (S0)
// 빈 문자열은 null 라벨
type SectorSource interface {
	FetchOne(ctx context.Context, symbol Symbol) (string, error)
}

// StyleScorer computes one style factor from a panel projection (S5)
// ⭐ SSOT: S5 스타일 스코어 인터페이스
type StyleScorer interface {
	Factor() FactorID
	Score(ctx context.Context, projection *Projection, params FactorParams) (*StyleScores, error)
}

// ReturnEstimator estimates factor returns from aligned projections (S5)
// ⭐ SSOT: S5 팩터 수익률 추정 인터페이스
type ReturnEstimator interface {
	Estimate(ctx context.Context, input *EstimationInput, params EstimatorParams) (*EstimationOutput, error)
}

// QualityGate builds the panel quality report after S4
type QualityGate interface {
	Check(ctx context.Context, symbols []Symbol, panel *Panel) (*DataQualitySnapshot, error)
}
