package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 에러, 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5
//   Ingestion  Returns  Fundamentals  Sectors  Merge  Factors

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngestion S0: 외부 데이터 수집 및 심볼 정규화
	// 위치: internal/s0_data/
	StageIngestion Stage = "S0_INGESTION"

	// StageReturns S1: wide 가격 테이블 → long forward return
	// 위치: internal/s1_panel/returns.go
	StageReturns Stage = "S1_RETURNS"

	// StageFundamentals S2: 재무 데이터 forward-fill 및 가격 비율 계산
	// 위치: internal/s1_panel/fundamentals.go
	StageFundamentals Stage = "S2_FUNDAMENTALS"

	// StageSectors S3: 섹터 라벨 one-hot 인코딩
	// 위치: internal/s1_panel/sectors.go
	StageSectors Stage = "S3_SECTORS"

	// StageMerge S4: 세 스트림 inner join → Panel
	// 위치: internal/s1_panel/merger.go
	StageMerge Stage = "S4_MERGE"

	// StageFactors S5: 스타일 팩터 점수 및 팩터 수익률 추정
	// 위치: internal/s2_factors/
	StageFactors Stage = "S5_FACTORS"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngestion:
		return "S0"
	case StageReturns:
		return "S1"
	case StageFundamentals:
		return "S2"
	case StageSectors:
		return "S3"
	case StageMerge:
		return "S4"
	case StageFactors:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngestion:
		return "source ingestion"
	case StageReturns:
		return "forward return conversion"
	case StageFundamentals:
		return "fundamental alignment"
	case StageSectors:
		return "sector encoding"
	case StageMerge:
		return "panel merge"
	case StageFactors:
		return "factor scoring and estimation"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIngestion,
		StageReturns,
		StageFundamentals,
		StageSectors,
		StageMerge,
		StageFactors,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records row counts and timing of a single stage execution
type StageResult struct {
	Stage       Stage  `json:"stage"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
