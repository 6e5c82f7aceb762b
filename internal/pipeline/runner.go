package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/pipelineconfig"
	"github.com/wonny/factorpanel/internal/risk"
	"github.com/wonny/factorpanel/internal/s0_data/collector"
	"github.com/wonny/factorpanel/internal/s1_panel"
	"github.com/wonny/factorpanel/internal/s2_factors"
	"github.com/wonny/factorpanel/pkg/logger"
	"github.com/wonny/factorpanel/pkg/metrics"
)

// UniverseSource lists the default universe when a request names no symbols
type UniverseSource interface {
	ActiveSymbols(ctx context.Context) ([]contracts.Symbol, error)
}

// Sources bundles the ingestion sources of a run
type Sources struct {
	Universe     UniverseSource // optional
	Prices       contracts.PriceSource
	Fundamentals contracts.FundamentalSource
	Sectors      contracts.SectorSource
}

// Options holds run-independent settings
type Options struct {
	Config          *pipelineconfig.Config
	ConfigHash      string
	NullLabelPolicy s1_panel.NullLabelPolicy
}

// Request describes one panel build
type Request struct {
	Symbols []string  `json:"symbols"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Factors []string  `json:"factors,omitempty"` // 비어있으면 설정 파일의 factors
}

// SourceFailure is a symbol dropped under the subset fetch policy
type SourceFailure struct {
	Symbol contracts.Symbol `json:"symbol"`
	Source string           `json:"source"`
	Error  string           `json:"error"`
}

// Result holds every artifact of a completed run
type Result struct {
	RunID             string                         `json:"run_id"`
	ConfigID          string                         `json:"config_id"`
	ConfigHash        string                         `json:"config_hash"`
	From              time.Time                      `json:"from"`
	To                time.Time                      `json:"to"`
	Symbols           []contracts.Symbol             `json:"symbols"`
	Factors           []contracts.FactorID           `json:"factors"`
	Panel             *contracts.Panel               `json:"panel"`
	Quality           *contracts.DataQualitySnapshot `json:"quality"`
	FactorRun         *s2_factors.Result             `json:"factor_run"`
	FactorRisk        []risk.FactorRisk              `json:"factor_risk"`
	SourceFailures    []SourceFailure                `json:"source_failures,omitempty"`
	ZeroFilledReturns int                            `json:"zero_filled_returns"`
	Stages            []contracts.StageResult        `json:"stages"`
	Duration          time.Duration                  `json:"duration_ns"`
}

// Runner executes S0 → S5 for one request
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Runner struct {
	sources    Sources
	collector  *collector.Collector
	quality    contracts.QualityGate
	factors    *s2_factors.Orchestrator
	config     *pipelineconfig.Config
	configHash string
	nullPolicy s1_panel.NullLabelPolicy
	metrics    *metrics.Recorder
	logger     *logger.Logger
}

// NewRunner creates a new runner
func NewRunner(
	sources Sources,
	coll *collector.Collector,
	gate contracts.QualityGate,
	factors *s2_factors.Orchestrator,
	opts Options,
	rec *metrics.Recorder,
	log *logger.Logger,
) *Runner {
	cfg := opts.Config
	if cfg == nil {
		cfg = pipelineconfig.Default()
	}
	policy := opts.NullLabelPolicy
	if policy == "" {
		policy = s1_panel.NullLabelZero
	}
	return &Runner{
		sources:    sources,
		collector:  coll,
		quality:    gate,
		factors:    factors,
		config:     cfg,
		configHash: opts.ConfigHash,
		nullPolicy: policy,
		metrics:    rec,
		logger:     log,
	}
}

// Config returns the factor configuration used by every run
func (r *Runner) Config() *pipelineconfig.Config {
	return r.config
}

// Run builds the panel and the factor outputs of a request.
// 모든 단계가 성공해야 결과를 반환 (부분 결과 없음)
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := r.logger.WithField("run_id", runID)

	result, err := r.run(ctx, runID, req, log)
	r.metrics.RecordRun(contracts.KindOf(err))
	if err != nil {
		log.WithError(err).WithField("kind", contracts.KindOf(err)).Error("Pipeline run failed")
		return nil, err
	}

	result.Duration = time.Since(start)
	log.WithFields(map[string]interface{}{
		"rows":        result.Panel.Len(),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Pipeline run completed")
	return result, nil
}

func (r *Runner) run(ctx context.Context, runID string, req Request, log *logger.Logger) (*Result, error) {
	from, to, err := validateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}
	factors, err := r.factorSet(req.Factors)
	if err != nil {
		return nil, err
	}
	symbols, err := r.universe(ctx, req.Symbols)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		ConfigID:   r.config.Meta.ConfigID,
		ConfigHash: r.configHash,
		From:       from,
		To:         to,
		Symbols:    symbols,
		Factors:    factors,
	}

	log.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"from":    from.Format(contracts.DateLayout),
		"to":      to.Format(contracts.DateLayout),
		"factors": contracts.FactorIDStrings(factors),
		"policy":  r.collector.Policy(),
	}).Info("Starting pipeline run")

	// S0: 가격 / 재무 / 섹터 수집
	var (
		prices    *contracts.PriceTable
		obs       []contracts.FundamentalObservation
		labels    map[contracts.Symbol]string
		fundFails []contracts.SymbolResult[[]contracts.FundamentalObservation]
		sectFails []contracts.SymbolResult[string]
	)
	err = r.stage(result, contracts.StageIngestion, "sources", len(symbols), func() (int, error) {
		var err error
		if prices, err = r.sources.Prices.Fetch(ctx, symbols, from, to); err != nil {
			return 0, contracts.AttributeError(contracts.StageIngestion, "prices", fmt.Errorf("fetch prices: %w", err))
		}
		if obs, fundFails, err = r.collector.FetchFundamentals(ctx, r.sources.Fundamentals, symbols, from, to); err != nil {
			return 0, contracts.AttributeError(contracts.StageIngestion, "fundamentals", fmt.Errorf("fetch fundamentals: %w", err))
		}
		if labels, sectFails, err = r.collector.FetchSectors(ctx, r.sources.Sectors, symbols); err != nil {
			return 0, contracts.AttributeError(contracts.StageIngestion, "sectors", fmt.Errorf("fetch sectors: %w", err))
		}
		return len(prices.Dates) * len(prices.Symbols), nil
	})
	if err != nil {
		return nil, err
	}
	result.SourceFailures = append(failuresOf("fundamentals", fundFails), failuresOf("sectors", sectFails)...)

	// S1: forward return
	var returns []contracts.ReturnRecord
	err = r.stage(result, contracts.StageReturns, "prices", len(prices.Dates)*len(prices.Symbols), func() (int, error) {
		var err error
		returns, result.ZeroFilledReturns, err = s1_panel.ConvertReturnsWithFill(prices)
		return len(returns), err
	})
	if err != nil {
		return nil, err
	}

	// S2: 재무 정렬
	var fundamentals []contracts.FundamentalRecord
	err = r.stage(result, contracts.StageFundamentals, "fundamentals", len(obs), func() (int, error) {
		var err error
		fundamentals, err = s1_panel.AlignFundamentals(obs)
		return len(fundamentals), err
	})
	if err != nil {
		return nil, err
	}

	// S3: 섹터 인코딩
	var sectors *contracts.SectorDummies
	err = r.stage(result, contracts.StageSectors, "sectors", len(labels), func() (int, error) {
		var err error
		if sectors, err = s1_panel.EncodeSectors(labels, r.nullPolicy); err != nil {
			return 0, err
		}
		return len(sectors.Rows), nil
	})
	if err != nil {
		return nil, err
	}

	// S4: 병합 + 품질 스냅샷
	err = r.stage(result, contracts.StageMerge, "panel", len(returns), func() (int, error) {
		panel, err := s1_panel.MergePanel(returns, fundamentals, sectors)
		if err != nil {
			return 0, err
		}
		result.Panel = panel
		r.metrics.RecordRowsLost(string(contracts.StageMerge), "no_fundamentals", panel.Diagnostics.LostAtFundamentalJoin)
		r.metrics.RecordRowsLost(string(contracts.StageMerge), "no_sector", panel.Diagnostics.LostAtSectorJoin)

		snapshot, err := r.quality.Check(ctx, symbols, panel)
		if snapshot != nil {
			snapshot.RunID = result.RunID
			result.Quality = snapshot
		}
		if err != nil {
			return 0, fmt.Errorf("check panel quality: %w", err)
		}
		return panel.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	// S5: 스타일 점수 + 팩터 수익률
	err = r.stage(result, contracts.StageFactors, "factors", result.Panel.Len(), func() (int, error) {
		out, err := r.factors.Run(ctx, result.Panel, factors, r.config.Params())
		if err != nil {
			return 0, err
		}
		result.FactorRun = out
		r.metrics.RecordRowsLost(string(contracts.StageFactors), "incomplete", out.DroppedRows)

		if result.FactorRisk, err = risk.Summarize(out.FactorReturns, r.config.Risk.Confidence); err != nil {
			return 0, contracts.AttributeError(contracts.StageFactors, "risk", fmt.Errorf("summarize factor returns: %w", err))
		}
		return out.RegressionRows, nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// stage times fn, appends its StageResult and records stage metrics.
// Errors without a stage are attributed to this stage and entity.
func (r *Runner) stage(result *Result, stage contracts.Stage, entity string, input int, fn func() (int, error)) error {
	start := time.Now()
	output, err := fn()
	elapsed := time.Since(start)
	err = contracts.AttributeError(stage, entity, err)

	sr := contracts.StageResult{
		Stage:       stage,
		InputCount:  input,
		OutputCount: output,
		Duration:    elapsed.Milliseconds(),
	}
	if err != nil {
		sr.Error = err.Error()
	}
	result.Stages = append(result.Stages, sr)
	r.metrics.RecordStage(string(stage), elapsed.Seconds(), output)

	r.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"stage":       stage.ShortName(),
		"input":       input,
		"output":      output,
		"duration_ms": sr.Duration,
	}).Debug("Stage completed")
	return err
}

// factorSet resolves the requested factors, falling back to the configured set
func (r *Runner) factorSet(requested []string) ([]contracts.FactorID, error) {
	if len(requested) == 0 {
		return r.config.FactorIDs()
	}
	return contracts.ParseFactorIDs(requested)
}

// universe normalizes the requested symbols or loads the active universe
func (r *Runner) universe(ctx context.Context, raw []string) ([]contracts.Symbol, error) {
	if len(raw) > 0 {
		symbols, err := contracts.NormalizeSymbols(raw)
		if err != nil {
			return nil, contracts.NewValidationError(contracts.StageIngestion, "symbols", err.Error())
		}
		return symbols, nil
	}
	if r.sources.Universe == nil {
		return nil, contracts.NewConfigurationError(contracts.StageIngestion, "symbols",
			"no symbols requested and no universe source configured")
	}
	symbols, err := r.sources.Universe.ActiveSymbols(ctx)
	if err != nil {
		return nil, contracts.AttributeError(contracts.StageIngestion, "universe", fmt.Errorf("load active universe: %w", err))
	}
	return symbols, nil
}

func validateRange(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, contracts.NewValidationError(contracts.StageIngestion, "range", "from and to are required")
	}
	from, to = contracts.TruncateDay(from), contracts.TruncateDay(to)
	if to.Before(from) {
		return time.Time{}, time.Time{}, contracts.NewValidationError(contracts.StageIngestion, "range",
			fmt.Sprintf("to %s is before from %s", to.Format(contracts.DateLayout), from.Format(contracts.DateLayout)))
	}
	return from, to, nil
}

func failuresOf[T any](source string, results []contracts.SymbolResult[T]) []SourceFailure {
	var out []SourceFailure
	for _, res := range results {
		if res.OK() {
			continue
		}
		out = append(out, SourceFailure{Symbol: res.Symbol, Source: source, Error: res.Err.Error()})
	}
	return out
}
