package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
	"github.com/wonny/factorpanel/pkg/metrics"
)

// FetchPolicy decides what a batch does when some symbols fail
type FetchPolicy string

const (
	// PolicyAbort fails the whole batch on the first failed symbol (by symbol order)
	PolicyAbort FetchPolicy = "abort"
	// PolicySubset drops failed symbols and proceeds with the rest
	PolicySubset FetchPolicy = "subset"
)

// ParseFetchPolicy parses a configured policy. Empty means abort.
func ParseFetchPolicy(raw string) (FetchPolicy, error) {
	switch p := FetchPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyAbort, nil
	case PolicyAbort, PolicySubset:
		return p, nil
	default:
		return "", contracts.NewConfigurationError(contracts.StageIngestion, "fetch_policy",
			fmt.Sprintf("unknown fetch policy %q (valid: abort, subset)", raw))
	}
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
	Policy  FetchPolicy
}

// Collector fans out per-symbol retrieval over a bounded worker pool
// ⭐ SSOT: 종목별 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	cfg     Config
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewCollector creates a new Collector instance
func NewCollector(cfg Config, rec *metrics.Recorder, log *logger.Logger) *Collector {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAbort
	}
	return &Collector{
		cfg:     cfg,
		metrics: rec,
		logger:  log.WithField("module", "collector"),
	}
}

// Policy returns the configured fetch policy
func (c *Collector) Policy() FetchPolicy {
	return c.cfg.Policy
}

// FetchFundamentals retrieves the raw fundamental observations of every symbol
func (c *Collector) FetchFundamentals(
	ctx context.Context,
	src contracts.FundamentalSource,
	symbols []contracts.Symbol,
	from, to time.Time,
) ([]contracts.FundamentalObservation, []contracts.SymbolResult[[]contracts.FundamentalObservation], error) {
	results, err := collect[[]contracts.FundamentalObservation](ctx, c, "fundamentals", symbols, func(ctx context.Context, sym contracts.Symbol) ([]contracts.FundamentalObservation, error) {
		return src.FetchOne(ctx, sym, from, to)
	})
	if err != nil {
		return nil, results, err
	}

	var obs []contracts.FundamentalObservation
	for _, r := range results {
		if r.OK() {
			obs = append(obs, r.Value...)
		}
	}
	return obs, results, nil
}

// FetchSectors retrieves the raw sector label of every symbol
func (c *Collector) FetchSectors(
	ctx context.Context,
	src contracts.SectorSource,
	symbols []contracts.Symbol,
) (map[contracts.Symbol]string, []contracts.SymbolResult[string], error) {
	results, err := collect[string](ctx, c, "sectors", symbols, src.FetchOne)
	if err != nil {
		return nil, results, err
	}

	labels := make(map[contracts.Symbol]string, len(results))
	for _, r := range results {
		if r.OK() {
			labels[r.Symbol] = r.Value
		}
	}
	return labels, results, nil
}

type fetchFunc[T any] func(ctx context.Context, sym contracts.Symbol) (T, error)

// collect runs fetch for every symbol and applies the fetch policy.
// Results are sorted by symbol regardless of completion order.
func collect[T any](
	ctx context.Context,
	c *Collector,
	source string,
	symbols []contracts.Symbol,
	fetch fetchFunc[T],
) ([]contracts.SymbolResult[T], error) {
	if len(symbols) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, source, "empty universe", nil)
	}

	c.logger.WithFields(map[string]interface{}{
		"source":  source,
		"symbols": len(symbols),
		"workers": c.cfg.Workers,
		"policy":  string(c.cfg.Policy),
	}).Info("Starting collection")

	// 1. Create worker pool
	resultCh := make(chan contracts.SymbolResult[T], len(symbols))
	symbolCh := make(chan contracts.Symbol, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker[T](ctx, c, workerID, source, symbolCh, resultCh, fetch)
		}(i)
	}

	for _, sym := range symbols {
		symbolCh <- sym
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 2. Collect results
	results := make([]contracts.SymbolResult[T], 0, len(symbols))
	for r := range resultCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })

	// 취소는 정책과 무관하게 전체 중단
	if err := ctx.Err(); err != nil {
		return results, err
	}

	// 3. Apply policy
	failed := 0
	var first error
	for _, r := range results {
		if r.OK() {
			continue
		}
		failed++
		c.metrics.RecordFetchFailure(source)
		if first == nil {
			first = r.Err
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"source":  source,
		"success": len(results) - failed,
		"failed":  failed,
		"total":   len(results),
	}).Info("Collection completed")

	switch {
	case failed == 0:
		return results, nil
	case c.cfg.Policy == PolicyAbort:
		return results, first
	case failed == len(results):
		return results, contracts.NewDataUnavailableError(contracts.StageIngestion, source,
			fmt.Sprintf("all %d symbols failed", failed), first)
	default:
		for _, r := range results {
			if !r.OK() {
				c.logger.WithError(r.Err).WithFields(map[string]interface{}{
					"source": source,
					"symbol": r.Symbol.String(),
				}).Warn("Dropped symbol from batch")
			}
		}
		return results, nil
	}
}

func worker[T any](
	ctx context.Context,
	c *Collector,
	workerID int,
	source string,
	symbolCh <-chan contracts.Symbol,
	resultCh chan<- contracts.SymbolResult[T],
	fetch fetchFunc[T],
) {
	for sym := range symbolCh {
		select {
		case <-ctx.Done():
			resultCh <- contracts.SymbolResult[T]{Symbol: sym, Err: ctx.Err()}
			continue
		default:
		}

		value, err := fetch(ctx, sym)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"source": source,
				"symbol": sym.String(),
			}).Debug("Fetch failed")
			resultCh <- contracts.SymbolResult[T]{Symbol: sym, Err: asSymbolError(source, sym, err)}
			continue
		}
		resultCh <- contracts.SymbolResult[T]{Symbol: sym, Value: value}
	}
}

// asSymbolError makes sure a failure names the symbol
func asSymbolError(source string, sym contracts.Symbol, err error) error {
	var pe *contracts.PipelineError
	if errors.As(err, &pe) && pe.Entity == sym.String() {
		return err
	}
	return contracts.NewDataUnavailableError(contracts.StageIngestion, sym.String(), "fetch "+source+" failed", err)
}
