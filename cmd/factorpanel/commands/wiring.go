package commands

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/factorpanel/internal/estimator"
	"github.com/wonny/factorpanel/internal/external/eodhd"
	"github.com/wonny/factorpanel/internal/external/profile"
	"github.com/wonny/factorpanel/internal/pipeline"
	"github.com/wonny/factorpanel/internal/pipelineconfig"
	"github.com/wonny/factorpanel/internal/s0_data"
	"github.com/wonny/factorpanel/internal/s0_data/collector"
	"github.com/wonny/factorpanel/internal/s0_data/quality"
	"github.com/wonny/factorpanel/internal/s1_panel"
	"github.com/wonny/factorpanel/internal/s2_factors"
	"github.com/wonny/factorpanel/internal/styles"
	"github.com/wonny/factorpanel/pkg/config"
	"github.com/wonny/factorpanel/pkg/database"
	"github.com/wonny/factorpanel/pkg/httputil"
	"github.com/wonny/factorpanel/pkg/logger"
	"github.com/wonny/factorpanel/pkg/metrics"
	"github.com/wonny/factorpanel/pkg/redis"
)

// app holds the wired pipeline and the resources it owns
type app struct {
	runner     *pipeline.Runner
	configHash string
	metrics    *metrics.Recorder
	closers    []func()
}

// Close releases database and redis connections
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// loadEnv loads environment configuration and the logger
func loadEnv() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// loadFactorConfig reads the factor YAML (flag > env > built-in defaults) and hashes it
func loadFactorConfig(cfg *config.Config) (*pipelineconfig.Config, string, error) {
	path := factorsFile
	if path == "" {
		path = cfg.Pipeline.FactorsFile
	}

	factorCfg := pipelineconfig.Default()
	if path != "" {
		var err error
		if factorCfg, _, err = pipelineconfig.Load(path); err != nil {
			return nil, "", err
		}
	}

	hash, err := pipelineconfig.Hash(factorCfg)
	if err != nil {
		return nil, "", fmt.Errorf("hash factor config: %w", err)
	}
	return factorCfg, hash, nil
}

// cachePrefix keeps cached source data apart per source
func cachePrefix(source string) string {
	return "factorpanel:" + source
}

// newApp wires sources, caches, collector, quality gate and the factor orchestrator
// ⭐ SSOT: 의존성 조립은 여기서만
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	factorCfg, hash, err := loadFactorConfig(cfg)
	if err != nil {
		return nil, err
	}
	fetchPolicy, err := collector.ParseFetchPolicy(cfg.Pipeline.FetchPolicy)
	if err != nil {
		return nil, err
	}
	nullPolicy, err := s1_panel.ParseNullLabelPolicy(cfg.Pipeline.NullLabelPolicy)
	if err != nil {
		return nil, err
	}

	a := &app{configHash: hash}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 1. Redis (비활성화 시 no-op 캐시 / 무제한 레이트 리밋)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = rc.Close() })
	cache := redis.NewCache(rc, cachePrefix(cfg.Pipeline.Source))
	limiter := redis.NewRateLimiter(rc, "factorpanel")

	// 2. Sources
	var sources pipeline.Sources
	switch cfg.Pipeline.Source {
	case config.SourcePostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		sources = pipeline.Sources{
			Universe:     s0_data.NewRepository(db.Pool),
			Prices:       s0_data.NewPriceRepository(db.Pool),
			Fundamentals: s0_data.NewFundamentalRepository(db.Pool),
			Sectors:      s0_data.NewSectorRepository(db.Pool),
		}

	case config.SourceEODHD:
		eodHTTP := httputil.New(cfg.EODHD.Timeout, log).
			WithRateLimiter(limiter, redis.RateLimitConfig{
				Key:    "eodhd",
				Limit:  int(math.Max(1, math.Ceil(cfg.EODHD.RequestsPerSecond))),
				Window: time.Second,
			}).
			WithCircuitBreaker("eodhd", 5, 30*time.Second)
		profileHTTP := httputil.New(cfg.Profile.Timeout, log).
			WithRateLimiter(limiter, redis.RateLimitConfig{Key: "profile", Limit: 2, Window: time.Second}).
			WithCircuitBreaker("profile", 5, time.Minute)

		client := eodhd.NewClient(cfg.EODHD, eodHTTP, log)
		sources = pipeline.Sources{
			Prices:       eodhd.NewPriceSource(client),
			Fundamentals: eodhd.NewFundamentalSource(client),
			// EODHD 섹터가 비어있으면 프로필 페이지로 보완
			Sectors: s0_data.NewFallbackSectorSource(log,
				eodhd.NewSectorSource(client),
				profile.NewClient(cfg.Profile, profileHTTP, log),
			),
		}

	default:
		a.Close()
		return nil, fmt.Errorf("unknown source %q", cfg.Pipeline.Source)
	}

	// 3. Cache wrappers
	ttl := cfg.Redis.CacheTTL
	sources.Prices = s0_data.NewCachedPriceSource(sources.Prices, cache, ttl, log)
	sources.Fundamentals = s0_data.NewCachedFundamentalSource(sources.Fundamentals, cache, ttl, log)
	sources.Sectors = s0_data.NewCachedSectorSource(sources.Sectors, cache, redis.TTLWeek, log)

	// 4. Pipeline
	coll := collector.NewCollector(collector.Config{Workers: cfg.Pipeline.Workers, Policy: fetchPolicy}, a.metrics, log)
	gate := quality.NewQualityGate(factorCfg.Quality, log)
	orchestrator := s2_factors.NewOrchestrator(styles.Defaults(log), estimator.New(log), log)

	a.runner = pipeline.NewRunner(sources, coll, gate, orchestrator, pipeline.Options{
		Config:          factorCfg,
		ConfigHash:      hash,
		NullLabelPolicy: nullPolicy,
	}, a.metrics, log)

	log.WithFields(map[string]interface{}{
		"source":       cfg.Pipeline.Source,
		"fetch_policy": string(fetchPolicy),
		"null_labels":  string(nullPolicy),
		"config_id":    factorCfg.Meta.ConfigID,
		"config_hash":  hash[:12],
		"redis":        rc.Enabled(),
	}).Info("Pipeline wired")

	return a, nil
}
