package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
	"github.com/wonny/factorpanel/pkg/redis"
)

// 캐시 장애는 수집을 막지 않음: 조회/저장 실패는 경고만 남기고 원본 소스로 진행

// CachedPriceSource caches wide price tables in Redis
type CachedPriceSource struct {
	inner  contracts.PriceSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedPriceSource wraps a price source with a Redis cache
func NewCachedPriceSource(inner contracts.PriceSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedPriceSource {
	return &CachedPriceSource{inner: inner, cache: cache, ttl: ttl, logger: log}
}

// Fetch returns the cached table or fetches and stores it
func (s *CachedPriceSource) Fetch(ctx context.Context, symbols []contracts.Symbol, from, to time.Time) (*contracts.PriceTable, error) {
	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.String()
	}
	key := redis.PriceTableKey(names, from.Format(contracts.DateLayout), to.Format(contracts.DateLayout))

	var cached contracts.PriceTable
	if hit := cacheGet(ctx, s.cache, s.logger, key, &cached); hit {
		table, err := validCachedTable(&cached, symbols)
		if err == nil {
			return table, nil
		}
		s.logger.WithError(err).WithField("key", key).Warn("Cached price table rejected, refetching")
	}

	table, err := s.inner.Fetch(ctx, symbols, from, to)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, s.cache, s.logger, key, table, s.ttl)
	return table, nil
}

// CachedFundamentalSource caches per-symbol fundamental observations in Redis
type CachedFundamentalSource struct {
	inner  contracts.FundamentalSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedFundamentalSource wraps a fundamental source with a Redis cache
func NewCachedFundamentalSource(inner contracts.FundamentalSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedFundamentalSource {
	return &CachedFundamentalSource{inner: inner, cache: cache, ttl: ttl, logger: log}
}

// FetchOne returns the cached observations or fetches and stores them
func (s *CachedFundamentalSource) FetchOne(ctx context.Context, symbol contracts.Symbol, from, to time.Time) ([]contracts.FundamentalObservation, error) {
	key := redis.FundamentalsKey(symbol.String(), from.Format(contracts.DateLayout), to.Format(contracts.DateLayout))

	var cached []contracts.FundamentalObservation
	if hit := cacheGet(ctx, s.cache, s.logger, key, &cached); hit {
		return cached, nil
	}

	obs, err := s.inner.FetchOne(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, s.cache, s.logger, key, obs, s.ttl)
	return obs, nil
}

// CachedSectorSource caches sector labels in Redis
type CachedSectorSource struct {
	inner  contracts.SectorSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSectorSource wraps a sector source with a Redis cache
func NewCachedSectorSource(inner contracts.SectorSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSectorSource {
	return &CachedSectorSource{inner: inner, cache: cache, ttl: ttl, logger: log}
}

// FetchOne returns the cached label or fetches and stores it
func (s *CachedSectorSource) FetchOne(ctx context.Context, symbol contracts.Symbol) (string, error) {
	key := redis.SectorKey(symbol.String())

	var cached string
	if hit := cacheGet(ctx, s.cache, s.logger, key, &cached); hit {
		return cached, nil
	}

	label, err := s.inner.FetchOne(ctx, symbol)
	if err != nil {
		return "", err
	}
	cacheSet(ctx, s.cache, s.logger, key, label, s.ttl)
	return label, nil
}

// validCachedTable re-checks a decoded table: shape and ordering, and the requested columns
func validCachedTable(cached *contracts.PriceTable, symbols []contracts.Symbol) (*contracts.PriceTable, error) {
	table, err := contracts.NewPriceTable(cached.Dates, cached.Symbols, cached.Close)
	if err != nil {
		return nil, err
	}
	if len(table.Symbols) != len(symbols) {
		return nil, fmt.Errorf("cached table has %d symbols, requested %d", len(table.Symbols), len(symbols))
	}
	for i, sym := range symbols {
		if table.Symbols[i] != sym {
			return nil, fmt.Errorf("cached column %d is %s, requested %s", i, table.Symbols[i], sym)
		}
	}
	return table, nil
}

func cacheGet(ctx context.Context, cache *redis.Cache, log *logger.Logger, key string, dest interface{}) bool {
	hit, err := cache.Get(ctx, key, dest)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	if hit {
		log.WithField("key", key).Debug("Cache hit")
	}
	return hit
}

func cacheSet(ctx context.Context, cache *redis.Cache, log *logger.Logger, key string, value interface{}, ttl time.Duration) {
	if err := cache.Set(ctx, key, value, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}
