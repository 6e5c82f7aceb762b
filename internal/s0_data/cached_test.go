package s0_data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/config"
	"github.com/wonny/factorpanel/pkg/logger"
	"github.com/wonny/factorpanel/pkg/redis"
)

type countingSectors struct {
	calls int
	err   error
}

func (s *countingSectors) FetchOne(_ context.Context, _ contracts.Symbol) (string, error) {
	s.calls++
	return "Tech", s.err
}

type countingPrices struct {
	calls int
}

func (s *countingPrices) Fetch(_ context.Context, symbols []contracts.Symbol, from, _ time.Time) (*contracts.PriceTable, error) {
	s.calls++
	return contracts.PivotPrices(symbols, []contracts.PricePoint{{Date: from, Symbol: symbols[0], Close: contracts.Float(1)}})
}

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)
	require.False(t, client.Enabled())
	return redis.NewCache(client, "factorpanel")
}

func TestCachedSectorSource_DisabledCachePassesThrough(t *testing.T) {
	inner := &countingSectors{}
	src := NewCachedSectorSource(inner, disabledCache(t), redis.TTLWeek, logger.NewNop())

	for i := 0; i < 2; i++ {
		label, err := src.FetchOne(context.Background(), "AAA")
		require.NoError(t, err)
		assert.Equal(t, "Tech", label)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSectorSource_PropagatesErrors(t *testing.T) {
	inner := &countingSectors{err: errors.New("boom")}
	src := NewCachedSectorSource(inner, disabledCache(t), redis.TTLWeek, logger.NewNop())

	_, err := src.FetchOne(context.Background(), "AAA")
	assert.EqualError(t, err, "boom")
}

func TestCachedPriceSource_DisabledCachePassesThrough(t *testing.T) {
	inner := &countingPrices{}
	src := NewCachedPriceSource(inner, disabledCache(t), redis.TTLDaily, logger.NewNop())
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	table, err := src.Fetch(context.Background(), []contracts.Symbol{"AAA"}, from, from)
	require.NoError(t, err)
	assert.Len(t, table.Dates, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestValidCachedTable(t *testing.T) {
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	symbols := []contracts.Symbol{"AAA", "BBB"}
	one := contracts.Float(1)

	tests := []struct {
		name    string
		table   contracts.PriceTable
		wantErr bool
	}{
		{"valid", contracts.PriceTable{Dates: []time.Time{d0, d1}, Symbols: symbols, Close: [][]contracts.NullFloat{{one, one}, {one, one}}}, false},
		{"unordered dates", contracts.PriceTable{Dates: []time.Time{d1, d0}, Symbols: symbols, Close: [][]contracts.NullFloat{{one, one}, {one, one}}}, true},
		{"ragged row", contracts.PriceTable{Dates: []time.Time{d0, d1}, Symbols: symbols, Close: [][]contracts.NullFloat{{one, one}, {one}}}, true},
		{"missing rows", contracts.PriceTable{Dates: []time.Time{d0, d1}, Symbols: symbols, Close: [][]contracts.NullFloat{{one, one}}}, true},
		{"other columns", contracts.PriceTable{Dates: []time.Time{d0}, Symbols: []contracts.Symbol{"AAA", "CCC"}, Close: [][]contracts.NullFloat{{one, one}}}, true},
		{"fewer columns", contracts.PriceTable{Dates: []time.Time{d0}, Symbols: []contracts.Symbol{"AAA"}, Close: [][]contracts.NullFloat{{one}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := validCachedTable(&tt.table, symbols)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, table)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, symbols, table.Symbols)
		})
	}
}
