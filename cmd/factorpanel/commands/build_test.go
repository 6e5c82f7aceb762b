package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorpanel/pkg/config"
)

func TestParseRange(t *testing.T) {
	from, to, err := parseRange("2024-01-02", "2024-03-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), to)

	// from 생략 → to 기준 3개월 전
	from, to, err = parseRange("", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), to)

	_, _, err = parseRange("2024/01/02", "")
	assert.Error(t, err)
	_, _, err = parseRange("", "yesterday")
	assert.Error(t, err)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}

func TestCachePrefix(t *testing.T) {
	assert.Equal(t, "factorpanel:postgres", cachePrefix(config.SourcePostgres))
	assert.Equal(t, "factorpanel:eodhd", cachePrefix(config.SourceEODHD))
	assert.NotEqual(t, cachePrefix(config.SourcePostgres), cachePrefix(config.SourceEODHD))
}
