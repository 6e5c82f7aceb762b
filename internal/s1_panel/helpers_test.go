package s1_panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/factorpanel/internal/contracts"
)

func day(s string) time.Time {
	t, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func f(v float64) contracts.NullFloat { return contracts.Float(v) }

var null = contracts.Null()

func priceTable(t *testing.T, dates []string, symbols []contracts.Symbol, closes [][]contracts.NullFloat) *contracts.PriceTable {
	t.Helper()
	ds := make([]time.Time, len(dates))
	for i, d := range dates {
		ds[i] = day(d)
	}
	table, err := contracts.NewPriceTable(ds, symbols, closes)
	require.NoError(t, err)
	return table
}
