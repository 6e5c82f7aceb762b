package styles

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/factorpanel/internal/contracts"
)

// GroupByDate returns row indices per date, in first-seen date order
func GroupByDate(keys []contracts.Key) [][]int {
	pos := make(map[int64]int)
	var groups [][]int
	for i, k := range keys {
		d := k.Date.Unix()
		g, ok := pos[d]
		if !ok {
			g = len(groups)
			pos[d] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// Quantiles returns the empirical lower and upper quantiles of the finite values
func Quantiles(values []float64, lower, upper float64) (float64, float64) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN(), math.NaN()
	}
	sort.Float64s(sorted)
	return stat.Quantile(lower, stat.Empirical, sorted, nil),
		stat.Quantile(upper, stat.Empirical, sorted, nil)
}

// Clip limits values to [lo, hi] in place
func Clip(values []float64, lo, hi float64) {
	for i, v := range values {
		values[i] = math.Max(lo, math.Min(hi, v))
	}
}

// Winsorize clips values to the [fraction, 1-fraction] quantiles.
// fraction 0 leaves the values unchanged.
func Winsorize(values []float64, fraction float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if fraction <= 0 || len(values) < 2 {
		return out
	}
	lo, hi := Quantiles(out, fraction, 1-fraction)
	Clip(out, lo, hi)
	return out
}

// ZScore standardizes values cross-sectionally.
// Fewer than two values give nil; zero dispersion gives all zeros.
func ZScore(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	mean, std := stat.MeanStdDev(values, nil)
	out := make([]float64, len(values))
	if std == 0 || math.IsNaN(std) {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// standardizeByDate applies transform to the finite values of each date and
// z-scores the result. Rows with a non-finite input stay null.
func standardizeByDate(keys []contracts.Key, raw []contracts.NullFloat, transform func([]float64) []float64) []contracts.NullFloat {
	out := make([]contracts.NullFloat, len(raw))
	for _, rows := range GroupByDate(keys) {
		idx := make([]int, 0, len(rows))
		vals := make([]float64, 0, len(rows))
		for _, i := range rows {
			if raw[i].IsFinite() {
				idx = append(idx, i)
				vals = append(vals, raw[i].Float64)
			}
		}
		if transform != nil {
			vals = transform(vals)
		}
		z := ZScore(vals)
		if z == nil {
			continue
		}
		for n, i := range idx {
			out[i] = contracts.Float(z[n])
		}
	}
	return out
}
