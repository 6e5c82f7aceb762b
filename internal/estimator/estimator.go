package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/styles"
	"github.com/wonny/factorpanel/pkg/logger"
)

// errSkipDate marks a cross-section that cannot be estimated
var errSkipDate = errors.New("cross-section not estimable")

// Estimator runs one weighted cross-sectional regression per date:
// winsorized asset returns on sector dummies and style scores, with
// square-root market cap weights.
// ⭐ SSOT: 팩터 수익률 추정은 여기서만
type Estimator struct {
	logger *logger.Logger
}

// New creates a new estimator
func New(log *logger.Logger) *Estimator {
	return &Estimator{logger: log}
}

// Estimate returns factor returns per date and residual returns per key.
// Dates with fewer rows than regressors, or a singular design, are skipped and
// listed in SkippedDates.
func (e *Estimator) Estimate(ctx context.Context, in *contracts.EstimationInput, params contracts.EstimatorParams) (*contracts.EstimationOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if params.WinsorizationFraction < 0 || params.WinsorizationFraction >= 0.5 {
		return nil, contracts.NewConfigurationError(contracts.StageFactors, "estimator",
			fmt.Sprintf("winsorization_fraction must be in [0, 0.5), got %g", params.WinsorizationFraction))
	}

	out := &contracts.EstimationOutput{
		FactorReturns: &contracts.FactorReturnTable{},
		Residuals:     &contracts.ResidualReturnTable{},
	}
	labels := in.Sectors.Labels()

	for _, rows := range styles.GroupByDate(in.Keys) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := in.Keys[rows[0]].Date

		factorReturns, residuals, err := e.estimateDate(in, rows, labels, params)
		if errors.Is(err, errSkipDate) {
			e.logger.WithFields(map[string]interface{}{
				"date":   date.Format(contracts.DateLayout),
				"rows":   len(rows),
				"reason": err.Error(),
			}).Warn("Skipped cross-section")
			out.SkippedDates = append(out.SkippedDates, date)
			continue
		}
		if err != nil {
			return nil, err
		}
		out.FactorReturns.Rows = append(out.FactorReturns.Rows, factorReturns...)
		out.Residuals.Rows = append(out.Residuals.Rows, residuals...)
	}

	sort.SliceStable(out.Residuals.Rows, func(i, j int) bool {
		return out.Residuals.Rows[i].Key.Less(out.Residuals.Rows[j].Key)
	})

	e.logger.WithFields(map[string]interface{}{
		"rows":           len(in.Keys),
		"factor_returns": len(out.FactorReturns.Rows),
		"residuals":      len(out.Residuals.Rows),
		"skipped_dates":  len(out.SkippedDates),
		"residualize":    params.ResidualizeStyles,
	}).Info("Estimated factor returns")

	return out, nil
}

func (e *Estimator) estimateDate(
	in *contracts.EstimationInput,
	rows []int,
	labels []string,
	params contracts.EstimatorParams,
) ([]contracts.FactorReturn, []contracts.ResidualReturn, error) {
	n := len(rows)
	date := in.Keys[rows[0]].Date

	// 해당 날짜에 한 종목도 없는 섹터 컬럼은 제외 (특이행렬 방지)
	var active []int
	for c := range labels {
		for _, i := range rows {
			if in.SectorDummies[i][c] == 1 {
				active = append(active, c)
				break
			}
		}
	}
	k := len(in.Factors)
	p := len(active) + k
	if p == 0 {
		return nil, nil, fmt.Errorf("%w: no regressors", errSkipDate)
	}
	if n < p {
		return nil, nil, fmt.Errorf("%w: %d rows for %d regressors", errSkipDate, n, p)
	}

	sw := make([]float64, n)
	raw := make([]float64, n)
	for r, i := range rows {
		// sqrt(mcap) 가중 → 행 스케일은 그 제곱근
		sw[r] = math.Sqrt(math.Sqrt(math.Max(in.MarketCaps[i], 0)))
		raw[r] = in.Returns[i]
	}
	y := styles.Winsorize(raw, params.WinsorizationFraction)

	sectors := mat.NewDense(n, max(len(active), 1), nil)
	for r, i := range rows {
		for c, col := range active {
			sectors.Set(r, c, float64(in.SectorDummies[i][col]))
		}
	}

	scores := make([][]float64, k)
	for j := range scores {
		scores[j] = make([]float64, n)
		for r, i := range rows {
			scores[j][r] = in.Scores[i][j]
		}
		if params.ResidualizeStyles && len(active) > 0 {
			beta, err := weightedLeastSquares(sectors, scores[j], sw)
			if err != nil {
				return nil, nil, err
			}
			fitted := predict(sectors, beta)
			for r := range scores[j] {
				scores[j][r] -= fitted[r]
			}
		}
	}

	design := mat.NewDense(n, p, nil)
	for r := 0; r < n; r++ {
		for c := range active {
			design.Set(r, c, sectors.At(r, c))
		}
		for j := 0; j < k; j++ {
			design.Set(r, len(active)+j, scores[j][r])
		}
	}

	beta, err := weightedLeastSquares(design, y, sw)
	if err != nil {
		return nil, nil, err
	}

	factorReturns := make([]contracts.FactorReturn, 0, p)
	for c, col := range active {
		factorReturns = append(factorReturns, contracts.FactorReturn{Date: date, Factor: labels[col], Return: beta[c]})
	}
	for j, id := range in.Factors {
		factorReturns = append(factorReturns, contracts.FactorReturn{Date: date, Factor: string(id), Return: beta[len(active)+j]})
	}

	fitted := predict(design, beta)
	residuals := make([]contracts.ResidualReturn, n)
	for r, i := range rows {
		residuals[r] = contracts.ResidualReturn{Key: in.Keys[i], Residual: raw[r] - fitted[r]}
	}
	return factorReturns, residuals, nil
}

// weightedLeastSquares solves min ||diag(sw)(x·beta - y)|| via QR
func weightedLeastSquares(x *mat.Dense, y, sw []float64) ([]float64, error) {
	r, c := x.Dims()
	a := mat.NewDense(r, c, nil)
	b := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.Set(i, j, x.At(i, j)*sw[i])
		}
		b.SetVec(i, y[i]*sw[i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: singular design (condition %.3g)", errSkipDate, float64(cond))
		}
		return nil, fmt.Errorf("solve least squares: %w", err)
	}

	out := make([]float64, c)
	for j := range out {
		out[j] = beta.AtVec(j)
		if math.IsNaN(out[j]) || math.IsInf(out[j], 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", errSkipDate)
		}
	}
	return out, nil
}

func predict(x *mat.Dense, beta []float64) []float64 {
	r, c := x.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i] += x.At(i, j) * beta[j]
		}
	}
	return out
}

func validateInput(in *contracts.EstimationInput) error {
	if in == nil || len(in.Keys) == 0 {
		return contracts.NewValidationError(contracts.StageFactors, "estimator", "empty estimation input")
	}
	n := len(in.Keys)
	if len(in.Returns) != n || len(in.MarketCaps) != n || len(in.SectorDummies) != n || len(in.Scores) != n {
		return contracts.NewAlignmentError(contracts.StageFactors, "estimator",
			fmt.Sprintf("projection lengths differ: keys=%d returns=%d market_caps=%d sectors=%d scores=%d",
				n, len(in.Returns), len(in.MarketCaps), len(in.SectorDummies), len(in.Scores)))
	}
	width := in.Sectors.Len()
	for i := 0; i < n; i++ {
		if len(in.SectorDummies[i]) != width || len(in.Scores[i]) != len(in.Factors) {
			return contracts.NewAlignmentError(contracts.StageFactors, in.Keys[i].String(), "row width mismatch")
		}
		if !finite(in.Returns[i]) || !finite(in.MarketCaps[i]) {
			return contracts.NewValidationError(contracts.StageFactors, in.Keys[i].String(), "non-finite return or market cap")
		}
		for _, s := range in.Scores[i] {
			if !finite(s) {
				return contracts.NewValidationError(contracts.StageFactors, in.Keys[i].String(), "non-finite factor score")
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
