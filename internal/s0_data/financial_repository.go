package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/factorpanel/internal/contracts"
)

// FundamentalRepository implements contracts.FundamentalSource
// ⭐ SSOT: 재무/시가총액 조회는 여기서만
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

// NewFundamentalRepository creates a new fundamental repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

// FetchOne returns daily market caps merged with report-date fundamentals of one symbol.
// Reports published before from are included so forward-fill has a starting value.
func (r *FundamentalRepository) FetchOne(ctx context.Context, symbol contracts.Symbol, from, to time.Time) ([]contracts.FundamentalObservation, error) {
	query := `
		SELECT COALESCE(m.trade_date, f.report_date) AS obs_date,
		       f.total_equity, f.revenue, f.operating_cash_flow,
		       m.market_cap
		FROM (
			SELECT trade_date, market_cap
			FROM data.market_cap
			WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		) m
		FULL OUTER JOIN (
			SELECT report_date, total_equity, revenue, operating_cash_flow
			FROM data.fundamentals
			WHERE stock_code = $1 AND report_date <= $3
		) f ON f.report_date = m.trade_date
		ORDER BY obs_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol.String(), from, to)
	if err != nil {
		return nil, fmt.Errorf("query fundamentals %s: %w", symbol, err)
	}
	defer rows.Close()

	var obs []contracts.FundamentalObservation
	for rows.Next() {
		o := contracts.FundamentalObservation{Symbol: symbol}
		if err := rows.Scan(&o.Date, &o.BookValue, &o.Revenue, &o.CashFlow, &o.MarketCap); err != nil {
			return nil, fmt.Errorf("scan fundamentals %s: %w", symbol, err)
		}
		o.Date = contracts.TruncateDay(o.Date)
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(obs) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, symbol.String(), "no fundamentals in range", nil)
	}
	return obs, nil
}
