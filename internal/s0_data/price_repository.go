package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/factorpanel/internal/contracts"
)

// PriceRepository implements contracts.PriceSource over data.daily_prices
// ⭐ SSOT: 가격 데이터 조회는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Fetch returns the wide adjusted-close table of the symbols within [from, to]
func (r *PriceRepository) Fetch(ctx context.Context, symbols []contracts.Symbol, from, to time.Time) (*contracts.PriceTable, error) {
	if len(symbols) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, "prices", "empty universe", nil)
	}

	query := `
		SELECT stock_code, trade_date, COALESCE(adj_close_price, close_price)
		FROM data.daily_prices
		WHERE stock_code = ANY($1) AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC, stock_code ASC
	`

	codes := make([]string, len(symbols))
	for i, s := range symbols {
		codes[i] = s.String()
	}

	rows, err := r.pool.Query(ctx, query, codes, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var points []contracts.PricePoint
	for rows.Next() {
		var (
			code string
			p    contracts.PricePoint
		)
		if err := rows.Scan(&code, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Symbol = contracts.Symbol(code)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(points) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, "prices",
			fmt.Sprintf("no prices between %s and %s", from.Format(contracts.DateLayout), to.Format(contracts.DateLayout)), nil)
	}

	return contracts.PivotPrices(symbols, points)
}
