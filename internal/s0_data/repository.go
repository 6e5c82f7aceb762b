package s0_data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/factorpanel/internal/contracts"
)

// Repository reads universe metadata for S0
// 파이프라인은 DB 에 쓰지 않음 (read-only pool)
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// ActiveSymbols returns the normalized symbols of all active stocks
func (r *Repository) ActiveSymbols(ctx context.Context) ([]contracts.Symbol, error) {
	query := `
		SELECT code
		FROM data.stocks
		WHERE status = 'active'
		ORDER BY code
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active stocks: %w", err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		raw = append(raw, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(raw) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageIngestion, "data.stocks", "no active stocks", nil)
	}

	return contracts.NormalizeSymbols(raw)
}

// SectorRepository implements contracts.SectorSource
// ⭐ SSOT: 섹터 라벨 조회는 여기서만
type SectorRepository struct {
	pool *pgxpool.Pool
}

// NewSectorRepository creates a new sector repository
func NewSectorRepository(pool *pgxpool.Pool) *SectorRepository {
	return &SectorRepository{pool: pool}
}

// FetchOne returns the sector label of a symbol; a NULL column is an empty label
func (r *SectorRepository) FetchOne(ctx context.Context, symbol contracts.Symbol) (string, error) {
	query := `
		SELECT sector
		FROM data.stocks
		WHERE code = $1
	`

	var sector *string
	err := r.pool.QueryRow(ctx, query, symbol.String()).Scan(&sector)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", contracts.NewDataUnavailableError(contracts.StageIngestion, symbol.String(), "unknown stock", nil)
	}
	if err != nil {
		return "", fmt.Errorf("query sector %s: %w", symbol, err)
	}
	if sector == nil {
		return "", nil
	}
	return *sector, nil
}
