package s0_data

import (
	"context"
	"errors"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/logger"
)

// FallbackSectorSource asks each source in order and returns the first non-blank label.
// 모든 소스가 빈 라벨이면 "" (null 라벨), 모든 소스가 실패하면 에러
type FallbackSectorSource struct {
	sources []contracts.SectorSource
	logger  *logger.Logger
}

// NewFallbackSectorSource creates a sector source chain
func NewFallbackSectorSource(log *logger.Logger, sources ...contracts.SectorSource) *FallbackSectorSource {
	return &FallbackSectorSource{sources: sources, logger: log}
}

// FetchOne implements contracts.SectorSource
func (s *FallbackSectorSource) FetchOne(ctx context.Context, symbol contracts.Symbol) (string, error) {
	var errs []error
	for i, src := range s.sources {
		label, err := src.FetchOne(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol": symbol.String(),
				"source": i,
			}).Debug("Sector source failed, trying next")
			errs = append(errs, err)
			continue
		}
		if label != "" {
			return label, nil
		}
	}
	if len(errs) == len(s.sources) && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", nil
}
