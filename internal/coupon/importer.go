package coupon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Importer bulk-loads coupon definitions into the store, upserting by code.
type Importer struct {
	loader Loader
	store  Store
	logger zerolog.Logger
}

// NewImporter creates a coupon importer.
func NewImporter(loader Loader, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "coupon-importer").Logger(),
	}
}

// Import loads filePath and upserts every coupon in it. It returns the
// number imported.
func (i *Importer) Import(ctx context.Context, filePath string) (int, error) {
	coupons, err := i.loader.Load(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to load coupon import %s: %w", filePath, err)
	}

	for idx := range coupons {
		c := &coupons[idx]
		if err := i.store.Upsert(ctx, c); err != nil {
			i.logger.Error().Err(err).Str("coupon_code", c.Code).Msg("failed to upsert coupon")
			return idx, fmt.Errorf("failed to import coupon %s: %w", c.Code, err)
		}
	}

	i.logger.Info().
		Str("file", filePath).
		Int("imported", len(coupons)).
		Msg("coupon import completed")

	return len(coupons), nil
}
