// Package cmd - pricing store wiring shared by commands
package cmd

import (
	"context"

	"aws-estimation/db"
	"aws-estimation/internal/config"
)

// openPricingStore opens the configured pricing store. With a database
// DSN configured the store is PostgreSQL; without one it is an
// in-memory store, preloaded with the built-in development pricing set
// when seedDev is set.
func openPricingStore(ctx context.Context, cfg *config.Config, seedDev bool, regions ...string) (db.PricingStore, error) {
	if dsn := cfg.Pricing.DatabaseDSN; dsn != "" {
		store, err := db.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}

	store := db.NewMemoryStore()
	if seedDev {
		if len(regions) == 0 {
			regions = []string{cfg.Pricing.DefaultRegion}
		}
		if err := db.Seed(ctx, store, regions...); err != nil {
			return nil, err
		}
	}
	return store, nil
}
