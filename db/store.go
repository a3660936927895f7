// Package db persists pricing data.
// Strictly separated from estimation: load → publish → query in-memory
package db

import (
	"context"

	"aws-estimation/core/types"
)

// PricingStore persists pricing entries and their version stamps.
// Implementations are the durable side of the catalog: the estimation
// path never reads from a store directly, it queries catalogs
// published from one.
type PricingStore interface {
	// SaveEntries replaces the stored entries for the version's
	// (service, region) pair
	SaveEntries(ctx context.Context, version types.PricingVersion, entries []types.PricingEntry) error

	// LoadEntries returns the stored entries and version for a
	// service and region. A missing pair returns ok=false, not an
	// error.
	LoadEntries(ctx context.Context, service types.ServiceCode, region string) ([]types.PricingEntry, types.PricingVersion, bool, error)

	// ListVersions returns every stored version stamp
	ListVersions(ctx context.Context) ([]types.PricingVersion, error)

	// Close releases store resources
	Close() error
}
