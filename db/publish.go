package db

import (
	"context"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

// PublishAll builds and publishes a catalog for every (service,
// region) pair present in the store. indexedFields selects the indexed
// attribute fields per service code.
func PublishAll(ctx context.Context, store PricingStore, catalogs *catalog.Store, indexedFields map[string][]string) ([]types.PricingVersion, error) {
	versions, err := store.ListVersions(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]types.PricingVersion, 0, len(versions))
	for _, version := range versions {
		entries, stamped, ok, err := store.LoadEntries(ctx, version.ServiceCode, version.Region)
		if err != nil {
			return published, err
		}
		if !ok {
			continue
		}
		catalogs.Publish(stamped, entries, indexedFields[string(stamped.ServiceCode)])
		published = append(published, stamped)
	}
	return published, nil
}
