package cmd

import (
	"context"
	"testing"

	"aws-estimation/internal/config"
)

func TestOpenPricingStoreSeeding(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	t.Run("seeds the development set when requested", func(t *testing.T) {
		store, err := openPricingStore(ctx, cfg, true)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer store.Close()

		versions, err := store.ListVersions(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		// One version per seeded service in the default region
		if len(versions) != 5 {
			t.Errorf("expected 5 seeded versions, got %d", len(versions))
		}
	})

	t.Run("opens empty when seeding is deferred to the caller", func(t *testing.T) {
		store, err := openPricingStore(ctx, cfg, false)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer store.Close()

		versions, err := store.ListVersions(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(versions) != 0 {
			t.Errorf("expected an unseeded store, got %d versions", len(versions))
		}
	})
}
