// Package main - Entry point for the aws-estimation API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"aws-estimation/api"
	"aws-estimation/core/catalog"
	"aws-estimation/core/engine"
	"aws-estimation/db"
	"aws-estimation/internal/config"
	"aws-estimation/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgFile := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	pricingDir := flag.String("pricing-dir", "", "directory of pricing JSON documents to load at startup")
	flag.Parse()

	if err := run(*cfgFile, *addr, *pricingDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgFile, addr, pricingDir string) error {
	ctx := context.Background()

	cfg := config.Get()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		config.Set(loaded)
		cfg = loaded
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if pricingDir != "" {
		if _, err := db.ImportDir(ctx, store, pricingDir); err != nil {
			return err
		}
	}

	catalogs := catalog.NewStore()
	if _, err := db.PublishAll(ctx, store, catalogs, cfg.Pricing.IndexedFields); err != nil {
		return err
	}

	server := api.NewServer(engine.New(cfg, catalogs), catalogs, version)
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return server.ListenAndServe(addr)
}

// openStore opens PostgreSQL when a DSN is configured, otherwise an
// in-memory store seeded with the development pricing set
func openStore(ctx context.Context, cfg *config.Config) (db.PricingStore, error) {
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
	if err := db.Seed(ctx, store, cfg.Pricing.DefaultRegion); err != nil {
		return nil, err
	}
	return store, nil
}
