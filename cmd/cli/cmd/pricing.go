// Package cmd - pricing management commands
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aws-estimation/db"
	"aws-estimation/internal/config"
)

var seedRegions []string

// pricingCmd groups pricing store management
var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Manage the pricing store",
}

// pricingLoadCmd loads pricing documents into the store
var pricingLoadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Load pricing JSON documents into the pricing store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openPricingStore(ctx, config.Get(), false)
		if err != nil {
			return err
		}
		defer store.Close()

		versions, err := db.ImportDir(ctx, store, args[0])
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Printf("loaded %s (%d entries)\n", v.Key(), v.EntryCount)
		}
		return nil
	},
}

// pricingSeedCmd loads the built-in development pricing set
var pricingSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in development pricing set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg := config.Get()
		store, err := openPricingStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.Close()

		regions := seedRegions
		if len(regions) == 0 {
			regions = []string{cfg.Pricing.DefaultRegion}
		}
		if err := db.Seed(ctx, store, regions...); err != nil {
			return err
		}
		fmt.Printf("seeded development pricing for %s\n", strings.Join(regions, ", "))
		return nil
	},
}

// pricingVersionsCmd lists stored pricing versions
var pricingVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List stored pricing versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openPricingStore(ctx, config.Get(), false)
		if err != nil {
			return err
		}
		defer store.Close()

		versions, err := store.ListVersions(ctx)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("no pricing versions stored")
			return nil
		}
		for _, v := range versions {
			fmt.Printf("%-40s %6d entries  synced %s\n",
				v.Key(), v.EntryCount, v.SyncedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	pricingSeedCmd.Flags().StringSliceVar(&seedRegions, "regions", nil, "regions to seed (default: configured default region)")

	pricingCmd.AddCommand(pricingLoadCmd)
	pricingCmd.AddCommand(pricingSeedCmd)
	pricingCmd.AddCommand(pricingVersionsCmd)
}
