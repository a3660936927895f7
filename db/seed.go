package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"aws-estimation/core/types"
)

// seedVersion labels the built-in development pricing set
const seedVersion = "seed-1"

// Seed loads the built-in development pricing set for the given
// regions into the store. Intended for local use when no real pricing
// has been ingested.
func Seed(ctx context.Context, store PricingStore, regions ...string) error {
	if len(regions) == 0 {
		regions = []string{"us-east-1"}
	}
	now := time.Now().UTC()

	for _, region := range regions {
		for service, build := range seedBuilders {
			entries := build(region)
			version := types.PricingVersion{
				ServiceCode: service,
				Region:      region,
				Version:     seedVersion,
				EntryCount:  len(entries),
				SyncedAt:    now,
			}
			if err := store.SaveEntries(ctx, version, entries); err != nil {
				return err
			}
		}
	}
	return nil
}

var seedBuilders = map[types.ServiceCode]func(region string) []types.PricingEntry{
	types.ServiceCompute:            seedCompute,
	types.ServiceRelationalDatabase: seedDatabase,
	types.ServiceObjectStorage:      seedObjectStorage,
	types.ServiceBlockStorage:       seedBlockStorage,
	types.ServiceServerlessFunction: seedServerless,
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCompute(region string) []types.PricingEntry {
	instances := []struct {
		instanceType string
		hourly       string
	}{
		{"t3.micro", "0.0104"},
		{"t3.small", "0.0208"},
		{"t3.medium", "0.0416"},
		{"t3.large", "0.0832"},
		{"m5.large", "0.096"},
		{"m5.xlarge", "0.192"},
	}

	entries := make([]types.PricingEntry, 0, len(instances))
	for _, inst := range instances {
		entries = append(entries, types.PricingEntry{
			SKU:          "ec2-" + inst.instanceType,
			ServiceCode:  types.ServiceCompute,
			Region:       region,
			Unit:         "Hrs",
			PricePerUnit: price(inst.hourly),
			Attributes: map[string]string{
				"instanceType":    inst.instanceType,
				"tenancy":         "Shared",
				"operatingSystem": "Linux",
				"preInstalledSw":  "NA",
				"capacitystatus":  "Used",
			},
		})
	}
	return entries
}

func seedDatabase(region string) []types.PricingEntry {
	entries := []types.PricingEntry{}

	instances := []struct {
		class      string
		engine     string
		deployment string
		hourly     string
	}{
		{"db.t3.micro", "mysql", "Single-AZ", "0.017"},
		{"db.t3.micro", "mysql", "Multi-AZ", "0.034"},
		{"db.t3.small", "mysql", "Single-AZ", "0.034"},
		{"db.t3.small", "postgres", "Single-AZ", "0.036"},
		{"db.t3.medium", "postgres", "Single-AZ", "0.072"},
	}
	for _, inst := range instances {
		entries = append(entries, types.PricingEntry{
			SKU:          "rds-" + inst.engine + "-" + inst.class + "-" + inst.deployment,
			ServiceCode:  types.ServiceRelationalDatabase,
			Region:       region,
			Unit:         "Hrs",
			PricePerUnit: price(inst.hourly),
			Attributes: map[string]string{
				"instanceClass":    inst.class,
				"databaseEngine":   inst.engine,
				"deploymentOption": inst.deployment,
			},
		})
	}

	volumes := []struct {
		volumeType string
		monthly    string
	}{
		{"General Purpose", "0.115"},
		{"Provisioned IOPS", "0.125"},
		{"Magnetic", "0.10"},
	}
	for _, vol := range volumes {
		entries = append(entries, types.PricingEntry{
			SKU:          "rds-storage-" + vol.volumeType,
			ServiceCode:  types.ServiceRelationalDatabase,
			Region:       region,
			Unit:         "GB-Mo",
			PricePerUnit: price(vol.monthly),
			Attributes: map[string]string{
				"volumeType":       vol.volumeType,
				"deploymentOption": "Single-AZ",
			},
		})
	}
	return entries
}

func seedObjectStorage(region string) []types.PricingEntry {
	entries := []types.PricingEntry{}

	classes := []struct {
		class   string
		monthly string
	}{
		{"Standard", "0.023"},
		{"Standard - Infrequent Access", "0.0125"},
		{"Intelligent-Tiering", "0.023"},
		{"Archive", "0.004"},
	}
	for _, c := range classes {
		entries = append(entries, types.PricingEntry{
			SKU:          "s3-" + c.class,
			ServiceCode:  types.ServiceObjectStorage,
			Region:       region,
			Unit:         "GB-Mo",
			PricePerUnit: price(c.monthly),
			Attributes:   map[string]string{"storageClass": c.class},
		})
	}

	entries = append(entries, types.PricingEntry{
		SKU:          "s3-requests-tier1",
		ServiceCode:  types.ServiceObjectStorage,
		Region:       region,
		Unit:         "Requests",
		PricePerUnit: price("0.005"),
		Attributes:   map[string]string{"requestType": "Tier1"},
	})
	return entries
}

func seedBlockStorage(region string) []types.PricingEntry {
	entries := []types.PricingEntry{}

	volumes := []struct {
		volumeType string
		monthly    string
	}{
		{"gp2", "0.10"},
		{"gp3", "0.08"},
		{"io1", "0.125"},
		{"io2", "0.125"},
		{"standard", "0.05"},
	}
	for _, vol := range volumes {
		entries = append(entries, types.PricingEntry{
			SKU:          "ebs-" + vol.volumeType,
			ServiceCode:  types.ServiceBlockStorage,
			Region:       region,
			Unit:         "GB-Mo",
			PricePerUnit: price(vol.monthly),
			Attributes: map[string]string{
				"volumeType": vol.volumeType,
				"component":  "storage",
			},
		})
	}

	for _, volumeType := range []string{"io1", "io2"} {
		entries = append(entries, types.PricingEntry{
			SKU:          "ebs-" + volumeType + "-iops",
			ServiceCode:  types.ServiceBlockStorage,
			Region:       region,
			Unit:         "IOPS-Mo",
			PricePerUnit: price("0.065"),
			Attributes: map[string]string{
				"volumeType": volumeType,
				"component":  "iops",
			},
		})
	}
	return entries
}

func seedServerless(region string) []types.PricingEntry {
	return []types.PricingEntry{
		{
			SKU:          "lambda-duration",
			ServiceCode:  types.ServiceServerlessFunction,
			Region:       region,
			Unit:         "GB-Second",
			PricePerUnit: price("0.0000166667"),
			Attributes:   map[string]string{"group": "Lambda-Duration"},
		},
		{
			SKU:          "lambda-requests",
			ServiceCode:  types.ServiceServerlessFunction,
			Region:       region,
			Unit:         "Requests",
			PricePerUnit: price("0.0000002"),
			Attributes:   map[string]string{"group": "Lambda-Requests"},
		},
	}
}
