// Package costing - Managed relational database adapter
package costing

import (
	"fmt"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

// storageVolumeNames maps Terraform storage types to pricing volume names
var storageVolumeNames = map[string]string{
	"gp2":      "General Purpose",
	"gp3":      "General Purpose",
	"io1":      "Provisioned IOPS",
	"io2":      "Provisioned IOPS",
	"standard": "Magnetic",
}

// DatabaseAdapter prices managed relational databases: the instance's
// hourly rate plus allocated storage per GB-month.
type DatabaseAdapter struct {
	catalog *catalog.Catalog
}

// NewDatabaseAdapter creates a database adapter over the given catalog
func NewDatabaseAdapter(cat *catalog.Catalog) *DatabaseAdapter {
	return &DatabaseAdapter{catalog: cat}
}

// ServiceCode returns the relational database service code
func (a *DatabaseAdapter) ServiceCode() types.ServiceCode {
	return types.ServiceRelationalDatabase
}

// CalculateCost prices one database instance
func (a *DatabaseAdapter) CalculateCost(resource *types.CanonicalResource) *types.CostResult {
	attrs := resource.Attributes

	instanceClass := attrString(attrs, "instance_class", "")
	if instanceClass == "" {
		return missingAttribute("instance_class")
	}

	engine := attrString(attrs, "engine", "mysql")
	deployment := "Single-AZ"
	if attrBool(attrs, "multi_az") {
		deployment = "Multi-AZ"
	}

	filters := map[string]string{
		"region":           resource.Region,
		"instanceClass":    instanceClass,
		"databaseEngine":   engine,
		"deploymentOption": deployment,
	}
	entry := lookup(a.catalog, filters, []string{"deploymentOption"})
	if entry == nil {
		return pricingNotFound(resource.Region, map[string]string{
			"instanceClass":  instanceClass,
			"databaseEngine": engine,
		})
	}

	monthly := entry.PricePerUnit.Mul(hoursPerMonth)
	details := map[string]interface{}{
		"sku":             entry.SKU,
		"unit":            entry.Unit,
		"region":          resource.Region,
		"instance_class":  instanceClass,
		"engine":          engine,
		"deployment":      deployment,
		"price_per_hour":  entry.PricePerUnit.String(),
		"hours_per_month": hoursPerMonth.String(),
	}
	warnings := []string{}

	// Allocated storage is billed per GB-month on top of the instance
	storageGB := attrDecimal(attrs, "allocated_storage", 20)
	storageType := attrString(attrs, "storage_type", "gp2")
	volumeName, ok := storageVolumeNames[storageType]
	if !ok {
		volumeName = "General Purpose"
	}
	storageEntry := lookup(a.catalog, map[string]string{
		"region":           resource.Region,
		"volumeType":       volumeName,
		"deploymentOption": deployment,
	}, []string{"deploymentOption"})
	if storageEntry != nil {
		storageCost := storageEntry.PricePerUnit.Mul(storageGB)
		monthly = monthly.Add(storageCost)
		details["storage_sku"] = storageEntry.SKU
		details["storage_gb"] = storageGB.String()
		details["storage_price_per_gb_month"] = storageEntry.PricePerUnit.String()
	} else {
		warnings = append(warnings, fmt.Sprintf(
			"no storage pricing found in %s for volume type %q; storage cost omitted",
			resource.Region, volumeName))
	}

	return &types.CostResult{
		MonthlyCost:    monthly,
		PricingDetails: details,
		Warnings:       warnings,
	}
}
