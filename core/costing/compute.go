// Package costing - Compute instance adapter
package costing

import (
	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

// tenancyNames maps Terraform tenancy values to pricing dimensions
var tenancyNames = map[string]string{
	"default":   "Shared",
	"dedicated": "Dedicated",
	"host":      "Host",
}

// ComputeAdapter prices compute instances: hourly instance rate times
// hours in a month.
type ComputeAdapter struct {
	catalog *catalog.Catalog
}

// NewComputeAdapter creates a compute adapter over the given catalog
func NewComputeAdapter(cat *catalog.Catalog) *ComputeAdapter {
	return &ComputeAdapter{catalog: cat}
}

// ServiceCode returns the compute service code
func (a *ComputeAdapter) ServiceCode() types.ServiceCode {
	return types.ServiceCompute
}

// CalculateCost prices one compute instance
func (a *ComputeAdapter) CalculateCost(resource *types.CanonicalResource) *types.CostResult {
	attrs := resource.Attributes

	instanceType := attrString(attrs, "instance_type", "")
	if instanceType == "" {
		return missingAttribute("instance_type")
	}

	tenancy, ok := tenancyNames[attrString(attrs, "tenancy", "default")]
	if !ok {
		tenancy = "Shared"
	}
	operatingSystem := attrString(attrs, "operating_system", "Linux")

	filters := map[string]string{
		"region":          resource.Region,
		"instanceType":    instanceType,
		"tenancy":         tenancy,
		"operatingSystem": operatingSystem,
		"preInstalledSw":  "NA",
		"capacitystatus":  "Used",
	}
	entry := lookup(a.catalog, filters, []string{"preInstalledSw", "capacitystatus"})
	if entry == nil {
		return pricingNotFound(resource.Region, map[string]string{
			"instanceType":    instanceType,
			"tenancy":         tenancy,
			"operatingSystem": operatingSystem,
		})
	}

	monthly := entry.PricePerUnit.Mul(hoursPerMonth)
	return &types.CostResult{
		MonthlyCost: monthly,
		PricingDetails: map[string]interface{}{
			"sku":              entry.SKU,
			"unit":             entry.Unit,
			"region":           resource.Region,
			"instance_type":    instanceType,
			"tenancy":          tenancy,
			"operating_system": operatingSystem,
			"price_per_hour":   entry.PricePerUnit.String(),
			"hours_per_month":  hoursPerMonth.String(),
		},
		Warnings: []string{},
	}
}
