// Package costing - Block storage volume adapter
package costing

import (
	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

// iopsVolumeTypes are volume types billed for provisioned IOPS
var iopsVolumeTypes = map[string]bool{
	"io1": true,
	"io2": true,
}

// BlockStorageAdapter prices block storage volumes per provisioned
// GB-month, plus provisioned IOPS where the volume type bills them.
type BlockStorageAdapter struct {
	catalog *catalog.Catalog
}

// NewBlockStorageAdapter creates a block storage adapter over the given
// catalog
func NewBlockStorageAdapter(cat *catalog.Catalog) *BlockStorageAdapter {
	return &BlockStorageAdapter{catalog: cat}
}

// ServiceCode returns the block storage service code
func (a *BlockStorageAdapter) ServiceCode() types.ServiceCode {
	return types.ServiceBlockStorage
}

// CalculateCost prices one volume
func (a *BlockStorageAdapter) CalculateCost(resource *types.CanonicalResource) *types.CostResult {
	attrs := resource.Attributes

	if !hasAttr(attrs, "size") {
		return missingAttribute("size")
	}
	sizeGB := attrDecimal(attrs, "size", 0)
	volumeType := attrString(attrs, "type", "gp2")

	filters := map[string]string{
		"region":     resource.Region,
		"volumeType": volumeType,
		"component":  "storage",
	}
	entry := lookup(a.catalog, filters, []string{"component"})
	if entry == nil {
		return pricingNotFound(resource.Region, map[string]string{"volumeType": volumeType})
	}

	monthly := entry.PricePerUnit.Mul(sizeGB)
	details := map[string]interface{}{
		"sku":                entry.SKU,
		"unit":               entry.Unit,
		"region":             resource.Region,
		"volume_type":        volumeType,
		"size_gb":            sizeGB.String(),
		"price_per_gb_month": entry.PricePerUnit.String(),
	}
	warnings := []string{}

	if iopsVolumeTypes[volumeType] {
		iops := attrDecimal(attrs, "iops", 0)
		if iops.IsPositive() {
			iopsEntry := lookup(a.catalog, map[string]string{
				"region":     resource.Region,
				"volumeType": volumeType,
				"component":  "iops",
			}, nil)
			if iopsEntry != nil {
				monthly = monthly.Add(iopsEntry.PricePerUnit.Mul(iops))
				details["iops_sku"] = iopsEntry.SKU
				details["iops"] = iops.String()
				details["price_per_iops_month"] = iopsEntry.PricePerUnit.String()
			} else {
				warnings = append(warnings,
					"no provisioned IOPS pricing found for volume type "+volumeType+"; IOPS cost omitted")
			}
		}
	}

	return &types.CostResult{
		MonthlyCost:    monthly,
		PricingDetails: details,
		Warnings:       warnings,
	}
}
