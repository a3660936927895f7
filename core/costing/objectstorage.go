// Package costing - Object storage adapter
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

// storageClassNames maps Terraform storage classes to pricing dimensions
var storageClassNames = map[string]string{
	"STANDARD":            "Standard",
	"STANDARD_IA":         "Standard - Infrequent Access",
	"ONEZONE_IA":          "One Zone - Infrequent Access",
	"INTELLIGENT_TIERING": "Intelligent-Tiering",
	"GLACIER":             "Archive",
	"DEEP_ARCHIVE":        "Deep Archive",
}

// requestsPerPriceUnit converts per-1000-request rates
var requestsPerPriceUnit = decimal.NewFromInt(1000)

// ObjectStorageAdapter prices object storage buckets from declared
// usage estimates: stored GB-months plus request volume.
type ObjectStorageAdapter struct {
	catalog *catalog.Catalog
}

// NewObjectStorageAdapter creates an object storage adapter over the
// given catalog
func NewObjectStorageAdapter(cat *catalog.Catalog) *ObjectStorageAdapter {
	return &ObjectStorageAdapter{catalog: cat}
}

// ServiceCode returns the object storage service code
func (a *ObjectStorageAdapter) ServiceCode() types.ServiceCode {
	return types.ServiceObjectStorage
}

// CalculateCost prices one bucket
func (a *ObjectStorageAdapter) CalculateCost(resource *types.CanonicalResource) *types.CostResult {
	attrs := resource.Attributes

	class := attrString(attrs, "storage_class", "STANDARD")
	className, ok := storageClassNames[class]
	if !ok {
		className = "Standard"
	}

	warnings := []string{}
	if !hasAttr(attrs, "estimated_storage_gb") {
		warnings = append(warnings, "estimated_storage_gb not declared; assuming 100 GB")
	}
	storageGB := attrDecimal(attrs, "estimated_storage_gb", 100)

	filters := map[string]string{
		"region":       resource.Region,
		"storageClass": className,
	}
	entry := lookup(a.catalog, filters, nil)
	if entry == nil {
		return pricingNotFound(resource.Region, map[string]string{"storageClass": className})
	}

	monthly := entry.PricePerUnit.Mul(storageGB)
	details := map[string]interface{}{
		"sku":                entry.SKU,
		"unit":               entry.Unit,
		"region":             resource.Region,
		"storage_class":      className,
		"storage_gb":         storageGB.String(),
		"price_per_gb_month": entry.PricePerUnit.String(),
	}

	// Request charges are additive and priced per 1000 requests
	requests := attrDecimal(attrs, "estimated_requests", 10000)
	requestEntry := lookup(a.catalog, map[string]string{
		"region":      resource.Region,
		"requestType": "Tier1",
	}, nil)
	if requestEntry != nil {
		requestCost := requestEntry.PricePerUnit.Mul(requests.Div(requestsPerPriceUnit))
		monthly = monthly.Add(requestCost)
		details["request_sku"] = requestEntry.SKU
		details["requests"] = requests.String()
		details["price_per_1000_requests"] = requestEntry.PricePerUnit.String()
	} else {
		warnings = append(warnings, fmt.Sprintf(
			"no request pricing found in %s; request cost omitted", resource.Region))
	}

	return &types.CostResult{
		MonthlyCost:    monthly,
		PricingDetails: details,
		Warnings:       warnings,
	}
}
