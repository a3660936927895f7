// Package costing computes monthly costs for canonical resources.
//
// Costing is the recoverable half of the pipeline: a missing attribute,
// a catalog miss, or an adapter panic degrades to a zero-cost result
// with a warning, never a fatal error, so one unpriceable resource
// cannot block estimating the rest of the infrastructure.
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

// hoursPerMonth is the billing convention for converting hourly rates
var hoursPerMonth = decimal.NewFromInt(730)

// Adapter encodes one service family's pricing formula
type Adapter interface {
	// ServiceCode returns the family this adapter prices
	ServiceCode() types.ServiceCode

	// CalculateCost maps a resource's attributes, plus catalog
	// lookups, to a monthly cost breakdown. Never returns an error:
	// failures degrade to zero-cost results with warnings.
	CalculateCost(resource *types.CanonicalResource) *types.CostResult
}

// lookup probes the catalog with the full filter set, then retries once
// with the optional dimensions dropped before giving up
func lookup(cat *catalog.Catalog, filters map[string]string, optional []string) *types.PricingEntry {
	if cat == nil {
		return nil
	}
	if entry := cat.Index.FindOne(filters); entry != nil {
		return entry
	}
	if len(optional) == 0 {
		return nil
	}
	relaxed := make(map[string]string, len(filters))
	for k, v := range filters {
		relaxed[k] = v
	}
	for _, k := range optional {
		delete(relaxed, k)
	}
	return cat.Index.FindOne(relaxed)
}

// missingAttribute builds the uniform zero-cost result for a missing
// required attribute
func missingAttribute(attr string) *types.CostResult {
	return types.ZeroCost(
		"missing "+attr,
		fmt.Sprintf("missing required attribute %q; cost set to 0", attr),
	)
}

// pricingNotFound builds the uniform zero-cost result for a catalog
// miss, naming the identifying attributes and region
func pricingNotFound(region string, filters map[string]string) *types.CostResult {
	return types.ZeroCost(
		"pricing not found",
		fmt.Sprintf("no pricing found in %s for %v", region, filters),
	)
}

// attrString reads a string attribute, with a default
func attrString(attrs map[string]interface{}, key, def string) string {
	if v, ok := attrs[key].(string); ok && v != "" {
		return v
	}
	return def
}

// attrBool reads a boolean attribute
func attrBool(attrs map[string]interface{}, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}

// attrDecimal reads a numeric attribute as a decimal, with a default
func attrDecimal(attrs map[string]interface{}, key string, def int64) decimal.Decimal {
	switch v := attrs[key].(type) {
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case float64:
		return decimal.NewFromFloat(v)
	default:
		return decimal.NewFromInt(def)
	}
}

// hasAttr reports whether the attribute is present and non-nil
func hasAttr(attrs map[string]interface{}, key string) bool {
	v, ok := attrs[key]
	return ok && v != nil
}
