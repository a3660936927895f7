// Package costing - Serverless function adapter
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
)

var (
	mbPerGB    = decimal.NewFromInt(1024)
	msPerSec   = decimal.NewFromInt(1000)
	defaultMem = int64(128)
)

// ServerlessAdapter prices serverless functions from declared usage
// estimates: per-invocation request charges plus GB-seconds of compute.
type ServerlessAdapter struct {
	catalog *catalog.Catalog
}

// NewServerlessAdapter creates a serverless adapter over the given
// catalog
func NewServerlessAdapter(cat *catalog.Catalog) *ServerlessAdapter {
	return &ServerlessAdapter{catalog: cat}
}

// ServiceCode returns the serverless function service code
func (a *ServerlessAdapter) ServiceCode() types.ServiceCode {
	return types.ServiceServerlessFunction
}

// CalculateCost prices one function
func (a *ServerlessAdapter) CalculateCost(resource *types.CanonicalResource) *types.CostResult {
	attrs := resource.Attributes

	warnings := []string{}
	if !hasAttr(attrs, "estimated_invocations") {
		warnings = append(warnings, "estimated_invocations not declared; assuming 100000 per month")
	}
	invocations := attrDecimal(attrs, "estimated_invocations", 100000)
	durationMS := attrDecimal(attrs, "estimated_duration_ms", 1000)
	memoryMB := attrDecimal(attrs, "memory_size", defaultMem)

	// GB-seconds = memory in GB * duration in seconds * invocations
	gbSeconds := memoryMB.Div(mbPerGB).
		Mul(durationMS.Div(msPerSec)).
		Mul(invocations)

	durationEntry := lookup(a.catalog, map[string]string{
		"region": resource.Region,
		"group":  "Lambda-Duration",
	}, nil)
	requestEntry := lookup(a.catalog, map[string]string{
		"region": resource.Region,
		"group":  "Lambda-Requests",
	}, nil)
	if durationEntry == nil && requestEntry == nil {
		return pricingNotFound(resource.Region, map[string]string{
			"group": "Lambda-Duration, Lambda-Requests",
		})
	}

	monthly := decimal.Zero
	details := map[string]interface{}{
		"region":      resource.Region,
		"memory_mb":   memoryMB.String(),
		"duration_ms": durationMS.String(),
		"invocations": invocations.String(),
		"gb_seconds":  gbSeconds.String(),
	}

	if durationEntry != nil {
		monthly = monthly.Add(durationEntry.PricePerUnit.Mul(gbSeconds))
		details["sku"] = durationEntry.SKU
		details["unit"] = durationEntry.Unit
		details["price_per_gb_second"] = durationEntry.PricePerUnit.String()
	} else {
		warnings = append(warnings, fmt.Sprintf(
			"no duration pricing found in %s; compute cost omitted", resource.Region))
	}
	if requestEntry != nil {
		monthly = monthly.Add(requestEntry.PricePerUnit.Mul(invocations))
		details["request_sku"] = requestEntry.SKU
		details["price_per_request"] = requestEntry.PricePerUnit.String()
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
