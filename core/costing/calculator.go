// Package costing - Batch cost calculator
package costing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
	"aws-estimation/internal/logging"
)

// Calculator orchestrates matching and adapters across a batch of
// canonical resources. Per-resource calculations are isolated: one
// resource's failure never affects another's result or prevents the
// batch from completing.
type Calculator struct {
	store *catalog.Store
}

// NewCalculator creates a calculator over the catalog store
func NewCalculator(store *catalog.Store) *Calculator {
	return &Calculator{store: store}
}

// CalculateAll produces one cost result per resource in input order,
// plus the aggregate estimate. The estimate is built fresh per call
// and never cached.
func (c *Calculator) CalculateAll(resources []*types.CanonicalResource) ([]*types.CostResult, *types.Estimate) {
	matcher := NewMatcher(c.store)

	results := make([]*types.CostResult, len(resources))
	total := decimal.Zero
	var allWarnings []string

	for i, resource := range resources {
		result := c.calculateOne(matcher, resource)

		// Copy identity through for traceability
		result.ResourceType = resource.ResourceType
		result.Name = resource.Name
		result.ServiceCode = resource.ServiceCode
		result.Region = resource.Region

		results[i] = result
		total = total.Add(result.MonthlyCost)
		allWarnings = append(allWarnings, result.Warnings...)
	}

	versionKeys := make([]string, 0, len(matcher.Versions()))
	for key := range matcher.Versions() {
		versionKeys = append(versionKeys, key)
	}
	sort.Strings(versionKeys)

	estimate := &types.Estimate{
		ID:               uuid.NewString(),
		TotalMonthlyCost: total,
		Currency:         "USD",
		ResourceCount:    len(resources),
		Warnings:         allWarnings,
		PricingVersions:  versionKeys,
		CreatedAt:        time.Now().UTC(),
	}

	logging.Info("cost calculation complete",
		zap.Int("resources", len(resources)),
		zap.String("total_monthly_cost", total.String()),
		zap.Int("warnings", len(allWarnings)))
	return results, estimate
}

// calculateOne prices a single resource, converting adapter panics
// into zero-cost results at the adapter boundary
func (c *Calculator) calculateOne(matcher *Matcher, resource *types.CanonicalResource) (result *types.CostResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("adapter panic recovered",
				zap.String("resource", resource.Name),
				zap.Any("panic", r))
			result = types.ZeroCost(
				fmt.Sprintf("%v", r),
				fmt.Sprintf("calculation error for %s: %v", resource.Name, r),
			)
		}
	}()

	adapter, ok := matcher.Match(resource.ServiceCode, resource.Region)
	if !ok {
		return types.ZeroCost(
			"no adapter available",
			fmt.Sprintf("unsupported service for resource type %q; cost set to 0", resource.ResourceType),
		)
	}
	return adapter.CalculateCost(resource)
}
