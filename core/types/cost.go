// Package types - Cost result types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostResult is the per-resource costing output. Costing failures never
// abort a batch: they degrade to a zero-cost result whose warnings and
// pricing details describe what went wrong.
type CostResult struct {
	// MonthlyCost is the estimated monthly cost, always >= 0
	MonthlyCost decimal.Decimal `json:"monthly_cost"`

	// PricingDetails describes which entry and inputs were used, or
	// carries an "error" marker when pricing failed
	PricingDetails map[string]interface{} `json:"pricing_details"`

	// Warnings are human-readable, remediation-grade messages
	Warnings []string `json:"warnings"`

	// Resource identity copied through for traceability
	ResourceType string      `json:"resource_type"`
	Name         string      `json:"name"`
	ServiceCode  ServiceCode `json:"service_code"`
	Region       string      `json:"region"`
}

// ZeroCost builds a zero-cost result with the given error detail and warnings
func ZeroCost(errDetail string, warnings ...string) *CostResult {
	return &CostResult{
		MonthlyCost:    decimal.Zero,
		PricingDetails: map[string]interface{}{"error": errDetail},
		Warnings:       warnings,
	}
}

// Estimate aggregates one calculation request. Produced fresh per
// request, never cached across requests.
type Estimate struct {
	// ID uniquely identifies this estimate
	ID string `json:"id"`

	// TotalMonthlyCost is the sum of all per-resource monthly costs
	TotalMonthlyCost decimal.Decimal `json:"total_monthly_cost"`

	// Currency is always USD for the public price lists
	Currency string `json:"currency"`

	// ResourceCount is the number of costed resources
	ResourceCount int `json:"resource_count"`

	// Warnings is the ordered union of all per-resource warnings
	Warnings []string `json:"warnings"`

	// PricingVersions lists the catalog snapshots consulted
	PricingVersions []string `json:"pricing_versions,omitempty"`

	// CreatedAt is when the estimate was produced
	CreatedAt time.Time `json:"created_at"`
}
