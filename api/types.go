package api

import "time"

// EstimateRequest is the POST /estimate request body. Exactly one of
// InlineHCL or Path must be set.
type EstimateRequest struct {
	// InlineHCL is Terraform source to estimate directly
	InlineHCL string `json:"inline_hcl,omitempty"`

	// Path is a local directory containing .tf files
	Path string `json:"path,omitempty"`

	// Variables override root module input variables
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// EstimateResponse is the POST /estimate response body
type EstimateResponse struct {
	EstimateID       string         `json:"estimate_id"`
	TotalMonthlyCost string         `json:"total_monthly_cost"`
	Currency         string         `json:"currency"`
	ResourceCount    int            `json:"resource_count"`
	Resources        []ResourceCost `json:"resources"`
	Warnings         []string       `json:"warnings"`
	PricingVersions  []string       `json:"pricing_versions"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ResourceCost is one resource's line in an estimate
type ResourceCost struct {
	Name         string                 `json:"name"`
	ResourceType string                 `json:"resource_type"`
	ServiceCode  string                 `json:"service_code"`
	Region       string                 `json:"region"`
	MonthlyCost  string                 `json:"monthly_cost"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
}

// PricingVersionInfo is one published pricing version
type PricingVersionInfo struct {
	ServiceCode string    `json:"service_code"`
	Region      string    `json:"region"`
	Version     string    `json:"version"`
	EntryCount  int       `json:"entry_count"`
	SyncedAt    time.Time `json:"synced_at"`
}

// ErrorResponse is the error envelope for all endpoints
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable error type and context
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
