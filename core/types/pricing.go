// Package types - Pricing catalog types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingEntry is one catalog row. Entries are immutable once loaded
// into an index for a given pricing version; the index is rebuilt
// wholesale when the version changes, never mutated entry-by-entry.
type PricingEntry struct {
	// SKU uniquely identifies the entry within its catalog
	SKU string `json:"sku"`

	// ServiceCode is the service family this entry prices
	ServiceCode ServiceCode `json:"service_code"`

	// Region is the cloud region
	Region string `json:"region"`

	// Unit is the billing unit (e.g., "hour", "GB-month", "request")
	Unit string `json:"unit"`

	// PricePerUnit is the non-negative unit price
	PricePerUnit decimal.Decimal `json:"price_per_unit"`

	// Attributes are the filterable pricing dimensions
	// (instance type, tenancy, engine, storage class, ...)
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Field returns the value of a filterable field by name. The built-in
// fields "sku", "region", and "unit" resolve to the corresponding
// struct fields; anything else resolves to the attribute map.
func (e *PricingEntry) Field(name string) (string, bool) {
	switch name {
	case "sku":
		return e.SKU, true
	case "region":
		return e.Region, true
	case "unit":
		return e.Unit, true
	default:
		v, ok := e.Attributes[name]
		return v, ok
	}
}

// PricingVersion identifies a catalog snapshot. Adapter caches are keyed
// by (service_code, version label); a new version forces fresh adapter
// and index instances.
type PricingVersion struct {
	// ServiceCode is the service family covered by this snapshot
	ServiceCode ServiceCode `json:"service_code"`

	// Region is the snapshot's region
	Region string `json:"region"`

	// Version is the snapshot label
	Version string `json:"version"`

	// EntryCount is the number of entries in the snapshot
	EntryCount int `json:"entry_count"`

	// SyncedAt is when the snapshot was ingested
	SyncedAt time.Time `json:"synced_at"`
}

// Key returns the cache key for this version
func (v PricingVersion) Key() string {
	return string(v.ServiceCode) + "/" + v.Region + "@" + v.Version
}
