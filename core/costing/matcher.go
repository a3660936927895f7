// Package costing - Service matcher
package costing

import (
	"go.uber.org/zap"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
	"aws-estimation/internal/logging"
)

// Matcher routes canonical resources to cost adapters. Adapters are
// instantiated lazily and cached per (service code, pricing version);
// a matcher is scoped to one calculation request. A region with no
// published catalog is never cached, so a catalog published later is
// picked up by the next Match.
type Matcher struct {
	store    *catalog.Store
	adapters map[string]Adapter
	versions map[string]types.PricingVersion
}

// NewMatcher creates a matcher over the catalog store
func NewMatcher(store *catalog.Store) *Matcher {
	return &Matcher{
		store:    store,
		adapters: make(map[string]Adapter),
		versions: make(map[string]types.PricingVersion),
	}
}

// Match returns the adapter for a service code and region, or false
// when the service has no adapter
func (m *Matcher) Match(service types.ServiceCode, region string) (Adapter, bool) {
	if !service.IsSupported() {
		return nil, false
	}

	cat, ok := m.store.Catalog(service, region)
	if !ok {
		logging.Warn("no pricing catalog published for service",
			zap.String("service", string(service)),
			zap.String("region", region))
		adapter := newAdapter(service, nil)
		if adapter == nil {
			return nil, false
		}
		return adapter, true
	}

	cacheKey := string(service) + "/" + region + "@" + cat.Version.Version
	if adapter, cached := m.adapters[cacheKey]; cached {
		return adapter, true
	}

	adapter := newAdapter(service, cat)
	if adapter == nil {
		return nil, false
	}
	m.adapters[cacheKey] = adapter
	m.versions[cat.Version.Key()] = cat.Version
	return adapter, true
}

// Versions returns the pricing versions consulted so far, keyed by
// version key
func (m *Matcher) Versions() map[string]types.PricingVersion {
	return m.versions
}

// newAdapter is the static service-code to adapter table
func newAdapter(service types.ServiceCode, cat *catalog.Catalog) Adapter {
	switch service {
	case types.ServiceCompute:
		return NewComputeAdapter(cat)
	case types.ServiceRelationalDatabase:
		return NewDatabaseAdapter(cat)
	case types.ServiceObjectStorage:
		return NewObjectStorageAdapter(cat)
	case types.ServiceBlockStorage:
		return NewBlockStorageAdapter(cat)
	case types.ServiceServerlessFunction:
		return NewServerlessAdapter(cat)
	default:
		return nil
	}
}
