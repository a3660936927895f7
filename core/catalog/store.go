// Package catalog - Versioned catalog store
package catalog

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"aws-estimation/core/types"
	"aws-estimation/internal/logging"
)

// Catalog pairs one built index with the pricing version it was built
// from. Immutable after publication.
type Catalog struct {
	Version types.PricingVersion
	Index   *Index
}

// Store holds the published catalog per (service, region). Publishing
// a new version builds the replacement index completely before the
// swap, so in-flight queries never observe a partially built index and
// stale lookups against a replaced version are impossible.
type Store struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
}

// NewStore creates an empty catalog store
func NewStore() *Store {
	return &Store{catalogs: make(map[string]*Catalog)}
}

// Publish builds an index for the entries and atomically installs it
// as the catalog for the version's (service, region) pair
func (s *Store) Publish(version types.PricingVersion, entries []types.PricingEntry, indexedFields []string) *Catalog {
	version.EntryCount = len(entries)
	catalog := &Catalog{
		Version: version,
		Index:   NewIndex(entries, indexedFields),
	}

	s.mu.Lock()
	s.catalogs[catalogKey(version.ServiceCode, version.Region)] = catalog
	s.mu.Unlock()

	logging.Info("pricing catalog published",
		zap.String("service", string(version.ServiceCode)),
		zap.String("region", version.Region),
		zap.String("version", version.Version),
		zap.Int("entries", len(entries)))
	return catalog
}

// Catalog returns the published catalog for a service and region
func (s *Store) Catalog(service types.ServiceCode, region string) (*Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catalogs[catalogKey(service, region)]
	return c, ok
}

// Versions lists every published pricing version, sorted by key
func (s *Store) Versions() []types.PricingVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := make([]types.PricingVersion, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		versions = append(versions, c.Version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Key() < versions[j].Key() })
	return versions
}

func catalogKey(service types.ServiceCode, region string) string {
	return string(service) + "/" + region
}
