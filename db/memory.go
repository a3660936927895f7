package db

import (
	"context"
	"sort"
	"sync"

	"aws-estimation/core/types"
)

// MemoryStore implements PricingStore in process memory. Used when no
// database DSN is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string][]types.PricingEntry
	versions map[string]types.PricingVersion
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string][]types.PricingEntry),
		versions: make(map[string]types.PricingVersion),
	}
}

func memoryKey(service types.ServiceCode, region string) string {
	return string(service) + "/" + region
}

// SaveEntries replaces the entries for the version's service and region
func (s *MemoryStore) SaveEntries(ctx context.Context, version types.PricingVersion, entries []types.PricingEntry) error {
	copied := make([]types.PricingEntry, len(entries))
	copy(copied, entries)
	version.EntryCount = len(entries)

	s.mu.Lock()
	key := memoryKey(version.ServiceCode, version.Region)
	s.entries[key] = copied
	s.versions[key] = version
	s.mu.Unlock()
	return nil
}

// LoadEntries returns the stored entries and version for a service and
// region
func (s *MemoryStore) LoadEntries(ctx context.Context, service types.ServiceCode, region string) ([]types.PricingEntry, types.PricingVersion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := memoryKey(service, region)
	version, ok := s.versions[key]
	if !ok {
		return nil, types.PricingVersion{}, false, nil
	}
	stored := s.entries[key]
	entries := make([]types.PricingEntry, len(stored))
	copy(entries, stored)
	return entries, version, true, nil
}

// ListVersions returns all version stamps sorted by key
func (s *MemoryStore) ListVersions(ctx context.Context) ([]types.PricingVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]types.PricingVersion, 0, len(s.versions))
	for _, v := range s.versions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Key() < versions[j].Key() })
	return versions, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
