// Package catalog provides the in-memory pricing catalog index.
//
// An index is built once per pricing version and read-only thereafter;
// concurrent queries need no locking. Version changes swap in a fully
// built replacement (build-then-publish), never mutate in place.
package catalog

import (
	"sort"

	"aws-estimation/core/types"
)

// maxQueryResults bounds the linear-scan phase on pathological queries
const maxQueryResults = 100

// neverIndexed lists free-text fields that would not narrow a scan
var neverIndexed = map[string]bool{
	"description": true,
	"usageType":   true,
	"operation":   true,
}

// Index answers filtered queries over a flat list of pricing entries.
// It builds one single-field index per indexed field and seeds each
// query from the most selective one.
type Index struct {
	entries []types.PricingEntry

	// indexed maps field name -> field value -> entry positions
	indexed map[string]map[string][]int

	fields []string
}

// NewIndex builds an index over the entries. The region field is always
// indexed; indexedFields declares the additional attribute fields.
// When no fields are declared, the attribute fields present with
// non-empty values on the first entry are indexed instead, skipping
// free-text fields.
func NewIndex(entries []types.PricingEntry, indexedFields []string) *Index {
	fields := []string{"region"}
	if len(indexedFields) > 0 {
		for _, f := range indexedFields {
			if f != "region" && !neverIndexed[f] {
				fields = append(fields, f)
			}
		}
	} else if len(entries) > 0 {
		sampled := make([]string, 0, len(entries[0].Attributes))
		for f, v := range entries[0].Attributes {
			if v != "" && !neverIndexed[f] {
				sampled = append(sampled, f)
			}
		}
		sort.Strings(sampled)
		fields = append(fields, sampled...)
	}

	ix := &Index{
		entries: entries,
		indexed: make(map[string]map[string][]int, len(fields)),
		fields:  fields,
	}
	for _, field := range fields {
		byValue := make(map[string][]int)
		for i := range entries {
			value, ok := entries[i].Field(field)
			if !ok || value == "" {
				continue
			}
			byValue[value] = append(byValue[value], i)
		}
		ix.indexed[field] = byValue
	}
	return ix
}

// Len returns the number of entries in the index
func (ix *Index) Len() int {
	return len(ix.entries)
}

// IndexedFields returns the fields this index can probe
func (ix *Index) IndexedFields() []string {
	out := make([]string, len(ix.fields))
	copy(out, ix.fields)
	return out
}

// Query returns the entries matching every filter, capped at 100
// matches.
//
// Two phases: probe every indexed filter key and seed the scan from
// the smallest non-empty candidate set (tie-break: lexically smallest
// filter key); an indexed key whose value is absent from the index
// short-circuits to no matches. Remaining filters are applied by
// string equality over the seed set.
func (ix *Index) Query(filters map[string]string) []*types.PricingEntry {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seedKey := ""
	var seed []int
	for _, key := range keys {
		byValue, hasIndex := ix.indexed[key]
		if !hasIndex {
			continue
		}
		candidates := byValue[filters[key]]
		if len(candidates) == 0 {
			// An indexed field with a known-absent value cannot be
			// satisfied by any entry
			return nil
		}
		if seedKey == "" || len(candidates) < len(seed) {
			seedKey = key
			seed = candidates
		}
	}

	if seedKey == "" {
		seed = make([]int, len(ix.entries))
		for i := range ix.entries {
			seed[i] = i
		}
	}

	var matches []*types.PricingEntry
	for _, i := range seed {
		entry := &ix.entries[i]
		if entryMatches(entry, filters, seedKey) {
			matches = append(matches, entry)
			if len(matches) >= maxQueryResults {
				break
			}
		}
	}
	return matches
}

// FindOne returns the first entry matching the filters, or nil
func (ix *Index) FindOne(filters map[string]string) *types.PricingEntry {
	matches := ix.Query(filters)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func entryMatches(entry *types.PricingEntry, filters map[string]string, skip string) bool {
	for key, want := range filters {
		if key == skip {
			continue
		}
		got, ok := entry.Field(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}
