package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aws-estimation/core/types"
	"aws-estimation/internal/errors"
)

// PricingDocument is the on-disk JSON shape for one (service, region)
// pricing set
type PricingDocument struct {
	// ServiceCode identifies the canonical service
	ServiceCode string `json:"serviceCode"`

	// Region is the cloud region the prices apply to
	Region string `json:"region"`

	// Version labels this pricing set. Empty versions are stamped
	// with the load time.
	Version string `json:"version"`

	// Entries are the individual price records
	Entries []PricingDocumentEntry `json:"entries"`
}

// PricingDocumentEntry is one price record in a document
type PricingDocumentEntry struct {
	SKU          string            `json:"sku"`
	Unit         string            `json:"unit"`
	PricePerUnit string            `json:"pricePerUnit"`
	Attributes   map[string]string `json:"attributes"`
}

// LoadDocument parses one pricing JSON file into entries and a
// version stamp
func LoadDocument(path string) ([]types.PricingEntry, types.PricingVersion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.PricingVersion{}, errors.Storage(fmt.Sprintf("cannot read pricing file %s", path), err)
	}

	var doc PricingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.PricingVersion{}, errors.Storage(fmt.Sprintf("invalid pricing file %s", path), err)
	}
	if doc.ServiceCode == "" || doc.Region == "" {
		return nil, types.PricingVersion{}, errors.Storage(
			fmt.Sprintf("pricing file %s missing serviceCode or region", path), nil)
	}

	service := types.ServiceCode(doc.ServiceCode)
	version := types.PricingVersion{
		ServiceCode: service,
		Region:      doc.Region,
		Version:     doc.Version,
		EntryCount:  len(doc.Entries),
		SyncedAt:    time.Now().UTC(),
	}
	if version.Version == "" {
		version.Version = version.SyncedAt.Format("20060102T150405Z")
	}

	entries := make([]types.PricingEntry, 0, len(doc.Entries))
	for i, de := range doc.Entries {
		price, err := decimal.NewFromString(strings.TrimSpace(de.PricePerUnit))
		if err != nil {
			return nil, types.PricingVersion{}, errors.Storage(
				fmt.Sprintf("invalid price %q at entry %d in %s", de.PricePerUnit, i, path), err)
		}
		entries = append(entries, types.PricingEntry{
			SKU:          de.SKU,
			ServiceCode:  service,
			Region:       doc.Region,
			Unit:         de.Unit,
			PricePerUnit: price,
			Attributes:   de.Attributes,
		})
	}
	return entries, version, nil
}

// ImportDir loads every .json pricing document in a directory into
// the store. Returns the versions imported, sorted by key.
func ImportDir(ctx context.Context, store PricingStore, dir string) ([]types.PricingVersion, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Storage(fmt.Sprintf("cannot read pricing directory %s", dir), err)
	}

	var versions []types.PricingVersion
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		entries, version, err := LoadDocument(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, err
		}
		if err := store.SaveEntries(ctx, version, entries); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Key() < versions[j].Key() })
	return versions, nil
}
