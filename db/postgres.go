package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"aws-estimation/core/types"
	"aws-estimation/internal/errors"
)

// PostgresStore implements PricingStore on PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN and
// verifies connectivity
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Storage("cannot open pricing database", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Storage("cannot reach pricing database", err)
	}
	return &PostgresStore{db: conn}, nil
}

// EnsureSchema creates the pricing tables when they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pricing_versions (
			service_code TEXT NOT NULL,
			region       TEXT NOT NULL,
			version      TEXT NOT NULL,
			entry_count  INTEGER NOT NULL,
			synced_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (service_code, region)
		)`,
		`CREATE TABLE IF NOT EXISTS pricing_entries (
			service_code   TEXT NOT NULL,
			region         TEXT NOT NULL,
			sku            TEXT NOT NULL,
			unit           TEXT NOT NULL,
			price_per_unit NUMERIC(24, 10) NOT NULL,
			attributes     JSONB NOT NULL,
			PRIMARY KEY (service_code, region, sku)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Storage("cannot create pricing schema", err)
		}
	}
	return nil
}

// SaveEntries replaces all entries for the version's service and
// region in one transaction
func (s *PostgresStore) SaveEntries(ctx context.Context, version types.PricingVersion, entries []types.PricingEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("cannot begin pricing transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pricing_entries WHERE service_code = $1 AND region = $2`,
		string(version.ServiceCode), version.Region); err != nil {
		return errors.Storage("cannot clear pricing entries", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pricing_entries (service_code, region, sku, unit, price_per_unit, attributes)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return errors.Storage("cannot prepare pricing insert", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		attrs, err := json.Marshal(entry.Attributes)
		if err != nil {
			return errors.Storage(fmt.Sprintf("cannot encode attributes for sku %s", entry.SKU), err)
		}
		if _, err := stmt.ExecContext(ctx,
			string(version.ServiceCode), version.Region,
			entry.SKU, entry.Unit, entry.PricePerUnit.String(), attrs); err != nil {
			return errors.Storage(fmt.Sprintf("cannot insert pricing entry %s", entry.SKU), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pricing_versions (service_code, region, version, entry_count, synced_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (service_code, region)
		 DO UPDATE SET version = $3, entry_count = $4, synced_at = $5`,
		string(version.ServiceCode), version.Region,
		version.Version, len(entries), version.SyncedAt); err != nil {
		return errors.Storage("cannot record pricing version", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("cannot commit pricing transaction", err)
	}
	return nil
}

// LoadEntries reads all entries and the version stamp for a service
// and region
func (s *PostgresStore) LoadEntries(ctx context.Context, service types.ServiceCode, region string) ([]types.PricingEntry, types.PricingVersion, bool, error) {
	var version types.PricingVersion
	version.ServiceCode = service
	version.Region = region

	err := s.db.QueryRowContext(ctx,
		`SELECT version, entry_count, synced_at FROM pricing_versions
		 WHERE service_code = $1 AND region = $2`,
		string(service), region).Scan(&version.Version, &version.EntryCount, &version.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, types.PricingVersion{}, false, nil
	}
	if err != nil {
		return nil, types.PricingVersion{}, false, errors.Storage("cannot read pricing version", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sku, unit, price_per_unit, attributes FROM pricing_entries
		 WHERE service_code = $1 AND region = $2
		 ORDER BY sku`,
		string(service), region)
	if err != nil {
		return nil, types.PricingVersion{}, false, errors.Storage("cannot read pricing entries", err)
	}
	defer rows.Close()

	var entries []types.PricingEntry
	for rows.Next() {
		entry := types.PricingEntry{ServiceCode: service, Region: region}
		var price string
		var attrs []byte
		if err := rows.Scan(&entry.SKU, &entry.Unit, &price, &attrs); err != nil {
			return nil, types.PricingVersion{}, false, errors.Storage("cannot scan pricing entry", err)
		}
		entry.PricePerUnit, err = decimal.NewFromString(price)
		if err != nil {
			return nil, types.PricingVersion{}, false, errors.Storage(fmt.Sprintf("invalid price for sku %s", entry.SKU), err)
		}
		if err := json.Unmarshal(attrs, &entry.Attributes); err != nil {
			return nil, types.PricingVersion{}, false, errors.Storage(fmt.Sprintf("invalid attributes for sku %s", entry.SKU), err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, types.PricingVersion{}, false, errors.Storage("pricing entry iteration failed", err)
	}
	return entries, version, true, nil
}

// ListVersions returns all version stamps ordered by service and
// region
func (s *PostgresStore) ListVersions(ctx context.Context) ([]types.PricingVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT service_code, region, version, entry_count, synced_at
		 FROM pricing_versions ORDER BY service_code, region`)
	if err != nil {
		return nil, errors.Storage("cannot list pricing versions", err)
	}
	defer rows.Close()

	var versions []types.PricingVersion
	for rows.Next() {
		var v types.PricingVersion
		var service string
		if err := rows.Scan(&service, &v.Region, &v.Version, &v.EntryCount, &v.SyncedAt); err != nil {
			return nil, errors.Storage("cannot scan pricing version", err)
		}
		v.ServiceCode = types.ServiceCode(service)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("pricing version iteration failed", err)
	}
	return versions, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
