// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"

	"aws-estimation/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Evaluation contains expression evaluation limits
	Evaluation EvaluationConfig `json:"evaluation"`

	// Pricing contains pricing catalog configuration
	Pricing PricingConfig `json:"pricing"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// EvaluationConfig bounds configuration expansion.
// The limits are enforced, never advisory: exceeding one fails the
// whole evaluation rather than silently truncating.
type EvaluationConfig struct {
	// MaxCountExpansion is the maximum count cardinality per resource
	MaxCountExpansion int `json:"max_count_expansion"`

	// MaxForEachExpansion is the maximum for_each cardinality per resource
	MaxForEachExpansion int `json:"max_for_each_expansion"`

	// MaxModuleDepth is the maximum module nesting depth
	MaxModuleDepth int `json:"max_module_depth"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// DefaultRegion is used when a resource declares no region
	DefaultRegion string `json:"default_region"`

	// DatabaseDSN is the PostgreSQL connection string for the pricing store.
	// Empty means no database; pricing is loaded from files.
	DatabaseDSN string `json:"database_dsn,omitempty"`

	// IndexedFields declares which catalog attribute fields are indexed,
	// per service code. When a service is absent the index falls back to
	// sampling the first entry.
	IndexedFields map[string][]string `json:"indexed_fields,omitempty"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Evaluation: EvaluationConfig{
			MaxCountExpansion:   1000,
			MaxForEachExpansion: 1000,
			MaxModuleDepth:      10,
		},
		Pricing: PricingConfig{
			DefaultRegion: "us-east-1",
			IndexedFields: map[string][]string{
				"compute":             {"instanceType", "tenancy", "operatingSystem"},
				"relational-database": {"instanceClass", "databaseEngine", "deploymentOption", "volumeType"},
				"object-storage":      {"storageClass", "requestType"},
				"block-storage":       {"volumeType", "component"},
				"serverless-function": {"group"},
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, falling back to defaults
// when the file does not exist
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
