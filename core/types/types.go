// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import "fmt"

// ServiceCode identifies a priced cloud service family
type ServiceCode string

const (
	ServiceCompute            ServiceCode = "compute"
	ServiceRelationalDatabase ServiceCode = "relational-database"
	ServiceObjectStorage      ServiceCode = "object-storage"
	ServiceBlockStorage       ServiceCode = "block-storage"
	ServiceServerlessFunction ServiceCode = "serverless-function"
	ServiceUnsupported        ServiceCode = "unsupported"
)

// String returns the string representation of the service code
func (s ServiceCode) String() string {
	return string(s)
}

// IsSupported reports whether the service code maps to a cost adapter
func (s ServiceCode) IsSupported() bool {
	switch s {
	case ServiceCompute, ServiceRelationalDatabase, ServiceObjectStorage,
		ServiceBlockStorage, ServiceServerlessFunction:
		return true
	default:
		return false
	}
}

// InstanceKey is the index or key an instance received during expansion.
// Exactly one of Int/Str is meaningful, selected by Kind; singleton
// resources carry no key at all.
type InstanceKey struct {
	Kind KeyKind `json:"kind"`
	Int  int     `json:"int,omitempty"`
	Str  string  `json:"str,omitempty"`
}

// KeyKind indicates the type of instance key
type KeyKind int

const (
	KeyNone   KeyKind = iota // singleton resource, no count/for_each
	KeyInt                   // count index
	KeyString                // for_each key
)

// NoKey returns the key for a singleton resource
func NoKey() InstanceKey { return InstanceKey{Kind: KeyNone} }

// IntKey returns a count-index key
func IntKey(i int) InstanceKey { return InstanceKey{Kind: KeyInt, Int: i} }

// StringKey returns a for_each key
func StringKey(s string) InstanceKey { return InstanceKey{Kind: KeyString, Str: s} }

// String returns the key as an address suffix
func (k InstanceKey) String() string {
	switch k.Kind {
	case KeyInt:
		return fmt.Sprintf("[%d]", k.Int)
	case KeyString:
		return fmt.Sprintf("[%q]", k.Str)
	default:
		return ""
	}
}

// ResourceInstance is one fully-resolved occurrence of a declared
// resource after count/for_each/module expansion.
//
// Invariant: every attribute value is a concrete scalar or collection.
// The evaluator fails instead of instantiating a record that would
// carry an unresolved reference or dynamic placeholder.
type ResourceInstance struct {
	// ResourceType is the declared type (e.g., "aws_instance")
	ResourceType string `json:"resource_type"`

	// DeclaredName is the block label (e.g., "web")
	DeclaredName string `json:"declared_name"`

	// Key is the expansion index or key
	Key InstanceKey `json:"instance_key"`

	// Attributes maps attribute names to fully resolved values
	Attributes map[string]interface{} `json:"attributes"`

	// ModulePath is the ordered module names from root, empty at root
	ModulePath []string `json:"module_path,omitempty"`

	// ProviderRegion is the module-level provider region in effect when
	// the instance was evaluated, empty if no provider declared one
	ProviderRegion string `json:"provider_region,omitempty"`
}

// Address returns the full instance address including module path and key
func (r *ResourceInstance) Address() string {
	addr := ""
	for _, m := range r.ModulePath {
		addr += "module." + m + "."
	}
	return addr + r.ResourceType + "." + r.DeclaredName + r.Key.String()
}

// CanonicalResource is the normalized, service-tagged form consumed by
// matching and costing. Derived per pipeline pass, never persisted.
type CanonicalResource struct {
	// ServiceCode routes the resource to a cost adapter
	ServiceCode ServiceCode `json:"service_code"`

	// Region is the resolved cloud region
	Region string `json:"region"`

	// ResourceType is the declared resource type
	ResourceType string `json:"resource_type"`

	// Name is the full instance address
	Name string `json:"name"`

	// Attributes is a flat map; nested structures are flattened to
	// dotted keys by the normalizer
	Attributes map[string]interface{} `json:"attributes"`
}
