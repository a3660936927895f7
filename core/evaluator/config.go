// Package evaluator statically evaluates a parsed configuration tree
// into the complete, ordered list of resource instances.
//
// The evaluator never parses raw syntax: the configuration loader hands
// it resource/module/variable blocks whose attributes are hcl.Expression
// ASTs. Evaluation is fail-fast: any unresolved reference, dynamic
// value, or exceeded expansion limit aborts the whole run with one typed
// error, because a partial expansion silently understates cost.
package evaluator

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Config is one module's configuration tree. The root Config represents
// the root module; nested modules carry their own Config as Body.
type Config struct {
	// Variables are the already-resolved input variable values.
	// At the root these come from tfvars/CLI; inside a module they are
	// the defaults, overridden by the calling block's inputs.
	Variables map[string]cty.Value

	// Locals are the local value expressions
	Locals map[string]hcl.Expression

	// DataSources are pre-resolved data source results, keyed by
	// data source type then name
	DataSources map[string]map[string]cty.Value

	// Providers are provider blocks, keyed by provider name
	Providers map[string]*ProviderBlock

	// Resources are the resource blocks in declaration order
	Resources []*ResourceBlock

	// Modules are the module call blocks in declaration order
	Modules []*ModuleBlock
}

// ResourceBlock is one declared resource prior to expansion
type ResourceBlock struct {
	// Type is the resource type (e.g., "aws_instance")
	Type string

	// Name is the block label
	Name string

	// Condition is an optional boolean guard. A guard that cannot be
	// resolved to a concrete boolean is a fatal error, never defaulted.
	Condition hcl.Expression

	// Count is the optional count meta-argument expression
	Count hcl.Expression

	// ForEach is the optional for_each meta-argument expression
	ForEach hcl.Expression

	// Body maps attribute names to their expressions
	Body map[string]hcl.Expression
}

// Addr returns the block's address within its module
func (b *ResourceBlock) Addr() string {
	return b.Type + "." + b.Name
}

// ModuleBlock is one module call prior to expansion
type ModuleBlock struct {
	// Name is the call label
	Name string

	// Condition is an optional boolean guard
	Condition hcl.Expression

	// Count is the optional count meta-argument expression
	Count hcl.Expression

	// ForEach is the optional for_each meta-argument expression
	ForEach hcl.Expression

	// Inputs are the module input expressions, evaluated in the
	// caller's scope
	Inputs map[string]hcl.Expression

	// Body is the module's own configuration, loaded by the
	// configuration loader
	Body *Config
}

// ProviderBlock carries the provider-level settings the evaluator needs
type ProviderBlock struct {
	// Name is the provider name (e.g., "aws")
	Name string

	// Region is the provider region expression, if declared
	Region hcl.Expression
}
