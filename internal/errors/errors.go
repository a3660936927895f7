// Package errors provides typed domain errors for the estimation pipeline.
//
// Two regimes exist here: evaluation errors are fatal for the whole run
// (an incomplete expansion silently undercounts billable resources), while
// costing problems degrade to zero-cost results with warnings and never
// flow through this package's evaluation types.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeUnresolvedReference indicates a reference to an undeclared value
	TypeUnresolvedReference Type = "UNRESOLVED_REFERENCE"

	// TypeInvalidExpression indicates a malformed or unevaluable expression
	TypeInvalidExpression Type = "INVALID_EXPRESSION"

	// TypeExpansionLimit indicates count/for_each exceeded the configured limit
	TypeExpansionLimit Type = "EXPANSION_LIMIT_EXCEEDED"

	// TypeDynamicValue indicates a value only known after provisioning
	TypeDynamicValue Type = "DYNAMIC_VALUE"

	// TypeUnresolvableConditional indicates a guard without a concrete boolean value
	TypeUnresolvableConditional Type = "UNRESOLVABLE_CONDITIONAL"

	// TypeModuleExpansion indicates a module body failed to expand
	TypeModuleExpansion Type = "MODULE_EXPANSION_FAILED"

	// TypeReferenceCycle indicates a cycle in the resource reference graph
	TypeReferenceCycle Type = "REFERENCE_CYCLE"

	// TypeParsing indicates a configuration parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeStorage indicates a pricing storage error
	TypeStorage Type = "STORAGE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// UnresolvedReference creates an unresolved reference error
func UnresolvedReference(reference, context string) *Error {
	if context == "" {
		return Newf(TypeUnresolvedReference, "unresolved reference: %s", reference)
	}
	return Newf(TypeUnresolvedReference, "unresolved reference: %s in %s", reference, context)
}

// InvalidExpression creates an invalid expression error
func InvalidExpression(context, reason string) *Error {
	return Newf(TypeInvalidExpression, "invalid expression in %s: %s", context, reason)
}

// ExpansionLimit creates an expansion limit error naming the resource,
// the requested cardinality, and the configured limit
func ExpansionLimit(resource string, requested, limit int) *Error {
	e := Newf(TypeExpansionLimit, "resource %q expansion count %d exceeds limit %d", resource, requested, limit)
	return e.WithContext("resource", resource).
		WithContext("requested", requested).
		WithContext("limit", limit)
}

// DynamicValue creates an unresolvable dynamic value error
func DynamicValue(context string) *Error {
	return Newf(TypeDynamicValue, "value in %s is only known after provisioning and cannot be resolved statically", context)
}

// UnresolvableConditional creates an unresolvable conditional error
func UnresolvableConditional(context, reason string) *Error {
	return Newf(TypeUnresolvableConditional, "cannot evaluate conditional in %s: %s", context, reason)
}

// ModuleExpansion wraps a nested failure with the module name
func ModuleExpansion(module string, cause error) *Error {
	e := Wrap(TypeModuleExpansion, fmt.Sprintf("module %q expansion failed", module), cause)
	return e.WithContext("module", module)
}

// ReferenceCycle creates a reference cycle error listing the members
func ReferenceCycle(members []string) *Error {
	e := Newf(TypeReferenceCycle, "reference cycle between resources: %v", members)
	return e.WithContext("cycle", members)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Storage creates a storage error
func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
