// Package evaluator - Evaluation scope
package evaluator

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"aws-estimation/internal/errors"
)

// evalFuncs is the function table exposed to expressions. A small,
// deterministic subset of the Terraform function set; anything else is
// an invalid expression.
var evalFuncs = map[string]function.Function{
	"length":   stdlib.LengthFunc,
	"min":      stdlib.MinFunc,
	"max":      stdlib.MaxFunc,
	"concat":   stdlib.ConcatFunc,
	"upper":    stdlib.UpperFunc,
	"lower":    stdlib.LowerFunc,
	"coalesce": stdlib.CoalesceFunc,
	"format":   stdlib.FormatFunc,
	"join":     stdlib.JoinFunc,
	"split":    stdlib.SplitFunc,
}

// scope holds the values visible to expressions in one module instance
type scope struct {
	variables map[string]cty.Value
	locals    map[string]cty.Value

	// resources maps resource type -> name -> instance value.
	// A counted resource exposes a tuple, a for_each resource an
	// object keyed by instance key, a singleton its attribute object.
	resources map[string]map[string]cty.Value

	dataSources map[string]map[string]cty.Value

	// countIndex/eachKey/eachValue are bound while evaluating one
	// expanded instance
	countIndex *int
	eachKey    *string
	eachValue  cty.Value
}

func newScope(variables map[string]cty.Value, dataSources map[string]map[string]cty.Value) *scope {
	s := &scope{
		variables:   make(map[string]cty.Value),
		locals:      make(map[string]cty.Value),
		resources:   make(map[string]map[string]cty.Value),
		dataSources: make(map[string]map[string]cty.Value),
	}
	for k, v := range variables {
		s.variables[k] = v
	}
	for typ, byName := range dataSources {
		s.dataSources[typ] = make(map[string]cty.Value)
		for k, v := range byName {
			s.dataSources[typ][k] = v
		}
	}
	return s
}

// child returns a copy of the scope with instance bindings applied.
// The underlying value maps are shared; instance evaluation never
// mutates them.
func (s *scope) child() *scope {
	c := *s
	c.countIndex = nil
	c.eachKey = nil
	c.eachValue = cty.NilVal
	return &c
}

func (s *scope) bindCountIndex(i int) {
	s.countIndex = &i
}

func (s *scope) bindEach(key string, value cty.Value) {
	s.eachKey = &key
	s.eachValue = value
}

func (s *scope) setLocal(name string, val cty.Value) {
	s.locals[name] = val
}

func (s *scope) setResource(resourceType, name string, val cty.Value) {
	byName, ok := s.resources[resourceType]
	if !ok {
		byName = make(map[string]cty.Value)
		s.resources[resourceType] = byName
	}
	byName[name] = val
}

// evalContext builds the hcl.EvalContext for this scope
func (s *scope) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	if len(s.variables) > 0 {
		vars["var"] = cty.ObjectVal(s.variables)
	}
	if len(s.locals) > 0 {
		vars["local"] = cty.ObjectVal(s.locals)
	}
	if len(s.dataSources) > 0 {
		byType := make(map[string]cty.Value, len(s.dataSources))
		for typ, byName := range s.dataSources {
			byType[typ] = cty.ObjectVal(byName)
		}
		vars["data"] = cty.ObjectVal(byType)
	}
	for typ, byName := range s.resources {
		vars[typ] = cty.ObjectVal(byName)
	}
	if s.countIndex != nil {
		vars["count"] = cty.ObjectVal(map[string]cty.Value{
			"index": cty.NumberIntVal(int64(*s.countIndex)),
		})
	}
	if s.eachKey != nil {
		vars["each"] = cty.ObjectVal(map[string]cty.Value{
			"key":   cty.StringVal(*s.eachKey),
			"value": s.eachValue,
		})
	}

	return &hcl.EvalContext{
		Variables: vars,
		Functions: evalFuncs,
	}
}

// checkReferences verifies that every traversal in the expression can
// be resolved in this scope, before evaluation. This keeps "you
// referenced something that does not exist" distinct from "the
// expression itself is malformed".
func (s *scope) checkReferences(expr hcl.Expression, context string) error {
	for _, traversal := range expr.Variables() {
		if err := s.checkTraversal(traversal, context); err != nil {
			return err
		}
	}
	return nil
}

func (s *scope) checkTraversal(traversal hcl.Traversal, context string) error {
	root := traversal.RootName()
	ref := traversalString(traversal)

	switch root {
	case "var":
		name, ok := traversalStep(traversal, 1)
		if !ok {
			return errors.UnresolvedReference(ref, context)
		}
		if _, declared := s.variables[name]; !declared {
			return errors.UnresolvedReference("var."+name, context)
		}
	case "local":
		name, ok := traversalStep(traversal, 1)
		if !ok {
			return errors.UnresolvedReference(ref, context)
		}
		if _, declared := s.locals[name]; !declared {
			return errors.UnresolvedReference("local."+name, context)
		}
	case "data":
		typ, okT := traversalStep(traversal, 1)
		name, okN := traversalStep(traversal, 2)
		if !okT || !okN {
			return errors.UnresolvedReference(ref, context)
		}
		if _, declared := s.dataSources[typ][name]; !declared {
			return errors.UnresolvedReference("data."+typ+"."+name, context)
		}
	case "count":
		if s.countIndex == nil {
			return errors.UnresolvedReference("count.index", context+" (count is not set on this block)")
		}
	case "each":
		if s.eachKey == nil {
			return errors.UnresolvedReference(ref, context+" (for_each is not set on this block)")
		}
	default:
		// A resource reference: type.name[...]
		name, ok := traversalStep(traversal, 1)
		if !ok {
			return errors.UnresolvedReference(ref, context)
		}
		if _, declared := s.resources[root][name]; !declared {
			return errors.UnresolvedReference(root+"."+name, context)
		}
	}
	return nil
}

// referencedResources returns the resource addresses (type.name) the
// expression references, for dependency graph construction. Declared
// scope names (var, local, data, count, each) are not resources.
func referencedResources(expr hcl.Expression) []string {
	if expr == nil {
		return nil
	}
	seen := make(map[string]bool)
	var refs []string
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		switch root {
		case "var", "local", "data", "count", "each":
			continue
		}
		name, ok := traversalStep(traversal, 1)
		if !ok {
			continue
		}
		addr := root + "." + name
		if !seen[addr] {
			seen[addr] = true
			refs = append(refs, addr)
		}
	}
	sort.Strings(refs)
	return refs
}

// traversalStep returns the attribute name at position i of the traversal
func traversalStep(traversal hcl.Traversal, i int) (string, bool) {
	if i >= len(traversal) {
		return "", false
	}
	switch step := traversal[i].(type) {
	case hcl.TraverseRoot:
		return step.Name, true
	case hcl.TraverseAttr:
		return step.Name, true
	default:
		return "", false
	}
}

// traversalString renders a traversal for error messages
func traversalString(traversal hcl.Traversal) string {
	var sb strings.Builder
	for _, step := range traversal {
		switch st := step.(type) {
		case hcl.TraverseRoot:
			sb.WriteString(st.Name)
		case hcl.TraverseAttr:
			sb.WriteString(".")
			sb.WriteString(st.Name)
		case hcl.TraverseIndex:
			sb.WriteString("[...]")
		}
	}
	return sb.String()
}
