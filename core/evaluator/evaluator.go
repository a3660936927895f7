// Package evaluator - Evaluation engine
package evaluator

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"aws-estimation/core/types"
	"aws-estimation/internal/config"
	"aws-estimation/internal/errors"
	"aws-estimation/internal/logging"
)

// Evaluator expands a configuration tree into resource instances.
// All limits are enforced, never advisory.
type Evaluator struct {
	maxCount       int
	maxForEach     int
	maxModuleDepth int
}

// New creates an evaluator with the given limits
func New(cfg config.EvaluationConfig) *Evaluator {
	return &Evaluator{
		maxCount:       cfg.MaxCountExpansion,
		maxForEach:     cfg.MaxForEachExpansion,
		maxModuleDepth: cfg.MaxModuleDepth,
	}
}

// Evaluate produces the complete, ordered list of resource instances
// for the root module, or fails with one typed error. There is no
// partial result: the first fatal error aborts the whole evaluation.
func (e *Evaluator) Evaluate(cfg *Config) ([]*types.ResourceInstance, error) {
	instances, err := e.evaluateModule(cfg, nil, nil, "", 0)
	if err != nil {
		return nil, err
	}
	logging.Info("evaluation complete", zap.Int("instances", len(instances)))
	return instances, nil
}

// evaluateModule evaluates one module instance: locals, then resources
// in reference order, then nested module calls in declaration order.
func (e *Evaluator) evaluateModule(cfg *Config, modulePath []string, varOverrides map[string]cty.Value, parentRegion string, depth int) ([]*types.ResourceInstance, error) {
	variables := make(map[string]cty.Value, len(cfg.Variables))
	for k, v := range cfg.Variables {
		variables[k] = v
	}
	for k, v := range varOverrides {
		variables[k] = v
	}

	s := newScope(variables, cfg.DataSources)

	if err := e.evaluateLocals(cfg, s, modulePath); err != nil {
		return nil, err
	}

	providerRegion, err := e.resolveProviderRegion(cfg, s, parentRegion, modulePath)
	if err != nil {
		return nil, err
	}

	ordered, err := orderResources(cfg.Resources)
	if err != nil {
		return nil, err
	}

	var instances []*types.ResourceInstance
	for _, block := range ordered {
		blockInstances, value, err := e.evaluateResource(block, s, modulePath, providerRegion)
		if err != nil {
			return nil, err
		}
		s.setResource(block.Type, block.Name, value)
		instances = append(instances, blockInstances...)
	}

	// Instances are reported in declaration order regardless of the
	// order reference resolution forced on evaluation
	instances = sortByDeclaration(instances, cfg.Resources)

	for _, mod := range cfg.Modules {
		modInstances, err := e.evaluateModuleCall(mod, s, modulePath, providerRegion, depth)
		if err != nil {
			return nil, errors.ModuleExpansion(mod.Name, err)
		}
		instances = append(instances, modInstances...)
	}

	return instances, nil
}

// evaluateModuleCall expands one module block and evaluates its body
// once per module instance
func (e *Evaluator) evaluateModuleCall(mod *ModuleBlock, s *scope, modulePath []string, parentRegion string, depth int) ([]*types.ResourceInstance, error) {
	if depth+1 > e.maxModuleDepth {
		return nil, errors.Newf(errors.TypeModuleExpansion,
			"module nesting depth %d exceeds limit %d", depth+1, e.maxModuleDepth)
	}
	if mod.Body == nil {
		return nil, errors.Newf(errors.TypeModuleExpansion, "module %q has no loaded body", mod.Name)
	}

	context := moduleContext(modulePath, "module."+mod.Name)

	if mod.Condition != nil {
		ok, err := e.evalGuard(mod.Condition, s, context)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	type modInstance struct {
		label string
		scope *scope
	}
	var expansions []modInstance

	switch {
	case mod.Count != nil:
		n, err := e.evalCount(mod.Count, s, context)
		if err != nil {
			return nil, err
		}
		if n > e.maxCount {
			return nil, errors.ExpansionLimit(context, n, e.maxCount)
		}
		for i := 0; i < n; i++ {
			child := s.child()
			child.bindCountIndex(i)
			expansions = append(expansions, modInstance{
				label: fmt.Sprintf("%s[%d]", mod.Name, i),
				scope: child,
			})
		}
	case mod.ForEach != nil:
		pairs, err := e.evalForEach(mod.ForEach, s, context)
		if err != nil {
			return nil, err
		}
		if len(pairs) > e.maxForEach {
			return nil, errors.ExpansionLimit(context, len(pairs), e.maxForEach)
		}
		for _, p := range pairs {
			child := s.child()
			child.bindEach(p.key, p.value)
			expansions = append(expansions, modInstance{
				label: fmt.Sprintf("%s[%q]", mod.Name, p.key),
				scope: child,
			})
		}
	default:
		expansions = append(expansions, modInstance{label: mod.Name, scope: s.child()})
	}

	var instances []*types.ResourceInstance
	for _, exp := range expansions {
		inputs, err := e.evaluateInputs(mod, exp.scope, context)
		if err != nil {
			return nil, err
		}
		childPath := append(append([]string{}, modulePath...), exp.label)
		modInstances, err := e.evaluateModule(mod.Body, childPath, inputs, parentRegion, depth+1)
		if err != nil {
			return nil, err
		}
		instances = append(instances, modInstances...)
	}
	return instances, nil
}

// evaluateInputs evaluates a module call's input expressions in the
// caller's scope
func (e *Evaluator) evaluateInputs(mod *ModuleBlock, s *scope, context string) (map[string]cty.Value, error) {
	inputs := make(map[string]cty.Value, len(mod.Inputs))
	names := make([]string, 0, len(mod.Inputs))
	for name := range mod.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx := s.evalContext()
	for _, name := range names {
		expr := mod.Inputs[name]
		inputContext := context + " input " + name
		if err := s.checkReferences(expr, inputContext); err != nil {
			return nil, err
		}
		val, diags := expr.Value(ctx)
		if diags.HasErrors() {
			return nil, errors.InvalidExpression(inputContext, diags.Error())
		}
		if !val.IsWhollyKnown() {
			return nil, errors.DynamicValue(inputContext)
		}
		inputs[name] = val
	}
	return inputs, nil
}

// evaluateResource expands one resource block into instances and the
// cty value later blocks see when they reference it
func (e *Evaluator) evaluateResource(b *ResourceBlock, s *scope, modulePath []string, providerRegion string) ([]*types.ResourceInstance, cty.Value, error) {
	context := moduleContext(modulePath, b.Addr())

	if b.Condition != nil {
		ok, err := e.evalGuard(b.Condition, s, context)
		if err != nil {
			return nil, cty.NilVal, err
		}
		if !ok {
			return nil, cty.EmptyTupleVal, nil
		}
	}

	switch {
	case b.Count != nil:
		n, err := e.evalCount(b.Count, s, context)
		if err != nil {
			return nil, cty.NilVal, err
		}
		if n > e.maxCount {
			return nil, cty.NilVal, errors.ExpansionLimit(context, n, e.maxCount)
		}
		instances := make([]*types.ResourceInstance, 0, n)
		values := make([]cty.Value, 0, n)
		for i := 0; i < n; i++ {
			child := s.child()
			child.bindCountIndex(i)
			inst, val, err := e.evaluateInstance(b, child, types.IntKey(i), modulePath, providerRegion)
			if err != nil {
				return nil, cty.NilVal, err
			}
			instances = append(instances, inst)
			values = append(values, val)
		}
		if len(values) == 0 {
			return instances, cty.EmptyTupleVal, nil
		}
		return instances, cty.TupleVal(values), nil

	case b.ForEach != nil:
		pairs, err := e.evalForEach(b.ForEach, s, context)
		if err != nil {
			return nil, cty.NilVal, err
		}
		if len(pairs) > e.maxForEach {
			return nil, cty.NilVal, errors.ExpansionLimit(context, len(pairs), e.maxForEach)
		}
		instances := make([]*types.ResourceInstance, 0, len(pairs))
		values := make(map[string]cty.Value, len(pairs))
		for _, p := range pairs {
			child := s.child()
			child.bindEach(p.key, p.value)
			inst, val, err := e.evaluateInstance(b, child, types.StringKey(p.key), modulePath, providerRegion)
			if err != nil {
				return nil, cty.NilVal, err
			}
			instances = append(instances, inst)
			values[p.key] = val
		}
		if len(values) == 0 {
			return instances, cty.EmptyObjectVal, nil
		}
		return instances, cty.ObjectVal(values), nil

	default:
		inst, val, err := e.evaluateInstance(b, s.child(), types.NoKey(), modulePath, providerRegion)
		if err != nil {
			return nil, cty.NilVal, err
		}
		return []*types.ResourceInstance{inst}, val, nil
	}
}

// evaluateInstance evaluates every body attribute with the instance key
// bound, producing one fully-resolved instance
func (e *Evaluator) evaluateInstance(b *ResourceBlock, s *scope, key types.InstanceKey, modulePath []string, providerRegion string) (*types.ResourceInstance, cty.Value, error) {
	context := moduleContext(modulePath, b.Addr()+key.String())

	names := make([]string, 0, len(b.Body))
	for name := range b.Body {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx := s.evalContext()
	attrs := make(map[string]interface{}, len(names))
	for _, name := range names {
		expr := b.Body[name]
		attrContext := fmt.Sprintf("%s attribute %q", context, name)

		if err := s.checkReferences(expr, attrContext); err != nil {
			return nil, cty.NilVal, err
		}

		val, diags := expr.Value(ctx)
		if diags.HasErrors() {
			return nil, cty.NilVal, errors.InvalidExpression(attrContext, diags.Error())
		}
		if !val.IsWhollyKnown() {
			return nil, cty.NilVal, errors.DynamicValue(attrContext)
		}

		gv, err := ctyToGo(val, attrContext)
		if err != nil {
			return nil, cty.NilVal, err
		}
		attrs[name] = gv
	}

	inst := &types.ResourceInstance{
		ResourceType:   b.Type,
		DeclaredName:   b.Name,
		Key:            key,
		Attributes:     attrs,
		ModulePath:     modulePath,
		ProviderRegion: providerRegion,
	}
	return inst, goToCty(attrs), nil
}

// evalGuard resolves a conditional guard to a concrete boolean.
// A guard that depends on an unresolvable value fails; no default is
// ever assumed.
func (e *Evaluator) evalGuard(expr hcl.Expression, s *scope, context string) (bool, error) {
	if err := s.checkReferences(expr, context); err != nil {
		return false, err
	}
	val, diags := expr.Value(s.evalContext())
	if diags.HasErrors() {
		return false, errors.UnresolvableConditional(context, diags.Error())
	}
	if !val.IsKnown() {
		return false, errors.UnresolvableConditional(context, "condition depends on a value not known before provisioning")
	}
	if val.IsNull() || val.Type() != cty.Bool {
		return false, errors.UnresolvableConditional(context, "condition is not a boolean")
	}
	return val.True(), nil
}

// evalCount resolves a count expression to a non-negative integer
func (e *Evaluator) evalCount(expr hcl.Expression, s *scope, context string) (int, error) {
	countContext := context + " count"
	if err := s.checkReferences(expr, countContext); err != nil {
		return 0, err
	}
	val, diags := expr.Value(s.evalContext())
	if diags.HasErrors() {
		return 0, errors.InvalidExpression(countContext, diags.Error())
	}
	if !val.IsKnown() {
		return 0, errors.DynamicValue(countContext)
	}
	if val.IsNull() || val.Type() != cty.Number {
		return 0, errors.InvalidExpression(countContext, "count must be a number")
	}
	n, acc := val.AsBigFloat().Int64()
	if acc != big.Exact {
		return 0, errors.InvalidExpression(countContext, "count must be a whole number")
	}
	if n < 0 {
		return 0, errors.InvalidExpression(countContext, "count must not be negative")
	}
	return int(n), nil
}

type eachPair struct {
	key   string
	value cty.Value
}

// evalForEach resolves a for_each expression to an ordered set of
// key/value pairs. Keys are sorted so evaluation is deterministic.
func (e *Evaluator) evalForEach(expr hcl.Expression, s *scope, context string) ([]eachPair, error) {
	feContext := context + " for_each"
	if err := s.checkReferences(expr, feContext); err != nil {
		return nil, err
	}
	val, diags := expr.Value(s.evalContext())
	if diags.HasErrors() {
		return nil, errors.InvalidExpression(feContext, diags.Error())
	}
	if !val.IsWhollyKnown() {
		return nil, errors.DynamicValue(feContext)
	}
	if val.IsNull() {
		return nil, errors.InvalidExpression(feContext, "for_each must be a map or set of strings")
	}

	ty := val.Type()
	var pairs []eachPair
	switch {
	case ty.IsMapType() || ty.IsObjectType():
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			pairs = append(pairs, eachPair{key: k.AsString(), value: v})
		}
	case ty.IsSetType() || ty.IsListType() || ty.IsTupleType():
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.Type() != cty.String {
				return nil, errors.InvalidExpression(feContext, "for_each set elements must be strings")
			}
			pairs = append(pairs, eachPair{key: v.AsString(), value: v})
		}
	default:
		return nil, errors.InvalidExpression(feContext, "for_each must be a map or set of strings, got "+ty.FriendlyName())
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	return pairs, nil
}

// evaluateLocals resolves local values, allowing locals to reference
// each other. Runs to a fixpoint; a pass without progress means the
// remaining locals form a cycle.
func (e *Evaluator) evaluateLocals(cfg *Config, s *scope, modulePath []string) error {
	pending := make(map[string]hcl.Expression, len(cfg.Locals))
	for name, expr := range cfg.Locals {
		pending[name] = expr
	}

	for len(pending) > 0 {
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		sort.Strings(names)

		progress := false
		for _, name := range names {
			expr := pending[name]
			if localDependsOnPending(expr, pending, name) {
				continue
			}
			context := moduleContext(modulePath, "local."+name)
			if err := s.checkReferences(expr, context); err != nil {
				return err
			}
			val, diags := expr.Value(s.evalContext())
			if diags.HasErrors() {
				return errors.InvalidExpression(context, diags.Error())
			}
			if !val.IsWhollyKnown() {
				return errors.DynamicValue(context)
			}
			s.setLocal(name, val)
			delete(pending, name)
			progress = true
		}

		if !progress {
			cycle := make([]string, 0, len(pending))
			for name := range pending {
				cycle = append(cycle, "local."+name)
			}
			sort.Strings(cycle)
			return errors.ReferenceCycle(cycle)
		}
	}
	return nil
}

// localDependsOnPending reports whether the expression references a
// local that has not been resolved yet
func localDependsOnPending(expr hcl.Expression, pending map[string]hcl.Expression, self string) bool {
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "local" {
			continue
		}
		name, ok := traversalStep(traversal, 1)
		if !ok {
			continue
		}
		if name != self {
			if _, isPending := pending[name]; isPending {
				return true
			}
		}
	}
	return false
}

// resolveProviderRegion evaluates the module's provider region, falling
// back to the parent module's region
func (e *Evaluator) resolveProviderRegion(cfg *Config, s *scope, parentRegion string, modulePath []string) (string, error) {
	provider, ok := cfg.Providers["aws"]
	if !ok || provider.Region == nil {
		return parentRegion, nil
	}
	context := moduleContext(modulePath, "provider.aws region")
	if err := s.checkReferences(provider.Region, context); err != nil {
		return "", err
	}
	val, diags := provider.Region.Value(s.evalContext())
	if diags.HasErrors() {
		return "", errors.InvalidExpression(context, diags.Error())
	}
	if !val.IsKnown() {
		return "", errors.DynamicValue(context)
	}
	if val.IsNull() || val.Type() != cty.String {
		return "", errors.InvalidExpression(context, "provider region must be a string")
	}
	return val.AsString(), nil
}

// sortByDeclaration re-orders instances to match block declaration
// order, keeping expansion-key order within a block
func sortByDeclaration(instances []*types.ResourceInstance, blocks []*ResourceBlock) []*types.ResourceInstance {
	order := make(map[string]int, len(blocks))
	for i, b := range blocks {
		order[b.Addr()] = i
	}
	sort.SliceStable(instances, func(i, j int) bool {
		bi := instances[i].ResourceType + "." + instances[i].DeclaredName
		bj := instances[j].ResourceType + "." + instances[j].DeclaredName
		return order[bi] < order[bj]
	})
	return instances
}

// moduleContext renders an address with its module path for error messages
func moduleContext(modulePath []string, addr string) string {
	prefix := ""
	for _, m := range modulePath {
		prefix += "module." + m + "."
	}
	return prefix + addr
}
