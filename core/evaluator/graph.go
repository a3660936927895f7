// Package evaluator - Reference graph ordering
package evaluator

import (
	"aws-estimation/internal/errors"
)

// orderResources topologically sorts the module's resource blocks by
// their implicit reference graph, so a block is always evaluated after
// every block it references. Cycle detection is explicit here rather
// than a recursion-depth failure during evaluation.
//
// The sort is deterministic: among blocks whose dependencies are all
// satisfied, declaration order wins.
func orderResources(blocks []*ResourceBlock) ([]*ResourceBlock, error) {
	declared := make(map[string]int, len(blocks))
	for i, b := range blocks {
		declared[b.Addr()] = i
	}

	// deps[i] holds the declaration indices block i depends on,
	// restricted to resources declared in this module
	deps := make(map[int][]int, len(blocks))
	dependents := make(map[int][]int, len(blocks))
	indegree := make([]int, len(blocks))

	for i, b := range blocks {
		for _, addr := range blockReferences(b) {
			j, ok := declared[addr]
			if !ok || j == i {
				// Unknown references fail later with a precise
				// unresolved-reference error; self-references are
				// count.index/each style and carry no ordering.
				continue
			}
			deps[i] = append(deps[i], j)
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	// Kahn's algorithm over a declaration-ordered ready list
	var ready []int
	for i := range blocks {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]*ResourceBlock, 0, len(blocks))
	for len(ready) > 0 {
		// Lowest declaration index first
		minIdx := 0
		for k := 1; k < len(ready); k++ {
			if ready[k] < ready[minIdx] {
				minIdx = k
			}
		}
		i := ready[minIdx]
		ready = append(ready[:minIdx], ready[minIdx+1:]...)

		ordered = append(ordered, blocks[i])
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(blocks) {
		var cycle []string
		for i, b := range blocks {
			if indegree[i] > 0 {
				cycle = append(cycle, b.Addr())
			}
		}
		return nil, errors.ReferenceCycle(cycle)
	}

	return ordered, nil
}

// blockReferences collects every resource address a block's expressions
// reference: the guard, count, for_each, and all body attributes.
func blockReferences(b *ResourceBlock) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(addrs []string) {
		for _, a := range addrs {
			if !seen[a] {
				seen[a] = true
				refs = append(refs, a)
			}
		}
	}
	add(referencedResources(b.Condition))
	add(referencedResources(b.Count))
	add(referencedResources(b.ForEach))
	for _, expr := range b.Body {
		add(referencedResources(expr))
	}
	return refs
}
