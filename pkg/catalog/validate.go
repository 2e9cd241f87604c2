// File: pkg/catalog/validate.go
package catalog

import (
	"fmt"
	"sort"

	"texlive-combiner/pkg/types"
)

// Validate checks the corrected catalog for references to unknown entry
// names and for dependency cycles. Both are catalog-integrity defects:
// the flattener relies on an acyclic graph and does not detect cycles
// itself, so an unnoticed cycle would surface as unbounded traversal.
//
// Cycle detection is an explicit Kahn pass rather than recursion so that
// deep chains cannot exhaust the stack before the defect is reported.
func Validate(cat types.Catalog) error {
	indegree := make(map[string]int, len(cat))
	for name := range cat {
		indegree[name] = 0
	}
	for name, entry := range cat {
		for _, dep := range entry.Deps {
			if _, ok := cat[dep]; !ok {
				return fmt.Errorf("%w: entry %q depends on unknown entry %q", types.ErrCatalogIntegrity, name, dep)
			}
			indegree[dep]++
		}
	}

	queue := make([]string, 0, len(cat))
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	seen := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		seen++
		for _, dep := range cat[name].Deps {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if seen == len(cat) {
		return nil
	}

	var cyclic []string
	for name, deg := range indegree {
		if deg > 0 {
			cyclic = append(cyclic, name)
		}
	}
	sort.Strings(cyclic)
	return fmt.Errorf("%w: dependency cycle involving %v", types.ErrCatalogIntegrity, cyclic)
}
