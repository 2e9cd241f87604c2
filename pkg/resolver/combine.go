// File: pkg/resolver/combine.go
package resolver

import (
	"reflect"

	"texlive-combiner/pkg/types"
)

// Combine unions the flattened artifact sets of the selected entries into
// one named environment. The selection is ordered; selecting the same
// entry name twice is allowed, and the later selection's entry-level
// attributes win (a warning is logged when the attributes actually
// differ). Artifact-level deduplication applies uniformly either way: the
// resulting manifest contains every (name, variant) pair exactly once.
func (r *Resolver) Combine(envName string, selection []*types.CatalogEntry) (*types.Environment, error) {
	chosen := make(map[string]*types.CatalogEntry, len(selection))
	var names []string
	for _, entry := range selection {
		prev, ok := chosen[entry.Name]
		if !ok {
			names = append(names, entry.Name)
		} else if !reflect.DeepEqual(prev, entry) {
			r.logger.Warn("entry selected twice with conflicting attributes; later selection wins",
				"environment", envName, "entry", entry.Name)
		}
		chosen[entry.Name] = entry
	}

	lists := make([][]types.ArtifactDescriptor, 0, len(names))
	for _, name := range names {
		entry := chosen[name]
		var fp *types.FlattenedPackage
		var err error
		if cat, ok := r.catalog[name]; ok && cat == entry {
			fp, err = r.Flatten(name)
		} else {
			// Selection-specific attributes: flatten outside the memo so
			// the override applies without poisoning cached results.
			fp, err = r.flattenEntry(entry)
		}
		if err != nil {
			return nil, err
		}
		lists = append(lists, fp.Artifacts)
	}

	return &types.Environment{
		Name:      envName,
		Selection: names,
		Artifacts: Merge(lists...),
	}, nil
}
