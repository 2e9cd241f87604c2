// File: pkg/resolver/flatten.go
package resolver

import (
	"fmt"
	"log/slog"
	"sync"

	"texlive-combiner/pkg/types"
	"texlive-combiner/pkg/utils"
)

// Resolver flattens catalog entries into artifact closures. Resolution is
// pure: it reads the shared immutable catalog and writes only to its own
// memo table, so independent entries may be flattened concurrently with
// no further locking.
type Resolver struct {
	catalog types.Catalog
	opts    Options
	logger  *slog.Logger

	mu   sync.Mutex
	memo map[string]*types.FlattenedPackage
}

// New creates a Resolver for one resolution pass over the corrected
// catalog. The memo table lives as long as the Resolver.
func New(cat types.Catalog, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog: cat,
		opts:    opts,
		logger:  logger,
		memo:    make(map[string]*types.FlattenedPackage),
	}
}

// Flatten expands a named entry into the deduplicated transitive closure
// of its artifact descriptors. Results are memoized per Resolver; two
// goroutines racing on the same key may both compute it, which wastes
// work but cannot disagree since the computation is pure.
func (r *Resolver) Flatten(name string) (*types.FlattenedPackage, error) {
	r.mu.Lock()
	if fp, ok := r.memo[name]; ok {
		r.mu.Unlock()
		return fp, nil
	}
	r.mu.Unlock()

	entry, ok := r.catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entry %q", types.ErrCatalogIntegrity, name)
	}
	fp, err := r.flattenEntry(entry)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.memo[name]; ok {
		fp = cached
	} else {
		r.memo[name] = fp
	}
	r.mu.Unlock()
	return fp, nil
}

// flattenEntry emits the entry's own descriptors plus those of every
// entry reachable through its dependency edges, then deduplicates. The
// closure walk is an explicit queue, so dependency-chain depth never
// turns into stack depth. The override layer guarantees the graph is
// acyclic; the visited set here only collapses diamonds.
func (r *Resolver) flattenEntry(entry *types.CatalogEntry) (*types.FlattenedPackage, error) {
	lists := [][]types.ArtifactDescriptor{r.emit(entry)}
	visited := map[string]bool{entry.Name: true}
	queue := append([]string(nil), entry.Deps...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		dep, ok := r.catalog[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q depends on unknown entry %q", types.ErrCatalogIntegrity, entry.Name, name)
		}
		lists = append(lists, r.emit(dep))
		queue = append(queue, dep.Deps...)
	}
	return &types.FlattenedPackage{Name: entry.Name, Artifacts: Merge(lists...)}, nil
}

// emit produces one entry's own descriptors: the run variant (real fetch
// or zero-content placeholder), doc and source when the entry declares
// their hashes, and the spliced bin package when the collaborator has one.
func (r *Resolver) emit(entry *types.CatalogEntry) []types.ArtifactDescriptor {
	var out []types.ArtifactDescriptor
	if entry.HasRunfiles {
		out = append(out, r.describe(entry, types.VariantRun))
	} else {
		out = append(out, placeholderDescriptor(entry))
	}
	if entry.Hash(types.VariantDoc) != "" {
		out = append(out, r.describe(entry, types.VariantDoc))
	}
	if entry.Hash(types.VariantSource) != "" {
		out = append(out, r.describe(entry, types.VariantSource))
	}
	if bin, ok := r.opts.Binaries[entry.Name]; ok {
		out = append(out, binDescriptor(entry, bin))
	}
	return out
}

func (r *Resolver) describe(entry *types.CatalogEntry, variant types.Variant) types.ArtifactDescriptor {
	d := BuildDescriptor(entry, variant, r.opts)
	if d.TrustFirstUse {
		r.logger.Warn("artifact has no integrity hash anywhere; fetch degrades to trust-on-first-use",
			"artifact", utils.VersionedName(utils.CanonicalName(d.Name, string(d.Variant)), d.Version))
	}
	return d
}
