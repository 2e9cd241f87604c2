// File: pkg/catalog/overrides.go
package catalog

import (
	"fmt"

	"texlive-combiner/pkg/types"
)

// Entries patched by name below. These track upstream catalog quirks and
// break loudly when the catalog format changes under us.
const (
	docOnlyCommon    = "texlive-common"
	docOnlyEn        = "texlive-en"
	latexBin         = "latex-bin"
	fontEngine       = "luahbtex"
	basicCollection  = "collection-basic"
	metapostColl     = "collection-metapost"
	plainGenericColl = "collection-plaingeneric"
	heavyEngine      = "metafont"
	heavyViewer      = "xdvi"
)

// ApplyOverrides patches the raw catalog import into the corrected catalog
// used for flattening. Every entry loses self-referential dependency
// edges; a small fixed set of named entries is then patched:
//
//   - texlive-common and texlive-en carry only documentation that is
//     already shipped elsewhere, so their runfiles are dropped;
//   - latex-bin needs the font engine to build its lualatex formats but
//     the upstream record omits the edge;
//   - collection-basic sheds metafont and xdvi so the minimal baseline
//     does not pull a full engine and an X11 viewer, and
//     collection-metapost / collection-plaingeneric pick those up so the
//     full catalog union still covers every package.
//
// The input mapping is not modified. A missing override target is a fatal
// configuration error: it means the upstream catalog changed shape.
func ApplyOverrides(raw map[string]*types.CatalogEntry) (types.Catalog, error) {
	cat := make(types.Catalog, len(raw))
	for name, entry := range raw {
		c := entry.Clone()
		c.Name = name
		c.Deps = removeDeps(c.Deps, name)
		cat[name] = c
	}

	for _, name := range []string{docOnlyCommon, docOnlyEn} {
		entry, err := target(cat, name)
		if err != nil {
			return nil, err
		}
		entry.HasRunfiles = false
	}

	entry, err := target(cat, latexBin)
	if err != nil {
		return nil, err
	}
	entry.Deps = addDep(entry.Deps, fontEngine)

	basic, err := target(cat, basicCollection)
	if err != nil {
		return nil, err
	}
	basic.Deps = removeDeps(basic.Deps, heavyEngine, heavyViewer)

	metapost, err := target(cat, metapostColl)
	if err != nil {
		return nil, err
	}
	metapost.Deps = addDep(metapost.Deps, heavyEngine)

	plain, err := target(cat, plainGenericColl)
	if err != nil {
		return nil, err
	}
	plain.Deps = addDep(plain.Deps, heavyViewer)

	return cat, nil
}

func target(cat types.Catalog, name string) (*types.CatalogEntry, error) {
	entry, ok := cat[name]
	if !ok {
		return nil, fmt.Errorf("%w: override target %q missing from raw catalog", types.ErrCatalogIntegrity, name)
	}
	return entry, nil
}

func addDep(deps []string, name string) []string {
	for _, d := range deps {
		if d == name {
			return deps
		}
	}
	return append(deps, name)
}

func removeDeps(deps []string, names ...string) []string {
	out := deps[:0]
	for _, d := range deps {
		drop := false
		for _, n := range names {
			if d == n {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, d)
		}
	}
	return out
}
