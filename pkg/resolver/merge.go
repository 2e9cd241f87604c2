package resolver

import (
	"sort"

	"texlive-combiner/pkg/types"
)

// Merge concatenates descriptor lists into one deduplicated sequence in
// (name, variant) order. Two descriptors are duplicates iff their
// (name, variant) identity pair is equal; the first-encountered instance's
// fields win and later duplicates are discarded without field merging.
//
// The result is the same regardless of how the inputs are grouped or
// ordered: as identity sets, Merge is commutative, associative and
// idempotent.
func Merge(lists ...[]types.ArtifactDescriptor) []types.ArtifactDescriptor {
	var all []types.ArtifactDescriptor
	for _, list := range lists {
		all = append(all, list...)
	}
	// Stable sort keeps first-encountered duplicates in front of later
	// ones, so the adjacent collapse below preserves first-wins fields.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].Variant < all[j].Variant
	})
	out := make([]types.ArtifactDescriptor, 0, len(all))
	for _, d := range all {
		if len(out) > 0 && out[len(out)-1].SameIdentity(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}
