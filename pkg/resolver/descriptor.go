// File: pkg/resolver/descriptor.go
package resolver

import (
	"texlive-combiner/pkg/config"
	"texlive-combiner/pkg/types"
	"texlive-combiner/pkg/utils"
)

const (
	defaultStripPrefix = 1
	// metadataSubpath is the per-archive metadata directory that must
	// never land in a combined environment.
	metadataSubpath = "tlpkg/"
)

// Options configure one resolution pass.
type Options struct {
	// Mirrors are candidate URL prefixes in fallback order.
	// config.DefaultMirrors when empty.
	Mirrors []string
	// FixedHashes maps versioned identities ('name.variant-version') to
	// out-of-band hashes. Consulted only when UseFixedHashes is set and
	// the entry itself declares no hash for the variant.
	FixedHashes    map[string]string
	UseFixedHashes bool
	// Binaries is the binary-package collaborator table.
	Binaries map[string]types.BinaryPackage
}

// BuildDescriptor resolves one (entry, variant) pair into a fully
// specified fetch+verify+unpack action. Pure: it produces a description,
// never a fetch.
//
// Hash precedence: the entry's own declared hash, else the fixed-hash
// table (when enabled), else unknown. An unknown hash is not fatal — the
// descriptor is marked TrustFirstUse and the fetch degrades to recording
// the downloaded content's own fingerprint.
func BuildDescriptor(entry *types.CatalogEntry, variant types.Variant, opts Options) types.ArtifactDescriptor {
	canonical := utils.CanonicalName(entry.Name, string(variant))
	hash := entry.Hash(variant)
	if hash == "" && opts.UseFixedHashes {
		hash = opts.FixedHashes[utils.VersionedName(canonical, entry.Version)]
	}

	urls := entry.URLs
	if len(urls) == 0 {
		mirrors := opts.Mirrors
		if len(mirrors) == 0 {
			mirrors = config.DefaultMirrors
		}
		urls = make([]string, 0, len(mirrors))
		for _, m := range mirrors {
			urls = append(urls, m+"/"+canonical+".tar.xz")
		}
	}

	strip := defaultStripPrefix
	if entry.StripPrefix != nil {
		strip = *entry.StripPrefix
	}

	return types.ArtifactDescriptor{
		Name:          entry.Name,
		Variant:       variant,
		Version:       entry.Version,
		Hash:          hash,
		URLs:          urls,
		StripPrefix:   strip,
		Exclude:       []string{metadataSubpath},
		PostUnpack:    entry.PostUnpack,
		TrustFirstUse: hash == "",
	}
}

// placeholderDescriptor emits the zero-content run variant for an entry
// without runfiles. The entry stays referenceable as a graph node
// (hyphenation-pattern filter packages and the like) without ever
// triggering a fetch.
func placeholderDescriptor(entry *types.CatalogEntry) types.ArtifactDescriptor {
	return types.ArtifactDescriptor{
		Name:        entry.Name,
		Variant:     types.VariantRun,
		Version:     entry.Version,
		Placeholder: true,
	}
}

// binDescriptor splices a collaborator-supplied binary package in as the
// bin variant. The collaborator's metadata is carried over but its
// identity fields are overridden with the catalog entry's.
func binDescriptor(entry *types.CatalogEntry, bin types.BinaryPackage) types.ArtifactDescriptor {
	meta := make(map[string]string, len(bin.Metadata)+2)
	for k, v := range bin.Metadata {
		meta[k] = v
	}
	meta["pname"] = entry.Name
	meta["type"] = string(types.VariantBin)
	b := bin
	return types.ArtifactDescriptor{
		Name:     entry.Name,
		Variant:  types.VariantBin,
		Version:  entry.Version,
		Binary:   &b,
		Metadata: meta,
	}
}
