// File: pkg/types/types.go
package types

// Variant identifies one content kind a catalog entry may ship.
type Variant string

const (
	// VariantRun is the runtime file tree of a package.
	VariantRun Variant = "run"
	// VariantDoc is the documentation tree.
	VariantDoc Variant = "doc"
	// VariantSource is the package source tree.
	VariantSource Variant = "source"
	// VariantBin is a pre-built binary set supplied by the binary-package
	// collaborator. Bin artifacts are never fetched from a mirror.
	VariantBin Variant = "bin"
)

// CatalogEntry is one named package record from the catalog snapshot.
// Entries are built once by the importer plus the override layer and are
// never mutated afterwards.
type CatalogEntry struct {
	Name        string   `json:"-"`
	Version     string   `json:"version,omitempty"`
	HasRunfiles bool     `json:"hasRunfiles,omitempty"`
	Deps        []string `json:"deps,omitempty"`
	// Hashes maps a variant name (run, doc, source) to the hex sha512 of
	// that variant's archive. A missing or empty value means the hash is
	// unknown upstream.
	Hashes map[string]string `json:"hashes,omitempty"`
	// URLs, when set, replaces the mirror-derived candidate URL list.
	URLs []string `json:"urls,omitempty"`
	// StripPrefix overrides the number of leading path components removed
	// while unpacking. Nil means the default of 1.
	StripPrefix *int   `json:"stripPrefix,omitempty"`
	PostUnpack  string `json:"postUnpack,omitempty"`
}

// Hash returns the entry's declared hash for a variant, or "" when absent.
func (e *CatalogEntry) Hash(variant Variant) string {
	if e.Hashes == nil {
		return ""
	}
	return e.Hashes[string(variant)]
}

// HasDep reports whether the entry declares a dependency on name.
func (e *CatalogEntry) HasDep(name string) bool {
	for _, d := range e.Deps {
		if d == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry. The override layer patches
// clones so the raw import stays untouched.
func (e *CatalogEntry) Clone() *CatalogEntry {
	c := *e
	if e.Deps != nil {
		c.Deps = append([]string(nil), e.Deps...)
	}
	if e.Hashes != nil {
		c.Hashes = make(map[string]string, len(e.Hashes))
		for k, v := range e.Hashes {
			c.Hashes[k] = v
		}
	}
	if e.URLs != nil {
		c.URLs = append([]string(nil), e.URLs...)
	}
	if e.StripPrefix != nil {
		n := *e.StripPrefix
		c.StripPrefix = &n
	}
	return &c
}

// Catalog is the corrected, immutable name -> entry mapping produced by
// the override layer.
type Catalog map[string]*CatalogEntry

// BinaryPackage is one record from the binary-package collaborator: a set
// of pre-built files keyed by their destination path, plus free-form
// metadata.
type BinaryPackage struct {
	// Files maps a destination path (relative to the environment root) to
	// the absolute source path of the pre-built file.
	Files    map[string]string `json:"files"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ArtifactDescriptor is a fully specified fetch+verify+unpack action for
// one (name, variant) pair. Descriptors are derived deterministically from
// a CatalogEntry and never mutated; duplicates produced across flattening
// calls collapse under Merge.
type ArtifactDescriptor struct {
	Name    string
	Variant Variant
	Version string
	// Hash is the expected hex sha512 of the archive. Empty means unknown;
	// see TrustFirstUse.
	Hash string
	// URLs are candidate sources in fallback order: the first reachable,
	// verifiable one wins.
	URLs        []string
	StripPrefix int
	Exclude     []string
	PostUnpack  string
	// TrustFirstUse marks an artifact with no pre-shared hash anywhere.
	// The fetch degrades to recording the downloaded content's own
	// fingerprint, which protects against nothing at first download.
	TrustFirstUse bool
	// Placeholder marks a zero-content run variant: the entry stays
	// referenceable as a graph node but no fetch ever happens.
	Placeholder bool
	// Binary is set for VariantBin and points at the collaborator record.
	Binary   *BinaryPackage
	Metadata map[string]string
}

// SameIdentity reports whether two descriptors are duplicates, i.e. share
// the (name, variant) identity pair.
func (d ArtifactDescriptor) SameIdentity(o ArtifactDescriptor) bool {
	return d.Name == o.Name && d.Variant == o.Variant
}

// FlattenedPackage is the transitive artifact closure of one catalog
// entry, deduplicated and in stable (name, variant) order.
type FlattenedPackage struct {
	Name      string
	Artifacts []ArtifactDescriptor
}

// Environment is a named installable bundle: the deduplicated union of the
// flattened artifact sets of the selected entries.
type Environment struct {
	Name      string
	Selection []string
	Artifacts []ArtifactDescriptor
}
