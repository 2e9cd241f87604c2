// File: texlive-combiner/pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Masterminds/semver/v3"

	"texlive-combiner/pkg/types"
)

const (
	// CatalogFile is the default catalog snapshot path.
	CatalogFile = "texlive.catalog.json"
	// FixedHashFile is the default fixed-hash override table path.
	FixedHashFile = "fixed-hashes.json"
	// BinariesFile is the default binary-package table path.
	BinariesFile = "binaries.json"
	// BundlesFile is the default environment bundle definition path.
	BundlesFile = "bundles.yaml"
	// EnvDir is the directory where combined environments are materialized.
	EnvDir = "environments"
)

// minSnapshotConstraint rejects snapshots from before the catalog format
// gained per-variant hashes.
const minSnapshotConstraint = ">= 2019"

// DefaultMirrors are the candidate URL prefixes tried in order when an
// entry carries no explicit URL override. Order is significant: later
// mirrors exist purely as fallback.
var DefaultMirrors = []string{
	"https://mirror.ctan.org/systems/texlive/tlnet/archive",
	"https://texlive.info/tlnet-archive/latest/archive",
}

// Snapshot matches the structure of the catalog snapshot file produced by
// the external import process.
type Snapshot struct {
	// Version is the snapshot release, e.g. "2024.2".
	Version string `json:"version"`
	// DefaultVersion is applied to every entry that does not pin its own.
	DefaultVersion string                         `json:"default_version,omitempty"`
	Packages       map[string]*types.CatalogEntry `json:"packages"`
}

// LoadSnapshot reads and parses a catalog snapshot. Entry names are filled
// in from the map keys and the catalog-wide default version is applied.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("could not parse catalog snapshot %s: %w", path, err)
	}
	v, err := semver.NewVersion(snap.Version)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot version %q is not a valid version: %w", snap.Version, err)
	}
	constraint, err := semver.NewConstraint(minSnapshotConstraint)
	if err != nil {
		return nil, err
	}
	if !constraint.Check(v) {
		return nil, fmt.Errorf("catalog snapshot %s is too old (need %s): pre-2019 snapshots carry no per-variant hashes", snap.Version, minSnapshotConstraint)
	}
	defaultVersion := snap.DefaultVersion
	if defaultVersion == "" {
		defaultVersion = snap.Version
	}
	for name, entry := range snap.Packages {
		entry.Name = name
		if entry.Version == "" {
			entry.Version = defaultVersion
		}
	}
	return &snap, nil
}

// LoadFixedHashes reads the fixed-hash override table, a mapping from
// versioned identity ('name.variant-version') to hex hash. A missing file
// is not an error: the table is optional.
func LoadFixedHashes(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string)
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("could not parse fixed-hash table %s: %w", path, err)
	}
	return hashes, nil
}

// LoadBinaries reads the binary-package collaborator table. A missing file
// yields an empty table.
func LoadBinaries(path string) (map[string]types.BinaryPackage, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return make(map[string]types.BinaryPackage), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	binaries := make(map[string]types.BinaryPackage)
	if err := json.Unmarshal(data, &binaries); err != nil {
		return nil, fmt.Errorf("could not parse binary-package table %s: %w", path, err)
	}
	return binaries, nil
}

// Bundle is one predefined environment: a fixed subset of catalog entry
// names exposed for external invocation.
type Bundle struct {
	Packages []string `yaml:"packages"`
}

type bundleFile struct {
	Bundles map[string]Bundle `yaml:"bundles"`
}

// LoadBundles reads the named environment bundle definitions.
func LoadBundles(path string) (map[string]Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f bundleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("could not parse bundle file %s: %w", path, err)
	}
	if f.Bundles == nil {
		f.Bundles = make(map[string]Bundle)
	}
	return f.Bundles, nil
}
