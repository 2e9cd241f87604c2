// File: pkg/utils/utils.go
package utils

import "strings"

// CanonicalName returns the on-disk archive name for a (name, variant)
// pair: the bare name for the run variant, 'name.variant' otherwise.
func CanonicalName(name, variant string) string {
	if variant == "run" {
		return name
	}
	return name + "." + variant
}

// VersionedName returns the versioned identity string used to key the
// fixed-hash table, e.g. 'latex.doc-2024.1'.
func VersionedName(canonical, version string) string {
	return canonical + "-" + version
}

// SplitVersionedName splits a versioned identity back into its canonical
// name and version at the last '-'.
func SplitVersionedName(versioned string) (canonical, version string) {
	i := strings.LastIndex(versioned, "-")
	if i < 0 {
		return versioned, ""
	}
	return versioned[:i], versioned[i+1:]
}
