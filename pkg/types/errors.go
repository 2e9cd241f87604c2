// File: pkg/types/errors.go
package types

import (
	"errors"
	"fmt"
)

// ErrCatalogIntegrity marks fatal defects in the catalog itself: a missing
// override target, a reference to an unknown entry name, or a dependency
// cycle. Resolution aborts on these; they are never recovered.
var ErrCatalogIntegrity = errors.New("catalog integrity error")

// FetchError reports that one artifact could not be downloaded and
// verified after exhausting its mirror candidates. It does not corrupt
// sibling artifacts, but the containing environment build fails as a
// whole since every listed artifact is mandatory.
type FetchError struct {
	Artifact string // versioned identity, e.g. "latex.doc-2024.1"
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch of %s failed after %d attempt(s): %v", e.Artifact, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
