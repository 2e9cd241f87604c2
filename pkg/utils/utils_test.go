package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalName(t *testing.T) {
	require.Equal(t, "latex", CanonicalName("latex", "run"))
	require.Equal(t, "latex.doc", CanonicalName("latex", "doc"))
	require.Equal(t, "latex.source", CanonicalName("latex", "source"))
}

func TestVersionedNameRoundtrip(t *testing.T) {
	versioned := VersionedName("latex.doc", "2024.1")
	require.Equal(t, "latex.doc-2024.1", versioned)

	canonical, version := SplitVersionedName(versioned)
	require.Equal(t, "latex.doc", canonical)
	require.Equal(t, "2024.1", version)
}
