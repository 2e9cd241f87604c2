package fetch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestFingerprintDeterministic(t *testing.T) {
	files := map[string]string{
		"texmf/a.sty": "alpha",
		"texmf/b.sty": "beta",
	}
	first, err := Fingerprint(writeTree(t, files))
	require.NoError(t, err)
	second, err := Fingerprint(writeTree(t, files))
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Regexp(t, `^blake3:[0-9a-f]+$`, first)
}

func TestFingerprintDetectsContentChange(t *testing.T) {
	base, err := Fingerprint(writeTree(t, map[string]string{"a.sty": "alpha"}))
	require.NoError(t, err)
	changed, err := Fingerprint(writeTree(t, map[string]string{"a.sty": "ALPHA"}))
	require.NoError(t, err)
	require.NotEqual(t, base, changed)
}

func TestFingerprintDetectsRename(t *testing.T) {
	base, err := Fingerprint(writeTree(t, map[string]string{"a.sty": "same"}))
	require.NoError(t, err)
	renamed, err := Fingerprint(writeTree(t, map[string]string{"b.sty": "same"}))
	require.NoError(t, err)
	require.NotEqual(t, base, renamed)
}

func TestFingerprintDetectsExecutableBit(t *testing.T) {
	root := writeTree(t, map[string]string{"tool": "#!/bin/sh"})
	base, err := Fingerprint(root)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(filepath.Join(root, "tool"), 0755))
	flipped, err := Fingerprint(root)
	require.NoError(t, err)
	require.NotEqual(t, base, flipped)
}
