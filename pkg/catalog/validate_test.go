package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"texlive-combiner/pkg/types"
)

func catalogOf(entries map[string][]string) types.Catalog {
	cat := make(types.Catalog, len(entries))
	for name, deps := range entries {
		cat[name] = &types.CatalogEntry{Name: name, Deps: deps}
	}
	return cat
}

func TestValidateAcceptsAcyclicCatalog(t *testing.T) {
	cat := catalogOf(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": nil,
	})
	require.NoError(t, Validate(cat))
}

func TestValidateRejectsUnknownReference(t *testing.T) {
	cat := catalogOf(map[string][]string{
		"a": {"ghost"},
	})
	err := Validate(cat)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrCatalogIntegrity)
	require.Contains(t, err.Error(), "ghost")
}

func TestValidateRejectsCycle(t *testing.T) {
	cat := catalogOf(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": nil,
	})
	err := Validate(cat)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrCatalogIntegrity)
	require.Contains(t, err.Error(), "cycle")
	require.Contains(t, err.Error(), "a")
	require.Contains(t, err.Error(), "b")
	require.Contains(t, err.Error(), "c")
}

func TestValidateRejectsSelfCycle(t *testing.T) {
	// The override layer removes self-deps; a catalog that skipped it must
	// still be caught here.
	cat := catalogOf(map[string][]string{
		"a": {"a"},
	})
	err := Validate(cat)
	require.ErrorIs(t, err, types.ErrCatalogIntegrity)
}
