package resolver

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"texlive-combiner/pkg/catalog"
	"texlive-combiner/pkg/types"
)

func runfileEntry(name string, deps ...string) *types.CatalogEntry {
	return &types.CatalogEntry{
		Name:        name,
		Version:     "2024.1",
		HasRunfiles: true,
		Deps:        deps,
		Hashes:      map[string]string{"run": "hash-" + name},
	}
}

func testCatalog(entries ...*types.CatalogEntry) types.Catalog {
	cat := make(types.Catalog, len(entries))
	for _, e := range entries {
		cat[e.Name] = e
	}
	return cat
}

func TestFlattenTransitiveClosure(t *testing.T) {
	// C depends on A and B; A depends on B. B must appear exactly once
	// despite being reachable both directly and via A.
	cat := testCatalog(
		runfileEntry("a", "b"),
		runfileEntry("b"),
		runfileEntry("c", "a", "b"),
	)
	r := New(cat, Options{}, nil)

	flattened, err := r.Flatten("c")
	require.NoError(t, err)
	require.Equal(t, []string{"a:run", "b:run", "c:run"}, identities(flattened.Artifacts))
}

func TestFlattenPlaceholderForRunlessEntry(t *testing.T) {
	filter := &types.CatalogEntry{Name: "hyph-filter", Version: "2024.1"}
	cat := testCatalog(runfileEntry("user", "hyph-filter"), filter)
	r := New(cat, Options{}, nil)

	flattened, err := r.Flatten("user")
	require.NoError(t, err)
	require.Equal(t, []string{"hyph-filter:run", "user:run"}, identities(flattened.Artifacts))

	placeholder := flattened.Artifacts[0]
	require.True(t, placeholder.Placeholder)
	require.Empty(t, placeholder.URLs, "a placeholder must never trigger a fetch")
	require.False(t, placeholder.TrustFirstUse)
}

func TestFlattenEmitsDocAndSourceVariants(t *testing.T) {
	entry := runfileEntry("full")
	entry.Hashes["doc"] = "dochash"
	entry.Hashes["source"] = "sourcehash"
	r := New(testCatalog(entry), Options{}, nil)

	flattened, err := r.Flatten("full")
	require.NoError(t, err)
	require.Equal(t, []string{"full:doc", "full:run", "full:source"}, identities(flattened.Artifacts))
}

func TestFlattenSplicesBinaryPackage(t *testing.T) {
	binaries := map[string]types.BinaryPackage{
		"pdftex": {
			Files:    map[string]string{"bin/pdftex": "/nix/prebuilt/pdftex"},
			Metadata: map[string]string{"pname": "collaborator-name", "builder": "external"},
		},
	}
	r := New(testCatalog(runfileEntry("pdftex")), Options{Binaries: binaries}, nil)

	flattened, err := r.Flatten("pdftex")
	require.NoError(t, err)
	require.Equal(t, []string{"pdftex:bin", "pdftex:run"}, identities(flattened.Artifacts))

	bin := flattened.Artifacts[0]
	require.NotNil(t, bin.Binary)
	require.Equal(t, "pdftex", bin.Metadata["pname"], "identity fields override the collaborator's")
	require.Equal(t, "bin", bin.Metadata["type"])
	require.Equal(t, "external", bin.Metadata["builder"], "other metadata is merged through")
}

func TestFlattenMemoized(t *testing.T) {
	r := New(testCatalog(runfileEntry("a")), Options{}, nil)

	first, err := r.Flatten("a")
	require.NoError(t, err)
	second, err := r.Flatten("a")
	require.NoError(t, err)
	require.Same(t, first, second, "second call must hit the memo table")
}

func TestFlattenIdempotentUnderConcurrency(t *testing.T) {
	cat := testCatalog(
		runfileEntry("a", "b"),
		runfileEntry("b"),
		runfileEntry("c", "a", "b"),
	)
	r := New(cat, Options{}, nil)

	results := make([][]string, 16)
	errs := make([]error, len(results))
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			flattened, err := r.Flatten("c")
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = identities(flattened.Artifacts)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, got := range results[1:] {
		if diff := cmp.Diff(results[0], got); diff != "" {
			t.Fatalf("concurrent flatten results differ (-first +other):\n%s", diff)
		}
	}
}

func TestFlattenUnknownEntryIsFatal(t *testing.T) {
	r := New(testCatalog(), Options{}, nil)
	_, err := r.Flatten("ghost")
	require.ErrorIs(t, err, types.ErrCatalogIntegrity)
}

func TestFlattenUnknownDependencyIsFatal(t *testing.T) {
	r := New(testCatalog(runfileEntry("a", "ghost")), Options{}, nil)
	_, err := r.Flatten("a")
	require.ErrorIs(t, err, types.ErrCatalogIntegrity)
	require.Contains(t, err.Error(), "ghost")
}

func TestFlattenMissingHashesDegradeInsteadOfFailing(t *testing.T) {
	entry := &types.CatalogEntry{
		Name:        "gapped",
		Version:     "2024.1",
		HasRunfiles: true,
		Hashes:      map[string]string{},
	}
	r := New(testCatalog(entry), Options{}, nil)

	flattened, err := r.Flatten("gapped")
	require.NoError(t, err)
	require.Len(t, flattened.Artifacts, 1)
	require.True(t, flattened.Artifacts[0].TrustFirstUse)
}

func TestFlattenAfterCollectionRebalance(t *testing.T) {
	raw := map[string]*types.CatalogEntry{
		"texlive-common":          {HasRunfiles: true},
		"texlive-en":              {HasRunfiles: true},
		"latex-bin":               {HasRunfiles: true},
		"luahbtex":                {HasRunfiles: true},
		"collection-basic":        {Deps: []string{"metafont", "xdvi", "plain"}},
		"collection-metapost":     {Deps: []string{"metapost"}},
		"collection-plaingeneric": {Deps: []string{"plain"}},
		"metafont":                {HasRunfiles: true},
		"xdvi":                    {HasRunfiles: true},
		"plain":                   {HasRunfiles: true},
		"metapost":                {HasRunfiles: true},
	}
	for name, entry := range raw {
		entry.Name = name
		entry.Version = "2024.1"
	}
	cat, err := catalog.ApplyOverrides(raw)
	require.NoError(t, err)
	require.NoError(t, catalog.Validate(cat))
	r := New(cat, Options{}, nil)

	basic, err := r.Flatten("collection-basic")
	require.NoError(t, err)
	require.NotContains(t, identities(basic.Artifacts), "metafont:run")
	require.NotContains(t, identities(basic.Artifacts), "xdvi:run")
	require.Contains(t, identities(basic.Artifacts), "plain:run")

	metapost, err := r.Flatten("collection-metapost")
	require.NoError(t, err)
	require.Contains(t, identities(metapost.Artifacts), "metafont:run")

	plaingeneric, err := r.Flatten("collection-plaingeneric")
	require.NoError(t, err)
	require.Contains(t, identities(plaingeneric.Artifacts), "xdvi:run")
}
