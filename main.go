// File: texlive-combiner/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"texlive-combiner/pkg/catalog"
	"texlive-combiner/pkg/config"
	"texlive-combiner/pkg/fetch"
	"texlive-combiner/pkg/resolver"
	"texlive-combiner/pkg/types"
	"texlive-combiner/pkg/utils"
)

var (
	catalogPath    = pflag.String("catalog", config.CatalogFile, "catalog snapshot file")
	bundlesPath    = pflag.String("bundles", config.BundlesFile, "environment bundle definitions")
	fixedHashPath  = pflag.String("fixed-hashes", config.FixedHashFile, "fixed-hash override table")
	useFixedHashes = pflag.Bool("use-fixed-hashes", true, "consult the fixed-hash table for artifacts without an upstream hash")
	binariesPath   = pflag.String("binaries", config.BinariesFile, "binary-package table")
	mirrors        = pflag.StringSlice("mirror", nil, "mirror URL prefix, ordered, repeatable (default: built-in list)")
	jobs           = pflag.Int("jobs", 4, "concurrent artifact fetches")
	outDir         = pflag.String("out", config.EnvDir, "directory where environments are materialized")
)

func main() {
	pflag.Parse()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	args := pflag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}
	command := args[0]
	rest := args[1:]

	switch command {
	case "list":
		handleList()
	case "resolve":
		handleResolve(rest)
	case "combine":
		handleCombine(rest)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func handleList() {
	bundles, err := config.LoadBundles(*bundlesPath)
	if err != nil {
		fmt.Printf("Error loading bundles: %v\n", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s (%d packages)\n", name, len(bundles[name].Packages))
	}
}

func handleResolve(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: resolve command requires a package name.")
		printUsage()
		os.Exit(1)
	}
	r, _, err := newResolver()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	flattened, err := r.Flatten(args[0])
	if err != nil {
		fmt.Printf("Error resolving %s: %v\n", args[0], err)
		os.Exit(1)
	}
	fmt.Printf("%s resolves to %d artifacts:\n", flattened.Name, len(flattened.Artifacts))
	for _, a := range flattened.Artifacts {
		fmt.Printf("  - %s @ %s (%s)\n",
			utils.CanonicalName(a.Name, string(a.Variant)), a.Version, verification(a))
	}
}

func handleCombine(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: combine command requires an environment name.")
		printUsage()
		os.Exit(1)
	}
	envName := args[0]

	bundles, err := config.LoadBundles(*bundlesPath)
	if err != nil {
		fmt.Printf("Error loading bundles: %v\n", err)
		os.Exit(1)
	}
	bundle, ok := bundles[envName]
	if !ok {
		fmt.Printf("Unknown environment %q. Run 'list' to see the defined bundles.\n", envName)
		os.Exit(1)
	}

	r, cat, err := newResolver()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	selection := make([]*types.CatalogEntry, 0, len(bundle.Packages))
	for _, name := range bundle.Packages {
		entry, ok := cat[name]
		if !ok {
			fmt.Printf("Error: bundle %s selects unknown entry %q\n", envName, name)
			os.Exit(1)
		}
		selection = append(selection, entry)
	}

	fmt.Printf("Resolving environment %s...\n", envName)
	env, err := r.Combine(envName, selection)
	if err != nil {
		fmt.Printf("Error combining %s: %v\n", envName, err)
		os.Exit(1)
	}

	destDir := filepath.Join(*outDir, env.Name)
	fmt.Printf("Fetching %d artifacts into %s...\n", len(env.Artifacts), destDir)
	fetcher := &fetch.Fetcher{Jobs: *jobs}
	if err := fetcher.FetchAll(context.Background(), env.Artifacts, destDir); err != nil {
		fmt.Printf("Error building environment %s: %v\n", envName, err)
		os.Exit(1)
	}
	if err := writeEnvScript(env, destDir); err != nil {
		fmt.Printf("Error generating env.sh: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Environment %s assembled (%d artifacts).\n", env.Name, len(env.Artifacts))
}

// newResolver loads the catalog and its collaborators and wires up one
// resolution pass: raw snapshot -> overrides -> validation -> resolver.
func newResolver() (*resolver.Resolver, types.Catalog, error) {
	snap, err := config.LoadSnapshot(*catalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load catalog snapshot: %w", err)
	}
	cat, err := catalog.ApplyOverrides(snap.Packages)
	if err != nil {
		return nil, nil, err
	}
	if err := catalog.Validate(cat); err != nil {
		return nil, nil, err
	}
	fixed, err := config.LoadFixedHashes(*fixedHashPath)
	if err != nil {
		return nil, nil, err
	}
	binaries, err := config.LoadBinaries(*binariesPath)
	if err != nil {
		return nil, nil, err
	}
	opts := resolver.Options{
		Mirrors:        *mirrors,
		FixedHashes:    fixed,
		UseFixedHashes: *useFixedHashes,
		Binaries:       binaries,
	}
	return resolver.New(cat, opts, slog.Default()), cat, nil
}

func verification(a types.ArtifactDescriptor) string {
	switch {
	case a.Placeholder:
		return "placeholder, no fetch"
	case a.Variant == types.VariantBin:
		return "pre-built binary"
	case a.TrustFirstUse:
		return "trust-on-first-use"
	default:
		return "sha512 " + a.Hash[:min(12, len(a.Hash))] + "..."
	}
}

// writeEnvScript generates the environment's entry script so the unpacked
// union is usable as a named installable unit.
func writeEnvScript(env *types.Environment, dir string) error {
	var contentBuilder strings.Builder
	contentBuilder.WriteString("# This file is auto-generated by texlive-combiner.\n")
	contentBuilder.WriteString("# Do not edit this file manually.\n\n")
	fmt.Fprintf(&contentBuilder, "# Environment %q: %s\n", env.Name, strings.Join(env.Selection, ", "))
	contentBuilder.WriteString("TEXMFROOT=\"$(cd \"$(dirname \"$0\")\" && pwd)\"\n")
	contentBuilder.WriteString("export TEXMFROOT\n")
	contentBuilder.WriteString("PATH=\"$TEXMFROOT/bin:$PATH\"\n")
	contentBuilder.WriteString("export PATH\n")
	return os.WriteFile(filepath.Join(dir, "env.sh"), []byte(contentBuilder.String()), 0755)
}

func printUsage() {
	fmt.Println("Usage: texlive-combiner [flags] <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  list              List the defined environment bundles")
	fmt.Println("  resolve <pkg>     Print the flattened artifact closure of a package")
	fmt.Println("  combine <env>     Fetch and assemble a bundle into an installable environment")
	fmt.Println("\nFlags:")
	pflag.PrintDefaults()
}
