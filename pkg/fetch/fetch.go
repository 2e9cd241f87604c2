// File: texlive-combiner/pkg/fetch/fetch.go
package fetch

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"texlive-combiner/pkg/types"
	"texlive-combiner/pkg/utils"
)

// maxMirrorAttempts caps how many candidate URLs are tried per artifact.
// Mirror order is significant: the first reachable, verifiable source
// wins and later candidates exist purely as fallback.
const maxMirrorAttempts = 4

// Fetcher materializes artifact descriptors on disk. It is the only part
// of the system that performs I/O; resolution itself stays pure.
type Fetcher struct {
	// Client is the HTTP client used for downloads. http.DefaultClient
	// when nil.
	Client *http.Client
	// Jobs bounds how many artifacts are fetched concurrently.
	Jobs   int
	Logger *slog.Logger
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// FetchAll materializes every artifact into destDir. Artifacts are
// independent and fetched concurrently up to the Jobs limit; a single
// failure fails the whole build, since every listed artifact is mandatory
// for the environment's completeness.
func (f *Fetcher) FetchAll(ctx context.Context, artifacts []types.ArtifactDescriptor, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	jobs := f.Jobs
	if jobs <= 0 {
		jobs = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, artifact := range artifacts {
		artifact := artifact
		g.Go(func() error {
			return f.fetchOne(ctx, artifact, destDir)
		})
	}
	return g.Wait()
}

func (f *Fetcher) fetchOne(ctx context.Context, d types.ArtifactDescriptor, destDir string) error {
	id := utils.VersionedName(utils.CanonicalName(d.Name, string(d.Variant)), d.Version)

	if d.Placeholder {
		// Zero-content graph node: nothing to fetch.
		return nil
	}
	if d.Variant == types.VariantBin {
		return f.materializeBinary(d, destDir)
	}

	archive, attempts, err := f.download(ctx, d, id)
	if err != nil {
		return &types.FetchError{Artifact: id, Attempts: attempts, Err: err}
	}
	defer os.Remove(archive)

	// Unpack into a private staging dir first: the merge into destDir is
	// first-writer-wins across variants, and trust-on-first-use
	// fingerprints must cover exactly this artifact's tree.
	staging, err := os.MkdirTemp("", "texlive-unpack-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)
	if err := Unpack(archive, staging, d.StripPrefix, d.Exclude); err != nil {
		return fmt.Errorf("unpack of %s failed: %w", id, err)
	}

	if d.TrustFirstUse {
		fp, err := Fingerprint(staging)
		if err != nil {
			return err
		}
		f.logger().Warn("accepted artifact without pre-shared hash (trust-on-first-use)",
			"artifact", id, "fingerprint", fp)
	}

	if err := mergeDir(staging, destDir); err != nil {
		return err
	}
	if d.PostUnpack != "" {
		if err := runHook(d.PostUnpack, destDir); err != nil {
			return fmt.Errorf("post-unpack hook for %s failed: %w", id, err)
		}
	}
	return nil
}

// download tries the artifact's candidate URLs in order and returns the
// path of a temporary archive whose sha512 matched the expected hash (or
// any successful download when the hash is unknown).
func (f *Fetcher) download(ctx context.Context, d types.ArtifactDescriptor, id string) (string, int, error) {
	if len(d.URLs) == 0 {
		return "", 0, errors.New("artifact has no candidate URLs")
	}
	urls := d.URLs
	if len(urls) > maxMirrorAttempts {
		urls = urls[:maxMirrorAttempts]
	}
	var lastErr error
	attempts := 0
	for _, url := range urls {
		attempts++
		archive, err := f.downloadOne(ctx, url, d.Hash)
		if err == nil {
			return archive, attempts, nil
		}
		lastErr = err
		f.logger().Warn("mirror failed, trying next candidate", "artifact", id, "url", url, "error", err)
	}
	return "", attempts, lastErr
}

func (f *Fetcher) downloadOne(ctx context.Context, url, expectedHash string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "texlive-archive-*"+archiveSuffix(url))
	if err != nil {
		return "", err
	}
	hasher := sha512.New()
	_, err = io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if expectedHash != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, expectedHash) {
			os.Remove(tmp.Name())
			return "", fmt.Errorf("hash mismatch: got sha512 %s, want %s", got, expectedHash)
		}
	}
	return tmp.Name(), nil
}

// archiveSuffix picks the container suffix out of a candidate URL so the
// temporary file keeps it for format dispatch at unpack time.
func archiveSuffix(url string) string {
	for _, suffix := range []string{".tar.xz", ".tar.zst", ".tar.gz", ".tgz", ".tar"} {
		if strings.HasSuffix(url, suffix) {
			return suffix
		}
	}
	return ".tar.xz"
}

// materializeBinary copies the collaborator's pre-built files into the
// environment. Bin artifacts are never downloaded.
func (f *Fetcher) materializeBinary(d types.ArtifactDescriptor, destDir string) error {
	if d.Binary == nil {
		return fmt.Errorf("bin artifact %s has no binary-package record", d.Name)
	}
	for rel, src := range d.Binary.Files {
		dst := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("could not place binary file %s: %w", rel, err)
		}
	}
	return nil
}

// mergeDir recursively copies src into dst without overwriting anything
// already present: when multiple artifacts share a destination path, the
// first writer wins.
func mergeDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)
		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode().Perm()|0700)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil && !os.IsExist(err) {
				return err
			}
			return nil
		}
		return copyFile(path, dstPath)
	})
}

// copyFile creates dst with src's content and mode. An existing dst is
// left untouched (first-writer-wins).
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()
	info, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer dstFile.Close()
	_, err = io.Copy(dstFile, srcFile)
	return err
}

// runHook executes an entry's post-unpack hook text verbatim in dir.
func runHook(script, dir string) error {
	cmd := exec.Command("sh", "-c", script)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
