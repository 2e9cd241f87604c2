// File: pkg/fetch/unpack.go
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Unpack extracts an archive into dest, stripping strip leading path
// components, skipping excluded subpaths, and never overwriting files
// already present. The container format is picked from the archive file's
// suffix: .tar.xz, .tar.zst, .tar.gz/.tgz, or bare .tar.
func Unpack(archivePath, dest string, strip int, exclude []string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader, closer, err := decompressor(archivePath, file)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		rel, ok := stripComponents(name, strip)
		if !ok {
			continue
		}
		if isExcluded(name, rel, exclude) {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return fmt.Errorf("archive entry %q escapes the destination", hdr.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode).Perm()|0700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFileExcl(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		default:
			// Hard links, devices etc. do not occur in catalog archives.
		}
	}
}

func decompressor(name string, file io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(name, ".tar.xz"):
		r, err := xz.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil
	case strings.HasSuffix(name, ".tar.zst"):
		r, err := zstd.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		r, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	case strings.HasSuffix(name, ".tar"):
		return file, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(name))
	}
}

// stripComponents drops the first strip path components from a slash
// separated name. Entries with no components left are skipped entirely.
func stripComponents(name string, strip int) (string, bool) {
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	parts := strings.Split(name, "/")
	if len(parts) <= strip {
		return "", false
	}
	return strings.Join(parts[strip:], "/"), true
}

// isExcluded matches the exclude prefixes against both the raw archive
// path and the stripped one, so the metadata subpath is filtered whether
// the archive nests it under a top-level directory or not.
func isExcluded(raw, rel string, exclude []string) bool {
	for _, prefix := range exclude {
		if strings.HasPrefix(rel, prefix) || strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// writeFileExcl writes a regular file unless it already exists.
func writeFileExcl(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}
