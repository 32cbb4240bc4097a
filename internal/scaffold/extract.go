package scaffold

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/fiberplane/create-honc-app/internal/filesystem"
)

const maxFileSize = 16 << 20

// ErrUnsafePath is returned for archive entries that would escape the target.
var ErrUnsafePath = errors.New("archive entry escapes target directory")

// extractTarGz writes every regular file below subdir into dest. The first path
// component (the "<owner>-<repo>-<sha>" directory GitHub adds) is dropped.
// It returns the number of files written.
func extractTarGz(fsys filesystem.FileSystem, r io.Reader, subdir, dest string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("invalid gzip stream: %w", err)
	}
	defer gz.Close()

	prefix := strings.Trim(subdir, "/")
	if prefix != "" {
		prefix += "/"
	}

	written := 0
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("invalid tar stream: %w", err)
		}

		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		_, rest, ok := strings.Cut(path.Clean(hdr.Name), "/")
		if !ok || !strings.HasPrefix(rest+"/", prefix) {
			continue
		}
		rel := strings.TrimPrefix(rest, prefix)
		if rel == "" || rel == rest && prefix != "" {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !within(dest, target) {
			return written, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fsys.MkdirAll(target, 0755); err != nil {
				return written, err
			}
		case tar.TypeReg:
			if hdr.Size > maxFileSize {
				return written, fmt.Errorf("archive entry %s exceeds %d bytes", hdr.Name, maxFileSize)
			}
			data, err := io.ReadAll(io.LimitReader(tr, maxFileSize))
			if err != nil {
				return written, fmt.Errorf("failed to read %s: %w", hdr.Name, err)
			}
			if err := fsys.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return written, err
			}
			if err := fsys.WriteFile(target, data, filePerm(hdr)); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", target, err)
			}
			written++
		}
	}

	return written, nil
}

func filePerm(hdr *tar.Header) fs.FileMode {
	perm := fs.FileMode(hdr.Mode).Perm()
	if perm&0o111 != 0 {
		return 0755
	}
	return 0644
}

func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
