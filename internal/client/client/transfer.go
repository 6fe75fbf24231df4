package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/dmitrijs2005/treasurehunt/internal/digest"
	"github.com/dmitrijs2005/treasurehunt/internal/filex"
)

// PartSuffix marks an incomplete download next to its final path.
const PartSuffix = ".part"

// WrapFunc lets callers observe a payload stream, e.g. to drive a progress
// bar. total is the full file size, done the bytes already in place.
type WrapFunc func(total, done int64, r io.Reader) io.Reader

func passThrough(_, _ int64, r io.Reader) io.Reader { return r }

// UploadFile hashes the local file at path and uploads it under its base
// name. It returns the name the server stored it under.
func UploadFile(ctx context.Context, c *Client, path string, wrap WrapFunc) (string, error) {
	if wrap == nil {
		wrap = passThrough
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum, size, err := digest.Reader(f, nil)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return c.Upload(ctx, filepath.Base(path), size, sum, wrap(size, 0, f))
}

// DownloadFile fetches name into dir. Bytes already present in
// "<dir>/<name>.part" are kept and only the rest is requested. The result
// is checked against the announced digest: on a match the part file is
// renamed to its final name, otherwise it is deleted and
// common.ErrorIntegrity is returned.
func DownloadFile(ctx context.Context, c *Client, name, dir string, wrap WrapFunc) (string, error) {
	if wrap == nil {
		wrap = passThrough
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", common.ErrorInvalidName, name)
	}

	root, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(root, name)
	part := dest + PartSuffix

	f, err := os.OpenFile(part, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := digest.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", part, err)
	}

	t, err := c.Reveal(ctx, name, h.Size())
	if err != nil {
		if h.Size() == 0 {
			_ = f.Close()
			_ = os.Remove(part)
		}
		return "", err
	}

	if t.Offset > t.Size {
		// The local part is longer than the file on the server; start over.
		if err := f.Truncate(0); err != nil {
			return "", err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		h = digest.New()
		if t, err = c.Reveal(ctx, name, 0); err != nil {
			return "", err
		}
	}

	if _, err := io.Copy(h.Tee(f), wrap(t.Size, t.Offset, t.Body)); err != nil {
		return "", fmt.Errorf("receive %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if !digest.Equal(h.Hex(), t.Digest) {
		_ = os.Remove(part)
		return "", fmt.Errorf("%w: %s", common.ErrorIntegrity, name)
	}

	if err := os.Rename(part, dest); err != nil {
		return "", err
	}
	return dest, nil
}
