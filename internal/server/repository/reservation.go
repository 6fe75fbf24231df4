package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
)

// Reservation holds a final name for an in-flight upload together with the
// hidden temp file that receives its bytes. Exactly one of Commit or Abort
// must be called.
type Reservation struct {
	repo      *Repository
	requested string
	name      string
	tmp       string
	file      *os.File
	done      bool
}

// Name is the final name the upload will be published under.
func (rv *Reservation) Name() string { return rv.name }

func (rv *Reservation) Write(p []byte) (int, error) {
	if rv.done {
		return 0, common.ErrorNotReserved
	}
	return rv.file.Write(p)
}

// Commit flushes the temp file and publishes it. If something outside the
// server created the reserved name in the meantime, the next free version
// of the originally requested name is used instead. The published name is
// returned.
func (rv *Reservation) Commit() (string, error) {
	if rv.done {
		return "", common.ErrorNotReserved
	}
	rv.done = true

	if err := closeSynced(rv.file); err != nil {
		_ = os.Remove(rv.tmp)
		rv.repo.release(rv.name)
		return "", err
	}

	r := rv.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, rv.name)

	final := rv.name
	if _, err := os.Lstat(filepath.Join(r.dir, final)); !errors.Is(err, fs.ErrNotExist) {
		next, err := r.freeNameLocked(rv.requested)
		if err != nil {
			_ = os.Remove(rv.tmp)
			return "", err
		}
		final = next
	}

	if err := os.Rename(rv.tmp, filepath.Join(r.dir, final)); err != nil {
		_ = os.Remove(rv.tmp)
		return "", fmt.Errorf("publish %s: %w", final, err)
	}

	rv.name = final
	return final, nil
}

// Abort discards the temp file and frees the reserved name. Calling it
// after Commit or a previous Abort is a no-op.
func (rv *Reservation) Abort() error {
	if rv.done {
		return nil
	}
	rv.done = true

	_ = rv.file.Close()
	err := os.Remove(rv.tmp)
	rv.repo.release(rv.name)

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}

func closeSynced(f *os.File) error {
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}
