// Package repository is the directory-backed store of uploaded files.
//
// Files live flat in one directory. An upload first reserves its final name,
// writes into a hidden temp file under ".incoming", and is published under
// the reserved name with a rename only once it has been verified. Name
// allocation (probe, pick the next _v<N> suffix, reserve) is serialized, so
// two concurrent uploads of the same name always end up with distinct names.
package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/dmitrijs2005/treasurehunt/internal/filex"
	"github.com/google/uuid"
)

const (
	incomingDir = ".incoming"
	tempSuffix  = ".part"

	// MaxNameLength matches common filesystem limits.
	MaxNameLength = 255
)

type Repository struct {
	dir      string
	incoming string

	mu       sync.Mutex
	reserved map[string]struct{}
}

// New opens (creating if needed) the store rooted at dir. Temp files left
// behind by an earlier process are removed.
func New(dir string) (*Repository, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	incoming, err := filex.EnsureDir(filepath.Join(root, incomingDir))
	if err != nil {
		return nil, err
	}

	stale, err := filepath.Glob(filepath.Join(incoming, "*"+tempSuffix))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", incoming, err)
	}
	for _, p := range stale {
		_ = os.Remove(p)
	}

	return &Repository{
		dir:      root,
		incoming: incoming,
		reserved: make(map[string]struct{}),
	}, nil
}

// Dir returns the absolute storage directory.
func (r *Repository) Dir() string { return r.dir }

// ValidateName rejects names that are empty, too long, not a single path
// element, or that contain control characters.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", common.ErrorInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: longer than %d bytes", common.ErrorInvalidName, MaxNameLength)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", common.ErrorInvalidName, name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: %q contains control characters", common.ErrorInvalidName, name)
	}
	return nil
}

// Reserve allocates the final name for an upload of name: name itself when
// free, otherwise the first free "<stem>_v<N><ext>" with N starting at 1.
// A name is taken when it exists in the directory or is held by another
// open reservation.
func (r *Repository) Reserve(name string) (*Reservation, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	final, err := r.freeNameLocked(name)
	if err == nil {
		r.reserved[final] = struct{}{}
	}
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}

	tmp := filepath.Join(r.incoming, uuid.NewString()+tempSuffix)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		r.release(final)
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &Reservation{repo: r, requested: name, name: final, tmp: tmp, file: f}, nil
}

func (r *Repository) freeNameLocked(name string) (string, error) {
	stem, ext := filex.SplitExt(name)

	candidate := name
	for v := 1; ; v++ {
		taken, err := r.takenLocked(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_v%d%s", stem, v, ext)
	}
}

func (r *Repository) takenLocked(name string) (bool, error) {
	if _, ok := r.reserved[name]; ok {
		return true, nil
	}

	_, err := os.Lstat(filepath.Join(r.dir, name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
}

func (r *Repository) release(name string) {
	r.mu.Lock()
	delete(r.reserved, name)
	r.mu.Unlock()
}

// Open returns the stored file called name and its size. Unknown names,
// invalid names and non-regular entries all report common.ErrorNotFound.
func (r *Repository) Open(name string) (*os.File, int64, error) {
	if err := ValidateName(name); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrorNotFound, err)
	}

	f, err := os.Open(filepath.Join(r.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", common.ErrorNotFound, name)
		}
		return nil, 0, fmt.Errorf("open %s: %w", name, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", name, err)
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s is not a regular file", common.ErrorNotFound, name)
	}

	return f, fi.Size(), nil
}

// List returns the names of the stored files at this instant, sorted.
// Directories (including the temp area) are skipped.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
