// Package filex contains small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if missing and returns its absolute
// path. Relative paths are resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// SplitExt splits name into stem and extension. Unlike filepath.Ext, a
// leading dot is part of the stem, so ".profile" has no extension.
func SplitExt(name string) (stem, ext string) {
	i := len(name) - 1
	for i >= 0 && name[i] != '.' {
		i--
	}

	// no dot, or only leading dots before it
	j := 0
	for j < len(name) && name[j] == '.' {
		j++
	}
	if i < j {
		return name, ""
	}

	return name[:i], name[i:]
}
