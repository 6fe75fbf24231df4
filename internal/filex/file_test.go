package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_RelativeToCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("shared_treasures")
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.Join(tmp, "shared_treasures"))
	require.NoError(t, err)
	wantResolved, _ := filepath.EvalSymlinks(want)
	gotResolved, _ := filepath.EvalSymlinks(got)
	require.Equal(t, wantResolved, gotResolved)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_AbsoluteAndNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	got, err := EnsureDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	again, err := EnsureDir(dir)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestEnsureDir_FailsIfFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err)
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		name, stem, ext string
	}{
		{"notes.txt", "notes", ".txt"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"README", "README", ""},
		{".profile", ".profile", ""},
		{"..hidden.cfg", "..hidden", ".cfg"},
		{"trailing.", "trailing", "."},
		{"my map.png", "my map", ".png"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stem, ext := SplitExt(tt.name)
			assert.Equal(t, tt.stem, stem)
			assert.Equal(t, tt.ext, ext)
		})
	}
}
