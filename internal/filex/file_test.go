package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()

	got, err := EnsureDir(tmp, "docs/a/b")
	require.NoError(t, err)

	want := filepath.Join(tmp, "docs", "a", "b")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()

	first, err := EnsureDir(tmp, "blobs")
	require.NoError(t, err)

	second, err := EnsureDir(tmp, "blobs")
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_EmptyRelEnsuresBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "root")

	got, err := EnsureDir(base, "")
	require.NoError(t, err)
	require.Equal(t, base, got)

	ok, err := Exists(base)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmp, "blobs"), []byte("x"), 0o660))

	_, err := EnsureDir(tmp, "blobs")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestEnsureParent(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "data", "library.db")

	require.NoError(t, EnsureParent(p))

	ok, err := Exists(filepath.Join(tmp, "data"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(p)
	require.NoError(t, err)
	require.False(t, ok)
}
