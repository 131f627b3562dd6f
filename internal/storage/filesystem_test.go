package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/pkg/platform/sentinel"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "bucket", "nested/dir/out.json", []byte(`[{"a":1}]`)))

	onDisk, err := os.ReadFile(filepath.Join(root, "bucket", "nested", "dir", "out.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1}]`, string(onDisk))

	got, err := s.Fetch(ctx, "bucket", "nested/dir/out.json")
	require.NoError(t, err)
	assert.Equal(t, onDisk, got)

	entries, err := os.ReadDir(filepath.Join(root, "bucket", "nested", "dir"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is removed after rename")
}

func TestFileStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "b", "f.csv", []byte("old")))
	require.NoError(t, s.Put(ctx, "b", "f.csv", []byte("new")))

	got, err := s.Fetch(ctx, "b", "f.csv")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileStore_NotFound(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), "b", "missing.csv")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFileStore_RejectsEscape(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, tc := range []struct{ container, path string }{
		{"b", "../../etc/passwd"},
		{"..", "x.csv"},
		{"b", "x/../../../y.csv"},
	} {
		_, err := s.Fetch(ctx, tc.container, tc.path)
		assert.ErrorIs(t, err, sentinel.ErrForbidden, "%s/%s", tc.container, tc.path)
		assert.ErrorIs(t, s.Put(ctx, tc.container, tc.path, []byte("x")), sentinel.ErrForbidden)
	}
}

func TestNewFileStore_InvalidRoot(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = NewFileStore(file)
	assert.Error(t, err)
}

func TestFileStore_SymlinkInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "real.csv"), []byte("id\n1\n"), 0o600))
	require.NoError(t, os.Symlink("real.csv", filepath.Join(root, "b", "alias.csv")))

	s, err := NewFileStore(root)
	require.NoError(t, err)
	got, err := s.Fetch(ctx, "b", "alias.csv")
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(got))
}

func TestFileStore_RejectsSymlinkEscape(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.csv"), []byte("ssn\n123\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o750))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.csv"), filepath.Join(root, "b", "link.csv")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "b", "out")))

	s, err := NewFileStore(root)
	require.NoError(t, err)

	_, err = s.Fetch(ctx, "b", "link.csv")
	assert.ErrorIs(t, err, sentinel.ErrForbidden)

	_, err = s.Fetch(ctx, "b", "out/secret.csv")
	assert.ErrorIs(t, err, sentinel.ErrForbidden)

	err = s.Put(ctx, "b", "out/written.csv", []byte("x"))
	assert.ErrorIs(t, err, sentinel.ErrForbidden)
	_, statErr := os.Stat(filepath.Join(outside, "written.csv"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	err = s.Put(ctx, "b", "link.csv", []byte("x"))
	if err == nil {
		data, readErr := os.ReadFile(filepath.Join(outside, "secret.csv"))
		require.NoError(t, readErr)
		assert.Equal(t, "ssn\n123\n", string(data), "rename replaces the link, not its target")
	}
}
