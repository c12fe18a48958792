package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	assert.Equal(t, "hero", Stem("hero.p3m"))
	assert.Equal(t, "hero", Stem("assets/models/hero.p3m"))
	assert.Equal(t, "hero", Stem("hero"))
	assert.Equal(t, "hero.walk", Stem("hero.walk.frm"))
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0o644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0o644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.bin", entries[0].Name())
}

func TestAtomicWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.bin")
	assert.Error(t, AtomicWriteFile(path, []byte("x"), 0o644))
}

func TestWriteFileSet(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")

	require.NoError(t, WriteFileSet([]FileEntry{
		{Path: a, Data: []byte("aa")},
		{Path: b, Data: []byte("bb")},
	}, 0o644))

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("aa"), data)
	data, err = os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("bb"), data)
}

func TestWriteFileSetAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.bin")
	bad := filepath.Join(dir, "missing", "b.bin")

	err := WriteFileSet([]FileEntry{
		{Path: good, Data: []byte("aa")},
		{Path: bad, Data: []byte("bb")},
	}, 0o644)
	require.Error(t, err)

	// A failed set write finalizes nothing and leaves no temp files.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
