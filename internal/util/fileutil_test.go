package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("boom")
}

func TestAtomicWrite(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "a", "b", "file.txt")

	n, err := AtomicWrite(dst, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = os.Stat(dst + ".ftpsched.tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestAtomicWriteKeepsOldContentOnFailure(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	_, err := AtomicWrite(dst, failingReader{})
	require.Error(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	_, err = os.Stat(dst + ".ftpsched.tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x", "y", "z")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, RemoveIfExists(path))

	require.NoError(t, os.WriteFile(path, nil, 0644))
	require.NoError(t, RemoveIfExists(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
