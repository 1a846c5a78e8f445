package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir)
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("fake-image-bytes"), "jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "fake-image-bytes", string(data))

	require.NoError(t, store.Delete(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestImageStore_UniqueNames(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save(strings.NewReader("a"), ".png")
	require.NoError(t, err)
	b, err := store.Save(strings.NewReader("b"), ".png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestImageStore_DeleteMissingIsNoOp(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Delete("never-existed.jpg"))
}

func TestImageStore_DeleteStripsPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir)
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	require.NoError(t, store.Delete(outside))
	_, err = os.Stat(outside)
	assert.NoError(t, err, "files outside the image dir must be untouched")
}
