package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFsStoreRoundTrip(t *testing.T) {
	store, err := NewFsStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Put([]byte("hello blobs"))
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	data, err := store.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello blobs"), data)
}

func TestFsStorePutIsContentAddressed(t *testing.T) {
	store, err := NewFsStore(t.TempDir())
	require.NoError(t, err)

	ref1, err := store.Put([]byte("same bytes"))
	require.NoError(t, err)
	ref2, err := store.Put([]byte("same bytes"))
	require.NoError(t, err)
	ref3, err := store.Put([]byte("different bytes"))
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)
	assert.NotEqual(t, ref1, ref3)
}

func TestFsStoreDelete(t *testing.T) {
	store, err := NewFsStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Put([]byte("to delete"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ref))
	_, err = store.Get(ref)
	assert.Error(t, err)

	// Deleting a missing blob is not an error.
	assert.NoError(t, store.Delete(ref))
}
