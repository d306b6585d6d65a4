package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "seg/0001.lxs", []byte("first segment")))
	require.NoError(t, s.Put(ctx, "seg/0002.lxs", []byte("second")))
	require.NoError(t, s.Put(ctx, "other.bin", []byte("x")))

	b, err := s.Open(ctx, "seg/0001.lxs")
	require.NoError(t, err)
	assert.Equal(t, int64(13), b.Size())
	data, err := ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, "first segment", string(data))

	buf := make([]byte, 7)
	_, err = b.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "segment", string(buf))
	require.NoError(t, b.Close())

	// Overwrite is atomic: the new contents replace the old in one step.
	require.NoError(t, s.Put(ctx, "seg/0001.lxs", []byte("rewritten")))
	b, err = s.Open(ctx, "seg/0001.lxs")
	require.NoError(t, err)
	data, err = ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", string(data))
	require.NoError(t, b.Close())

	names, err := s.List(ctx, "seg/")
	require.NoError(t, err)
	assert.Equal(t, []string{"seg/0001.lxs", "seg/0002.lxs"}, names)

	require.NoError(t, s.Delete(ctx, "seg/0002.lxs"))
	require.NoError(t, s.Delete(ctx, "seg/0002.lxs"))
	names, err = s.List(ctx, "seg/")
	require.NoError(t, err)
	assert.Equal(t, []string{"seg/0001.lxs"}, names)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, s)
}

func TestLocalStoreMappable(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "blob", []byte("mapped")))

	b, err := s.Open(ctx, "blob")
	require.NoError(t, err)
	defer b.Close()

	m, ok := b.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "mapped", string(data))
}
