package store

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriterReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "data.bin")

	w, err := NewFileWriter(path, 0)
	require.NoError(t, err)
	_, err = w.Write([]byte("head"))
	require.NoError(t, err)
	require.NoError(t, w.WriteByte(0x7f))
	require.NoError(t, w.WriteUvarint(1<<40 + 7))
	require.NoError(t, w.WriteUint32(0xdeadbeef))
	assert.Equal(t, int64(4+1+6+4), w.Offset())
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	r, err := NewFileReader(path, 0)
	require.NoError(t, err)
	defer r.Close()

	head := make([]byte, 4)
	_, err = io.ReadFull(r, head)
	require.NoError(t, err)
	assert.Equal(t, "head", string(head))

	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), b)

	v, err := r.ReadUvarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40+7), v)

	u, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u)

	_, err = r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileReaderMissing(t *testing.T) {
	_, err := NewFileReader(filepath.Join(t.TempDir(), "nope"), 0)
	assert.Error(t, err)
}
