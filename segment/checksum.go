package segment

import (
	"hash"
	"hash/crc32"
	"io"
)

// Segment integrity uses CRC32 (IEEE polynomial): fast, hardware
// accelerated, and good at catching storage corruption. It is not
// cryptographically secure and only guards against accidental damage.

var crc32Table = crc32.MakeTable(crc32.IEEE)

// ComputeChecksum returns the CRC32 of data.
func ComputeChecksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32Table)
}

// checksumWriter wraps an io.Writer and keeps a running CRC32 of every
// byte written through it.
type checksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, hash: crc32.New(crc32Table)}
}

func (cw *checksumWriter) Write(p []byte) (int, error) {
	if _, err := cw.hash.Write(p); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}

func (cw *checksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}
