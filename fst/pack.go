package fst

// CompiledAddr is the byte offset of a node's control byte within the
// serialized FST buffer. Addresses are assigned in strictly decreasing order
// of creation: the builder writes tail-first, so every transition target lies
// below the node that references it.
type CompiledAddr uint64

const (
	// EmptyAddress is the canonical final state with no transitions and a
	// zero final output. It is never written to the buffer.
	EmptyAddress CompiledAddr = 0

	// NoneAddress means "no transition". It never appears in serialized
	// form; real node addresses start past the file header.
	NoneAddress CompiledAddr = 1
)

// packSize returns the minimum number of bytes (1..8) needed to represent v
// in little-endian unsigned form. Zero still needs one byte.
func packSize(v uint64) uint8 {
	n := uint8(1)
	for v >= 1<<8 {
		v >>= 8
		n++
	}
	return n
}

// packUint appends exactly nbytes little-endian bytes of v to buf.
// High bytes beyond nbytes are truncated; the caller guarantees
// nbytes >= packSize(v).
func packUint(buf []byte, v uint64, nbytes uint8) []byte {
	for i := uint8(0); i < nbytes; i++ {
		buf = append(buf, byte(v))
		v >>= 8
	}
	return buf
}

// unpackUint decodes nbytes little-endian bytes from buf. The caller
// guarantees len(buf) >= nbytes; node offsets are derived from the trailing
// control byte chain, so bounds are established before any field read.
func unpackUint(buf []byte, nbytes uint8) uint64 {
	var v uint64
	for i := int(nbytes) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// deltaValue computes the stored form of a transition target: the distance
// from the start of the referencing node's encoding, or the zero sentinel
// for the empty final state. nodeStart > transAddr holds for every real
// target, so the sentinel is unambiguous.
func deltaValue(nodeStart, transAddr CompiledAddr) uint64 {
	if transAddr == EmptyAddress {
		return 0
	}
	return uint64(nodeStart - transAddr)
}

// deltaSize returns the byte width needed to pack the delta between
// nodeStart and transAddr.
func deltaSize(nodeStart, transAddr CompiledAddr) uint8 {
	return packSize(deltaValue(nodeStart, transAddr))
}

// packDelta appends the nbytes-wide delta encoding of transAddr relative to
// nodeStart.
func packDelta(buf []byte, nodeStart, transAddr CompiledAddr, nbytes uint8) []byte {
	return packUint(buf, deltaValue(nodeStart, transAddr), nbytes)
}

// unpackDelta is the exact inverse of packDelta.
func unpackDelta(buf []byte, nbytes uint8, nodeStart CompiledAddr) CompiledAddr {
	delta := unpackUint(buf, nbytes)
	if delta == 0 {
		return EmptyAddress
	}
	return nodeStart - CompiledAddr(delta)
}

// packSizes records, in one byte, how many bytes encode a transition delta
// (high nibble) and an output value (low nibble) within a node.
type packSizes uint8

func newPackSizes(trans, output uint8) packSizes {
	return packSizes(trans<<4 | output)
}

func (p packSizes) transSize() uint8 {
	return uint8(p) >> 4
}

func (p packSizes) outputSize() uint8 {
	return uint8(p) & 0x0f
}

func (p packSizes) valid() bool {
	return p.transSize() <= 8 && p.outputSize() <= 8
}
