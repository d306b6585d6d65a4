package fst

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackSize(t *testing.T) {
	tests := []struct {
		v    uint64
		want uint8
	}{
		{0, 1},
		{1, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 3},
		{1 << 24, 4},
		{1 << 32, 5},
		{1 << 40, 6},
		{1 << 48, 7},
		{1 << 56, 8},
		{math.MaxUint64, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, packSize(tt.v), "packSize(%d)", tt.v)
	}
}

func TestPackUintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 255, 256, 65535, 65536,
		1<<24 - 1, 1 << 24, 1<<32 - 1, 1 << 32,
		1<<48 + 12345, math.MaxUint64,
	}
	for _, v := range values {
		n := packSize(v)
		buf := packUint(nil, v, n)
		require.Len(t, buf, int(n))
		assert.Equal(t, v, unpackUint(buf, n), "value %d", v)
	}
}

func TestPackUintWiderThanNeeded(t *testing.T) {
	buf := packUint(nil, 42, 8)
	assert.Equal(t, uint64(42), unpackUint(buf, 8))
}

func TestPackDeltaRoundTrip(t *testing.T) {
	tests := []struct {
		nodeStart CompiledAddr
		transAddr CompiledAddr
	}{
		{100, 99},
		{100, 16},
		{1 << 20, 16},
		{1 << 20, 1<<20 - 1},
		{math.MaxUint32, 16},
	}
	for _, tt := range tests {
		n := deltaSize(tt.nodeStart, tt.transAddr)
		buf := packDelta(nil, tt.nodeStart, tt.transAddr, n)
		got := unpackDelta(buf, n, tt.nodeStart)
		assert.Equal(t, tt.transAddr, got, "nodeStart=%d transAddr=%d", tt.nodeStart, tt.transAddr)
	}
}

func TestPackDeltaEmptySentinel(t *testing.T) {
	n := deltaSize(12345, EmptyAddress)
	require.Equal(t, uint8(1), n)
	buf := packDelta(nil, 12345, EmptyAddress, n)
	assert.Equal(t, EmptyAddress, unpackDelta(buf, n, 12345))
}

func TestPackSizesNibbles(t *testing.T) {
	for trans := uint8(0); trans <= 8; trans++ {
		for output := uint8(0); output <= 8; output++ {
			p := newPackSizes(trans, output)
			assert.Equal(t, trans, p.transSize())
			assert.Equal(t, output, p.outputSize())
			assert.True(t, p.valid())
		}
	}
	assert.False(t, packSizes(0x9f).valid())
	assert.False(t, packSizes(0xf9).valid())
}
