package fst

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFST(t *testing.T, pairs map[string]uint64) *FST {
	t.Helper()
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := NewBuilder()
	for _, k := range keys {
		require.NoError(t, b.Insert([]byte(k), pairs[k]))
	}
	data, err := b.Finish()
	require.NoError(t, err)
	f, err := New(data)
	require.NoError(t, err)
	return f
}

func TestBuilderGetRoundTrip(t *testing.T) {
	pairs := map[string]uint64{
		"":           0,
		"a":          1,
		"ab":         2,
		"abc":        3,
		"abd":        400,
		"automaton":  1 << 33,
		"fst":        12,
		"transduce":  77,
		"transducer": 78,
	}
	f := buildFST(t, pairs)
	assert.Equal(t, uint64(len(pairs)), f.Len())

	for k, v := range pairs {
		out, ok, err := f.Get([]byte(k))
		require.NoError(t, err)
		require.True(t, ok, "key %q", k)
		assert.Equal(t, v, out.Value(), "key %q", k)
	}

	for _, k := range []string{"b", "abcd", "transducers", "automato", "zzz"} {
		_, ok, err := f.Get([]byte(k))
		require.NoError(t, err)
		assert.False(t, ok, "key %q", k)
	}
}

func TestBuilderRejectsOutOfOrder(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert([]byte("b"), 1))
	assert.ErrorIs(t, b.Insert([]byte("a"), 2), ErrOutOfOrder)
	assert.ErrorIs(t, b.Insert([]byte("b"), 3), ErrOutOfOrder)
	require.NoError(t, b.Insert([]byte("ba"), 4))
}

func TestBuilderMinimization(t *testing.T) {
	// Shared suffixes must collapse into shared nodes: the transducer for
	// N keys ending in the same long suffix should stay small.
	b := NewBuilder()
	for i := 0; i < 100; i++ {
		require.NoError(t, b.Insert([]byte(fmt.Sprintf("%03d_longsharedsuffix", i)), 0))
	}
	data, err := b.Finish()
	require.NoError(t, err)

	// Without minimization the suffix alone would cost ~100*17 bytes.
	assert.Less(t, len(data), 900, "suffixes were not shared")

	f, err := New(data)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		ok, err := f.Contains([]byte(fmt.Sprintf("%03d_longsharedsuffix", i)))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestBuilderNodeHashEquality(t *testing.T) {
	a := builderNode{
		isFinal:     true,
		finalOutput: NewOutput(7),
		trans: []Transition{
			{In: 'x', Out: NewOutput(1), Addr: 42},
			{In: 'y', Out: NewOutput(2), Addr: 43},
		},
	}
	b := builderNode{
		isFinal:     true,
		finalOutput: NewOutput(7),
		trans: []Transition{
			{In: 'x', Out: NewOutput(1), Addr: 42},
			{In: 'y', Out: NewOutput(2), Addr: 43},
		},
	}
	assert.Equal(t, a.hash(), b.hash())
	assert.True(t, a.equiv(&b))

	c := b
	c.trans = append([]Transition(nil), b.trans...)
	c.trans[1].Addr = 44
	assert.False(t, a.equiv(&c))
	assert.NotEqual(t, a.hash(), c.hash())
}

func TestIteratorSortedOrder(t *testing.T) {
	pairs := map[string]uint64{
		"":       9,
		"aa":     1,
		"ab":     2,
		"b":      3,
		"ba":     4,
		"zzectx": 5,
	}
	f := buildFST(t, pairs)

	it := f.Iterator()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		assert.Equal(t, pairs[string(it.Key())], it.Output().Value(), "key %q", it.Key())
	}
	require.NoError(t, it.Err())

	want := make([]string, 0, len(pairs))
	for k := range pairs {
		want = append(want, k)
	}
	sort.Strings(want)
	assert.Equal(t, want, keys)
}

func TestEmptyBuilder(t *testing.T) {
	b := NewBuilder()
	data, err := b.Finish()
	require.NoError(t, err)
	f, err := New(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), f.Len())
	ok, err := f.Contains([]byte("anything"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionMismatchFailsClosed(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert([]byte("key"), 1))
	data, err := b.Finish()
	require.NoError(t, err)

	data[0] = Version + 1
	_, err = New(data)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestTruncatedBufferRejected(t *testing.T) {
	_, err := New(make([]byte, headerLen))
	assert.ErrorIs(t, err, ErrCorrupted)
}
