package lexgo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/column"
	"github.com/hupe1980/lexgo/postings"
	"github.com/hupe1980/lexgo/resource"
	"github.com/hupe1980/lexgo/segment"
)

func newColumn(values ...string) *column.TextColumn {
	col := column.NewTextColumn()
	for _, v := range values {
		col.AppendValue(v)
	}
	return col
}

func collectDocs(t *testing.T, it *postings.Iterator) []postings.RowID {
	t.Helper()
	var docs []postings.RowID
	for d := it.SeekDoc(0); d != postings.InvalidRowID; d = it.SeekDoc(d + 1) {
		docs = append(docs, d)
	}
	require.NoError(t, it.Err())
	return docs
}

func TestIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx, err := Open(ctx, store)
	require.NoError(t, err)

	require.NoError(t, idx.IndexColumn(ctx, newColumn(
		"the transducer reads the input tape",
		"an automaton has a single tape",
		"a transducer writes an output tape",
	)))
	assert.Equal(t, uint32(3), idx.DocCount())
	assert.Equal(t, 0, idx.SegmentCount())

	// Lookup against the in-memory buffer, before any flush.
	it, ok, err := idx.PostingIterator(ctx, "transducer")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 2}, collectDocs(t, it))

	name, err := idx.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, segment.FileName(1), name)
	assert.Equal(t, 1, idx.SegmentCount())

	// A second batch lands in memory; iteration spans both.
	require.NoError(t, idx.IndexColumn(ctx, newColumn(
		"tape to tape transducer",
	)))
	it, ok, err = idx.PostingIterator(ctx, "transducer")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 2, 3}, collectDocs(t, it))

	it, ok, err = idx.PostingIterator(ctx, "tape")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 1, 2, 3}, collectDocs(t, it))

	meta, ok, err := idx.TermMeta("tape")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(4), meta.DocFreq)
	assert.Equal(t, uint64(5), meta.TotalTF)

	_, ok, err = idx.PostingIterator(ctx, "nosuchterm")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, idx.Close())
	_, err = idx.Flush(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = idx.PostingIterator(ctx, "tape")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestIndexRecovery(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx, err := Open(ctx, store)
	require.NoError(t, err)
	require.NoError(t, idx.IndexColumn(ctx, newColumn("finite state machine", "state machine")))
	_, err = idx.Flush(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.IndexColumn(ctx, newColumn("pushdown machine")))
	_, err = idx.Flush(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Reopen from the same store: both segments and their row mapping
	// must come back.
	idx, err = Open(ctx, store)
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, uint32(3), idx.DocCount())
	assert.Equal(t, 2, idx.SegmentCount())

	it, ok, err := idx.PostingIterator(ctx, "machine")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 1, 2}, collectDocs(t, it))

	it, ok, err = idx.PostingIterator(ctx, "pushdown")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{2}, collectDocs(t, it))

	// New rows continue after the recovered ones.
	require.NoError(t, idx.IndexColumn(ctx, newColumn("turing machine")))
	it, ok, err = idx.PostingIterator(ctx, "machine")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 1, 2, 3}, collectDocs(t, it))
}

func TestIndexDelete(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx, err := Open(ctx, store)
	require.NoError(t, err)
	require.NoError(t, idx.IndexColumn(ctx, newColumn("alpha beta", "beta gamma", "alpha gamma")))
	_, err = idx.Flush(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.IndexColumn(ctx, newColumn("beta delta")))

	// Rows still in the build buffer cannot be tombstoned.
	assert.ErrorIs(t, idx.Delete(ctx, 3), ErrRowNotFlushed)
	assert.ErrorIs(t, idx.Delete(ctx, 99), ErrRowOutOfRange)

	require.NoError(t, idx.Delete(ctx, 1))
	it, ok, err := idx.PostingIterator(ctx, "beta")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 3}, collectDocs(t, it))

	// Tombstones survive a reopen via the sidecar.
	_, err = idx.Flush(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	idx, err = Open(ctx, store)
	require.NoError(t, err)
	defer idx.Close()

	it, ok, err = idx.PostingIterator(ctx, "beta")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{0, 3}, collectDocs(t, it))
}

func TestIndexColumnLengths(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	lengthPath := filepath.Join(t.TempDir(), "text"+postings.LengthSuffix)

	idx, err := Open(ctx, store, WithLengthFile(lengthPath))
	require.NoError(t, err)
	require.NoError(t, idx.IndexColumn(ctx, newColumn(
		"one two three",
		"one",
		"one two",
	)))
	assert.Equal(t, uint32(3), idx.ColumnLengths().Get(0))
	assert.Equal(t, uint32(1), idx.ColumnLengths().Get(1))
	assert.InDelta(t, 2.0, idx.AvgColumnLength(), 1e-9)
	require.NoError(t, idx.Close())

	// The sidecar feeds the lengths back on reopen.
	idx, err = Open(ctx, store, WithLengthFile(lengthPath))
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, uint32(3), idx.ColumnLengths().Get(0))
	assert.InDelta(t, 2.0, idx.AvgColumnLength(), 1e-9)
}

func TestIndexParallelInversion(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	idx, err := Open(ctx, store, WithResourceLimits(resource.Config{MaxInvertWorkers: 4}))
	require.NoError(t, err)
	defer idx.Close()

	col := column.NewTextColumn()
	for i := 0; i < 100; i++ {
		if i%3 == 0 {
			col.AppendValue("shared term plus unique")
		} else {
			col.AppendValue("shared filler")
		}
	}
	require.NoError(t, idx.IndexColumn(ctx, col))

	it, ok, err := idx.PostingIterator(ctx, "shared")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, collectDocs(t, it), 100)

	it, ok, err = idx.PostingIterator(ctx, "unique")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, collectDocs(t, it), 34)
}

func TestIndexFlushThrottled(t *testing.T) {
	// A segment larger than one second's IO budget must flush throttled,
	// not fail against the limiter's burst cap.
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	idx, err := Open(ctx, store,
		WithCompression(segment.CompressionNone),
		WithResourceLimits(resource.Config{IOLimitBytesPerSec: 8192}))
	require.NoError(t, err)
	defer idx.Close()

	col := column.NewTextColumn()
	for i := 0; i < 1200; i++ {
		col.AppendValue(fmt.Sprintf("w%04d", i))
	}
	require.NoError(t, idx.IndexColumn(ctx, col))

	name, err := idx.Flush(ctx)
	require.NoError(t, err)

	blob, err := store.Open(ctx, name)
	require.NoError(t, err)
	assert.Greater(t, blob.Size(), int64(8192))
	require.NoError(t, blob.Close())

	it, ok, err := idx.PostingIterator(ctx, "w0123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []postings.RowID{123}, collectDocs(t, it))
}

func TestIndexMetrics(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	idx, err := Open(ctx, blobstore.NewMemoryStore(), WithMetricsCollector(mc))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.IndexColumn(ctx, newColumn("hello world")))
	_, err = idx.Flush(ctx)
	require.NoError(t, err)
	_, _, err = idx.PostingIterator(ctx, "hello")
	require.NoError(t, err)
	_, _, err = idx.PostingIterator(ctx, "absent")
	require.NoError(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.IndexColumnCount)
	assert.Equal(t, int64(2), stats.IndexColumnRows)
	assert.Equal(t, int64(1), stats.FlushCount)
	assert.Positive(t, stats.FlushBytes)
	assert.Equal(t, int64(2), stats.LookupCount)
	assert.Equal(t, int64(1), stats.LookupMisses)
}

func TestIndexMemoryLimit(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(ctx, blobstore.NewMemoryStore(), WithResourceLimits(resource.Config{
		MemoryLimitBytes: 1 << 20,
		MaxInvertWorkers: 2,
	}))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.IndexColumn(ctx, newColumn("some text to account for")))
	assert.Positive(t, idx.MemoryUsage())

	_, err = idx.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, idx.MemoryUsage())
}
