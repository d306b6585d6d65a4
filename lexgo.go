package lexgo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lexgo/analysis"
	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/column"
	"github.com/hupe1980/lexgo/postings"
	"github.com/hupe1980/lexgo/resource"
	"github.com/hupe1980/lexgo/segment"
)

// Index is a full-text index over one text column. Rows are appended via
// IndexColumn into an in-memory posting buffer and made durable by Flush,
// which writes an immutable segment blob.
//
// All exported methods are safe for concurrent use. Iterators returned by
// PostingIterator are point-in-time snapshots over the flushed segments but
// share the in-memory buffer; do not use them concurrently with IndexColumn
// or Flush.
type Index struct {
	opts       options
	analyzer   analysis.Analyzer
	store      blobstore.BlobStore
	controller *resource.Controller
	logger     *Logger
	metrics    MetricsCollector
	format     postings.FormatOption

	mu       sync.Mutex
	closed   bool
	writers  map[string]*postings.Writer
	rowCount uint32 // rows indexed so far, including flushed ones
	memBase  uint32 // rows covered by flushed segments
	memBytes int64  // memory reserved for the in-memory buffer

	segments  []*segment.Reader
	segBases  []postings.RowID
	nextSegID uint64

	lengths       *postings.ColumnLengths
	lengthHandler *postings.LengthFileHandler
}

// Open opens (or creates) an index backed by the given blob store,
// recovering all previously flushed segments.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Index, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	analyzer, err := analysis.Get(opts.analyzerName)
	if err != nil {
		return nil, err
	}

	cfg := opts.resourceConfig
	if cfg.MaxInvertWorkers == 0 {
		cfg.MaxInvertWorkers = int64(runtime.GOMAXPROCS(0))
	}

	idx := &Index{
		opts:       opts,
		analyzer:   analyzer,
		store:      store,
		controller: resource.NewController(cfg),
		logger:     opts.logger,
		metrics:    opts.metricsCollector,
		format:     postings.NewFormatOption(opts.formatFlag),
		writers:    make(map[string]*postings.Writer),
		nextSegID:  1,
		lengths:    postings.NewColumnLengths(),
	}

	if err := idx.recover(ctx); err != nil {
		idx.logger.LogOpen(ctx, 0, 0, err)
		return nil, err
	}

	if opts.lengthPath != "" {
		if err := idx.loadLengths(opts.lengthPath); err != nil {
			return nil, err
		}
	}

	idx.logger.LogOpen(ctx, len(idx.segments), idx.rowCount, nil)
	return idx, nil
}

func (idx *Index) recover(ctx context.Context) error {
	names, err := idx.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list segments: %w", err)
	}
	for _, name := range names {
		id, ok := parseSegmentID(name)
		if !ok {
			continue
		}
		r, err := segment.Open(ctx, idx.store, name)
		if err != nil {
			return err
		}
		idx.segments = append(idx.segments, r)
		idx.segBases = append(idx.segBases, postings.RowID(idx.rowCount))
		idx.rowCount += r.DocCount()
		if id >= idx.nextSegID {
			idx.nextSegID = id + 1
		}
	}
	idx.memBase = idx.rowCount
	return nil
}

func (idx *Index) loadLengths(path string) error {
	vals, err := postings.ReadLengthFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(vals) > 0 {
		job := postings.NewLengthUpdateJob(nil, uint32(len(vals)), 0, idx.lengths)
		copy(job.ColumnLengthArray(), vals)
		if err := job.DumpToFile(); err != nil {
			return err
		}
	}
	handler, err := postings.NewLengthFileHandler(path)
	if err != nil {
		return err
	}
	idx.lengthHandler = handler
	return nil
}

// IndexColumn tokenizes and inverts all rows of col, assigning them the
// next free row ids. Row ranges are inverted in parallel, bounded by the
// configured worker limit.
func (idx *Index) IndexColumn(ctx context.Context, col *column.TextColumn) error {
	start := time.Now()
	err := idx.indexColumn(ctx, col)
	idx.metrics.RecordIndexColumn(col.Len(), time.Since(start), err)
	idx.logger.LogIndexColumn(ctx, col.Len(), err)
	return err
}

func (idx *Index) indexColumn(ctx context.Context, col *column.TextColumn) error {
	n := col.Len()
	if n == 0 {
		return nil
	}

	var estimate int64
	for i := 0; i < n; i++ {
		estimate += int64(len(col.Value(i)))
	}
	if err := idx.controller.AcquireMemory(ctx, estimate); err != nil {
		return err
	}

	idx.mu.Lock()
	if idx.closed {
		idx.mu.Unlock()
		idx.controller.ReleaseMemory(estimate)
		return ErrClosed
	}
	base := idx.rowCount
	localBase := postings.RowID(base - idx.memBase)
	idx.rowCount += uint32(n)
	idx.memBytes += estimate
	idx.mu.Unlock()

	// Segment files store row ids relative to their own first row, so the
	// provider hands writers local ids; segBases restore global ids on read.
	provider := func(term string) *postings.Writer {
		w, ok := idx.writers[term]
		if !ok {
			w = postings.NewWriter(idx.format)
			idx.writers[term] = w
		}
		return w
	}

	workers := int(idx.opts.resourceConfig.MaxInvertWorkers)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (n + workers - 1) / workers
	numChunks := (n + chunk - 1) / chunk

	inverters := make([]*postings.ColumnInverter, numChunks)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numChunks; i++ {
		i := i
		startRow := i * chunk
		count := chunk
		if startRow+count > n {
			count = n - startRow
		}
		g.Go(func() error {
			if err := idx.controller.AcquireWorker(gctx); err != nil {
				return err
			}
			defer idx.controller.ReleaseWorker()

			inv := postings.NewColumnInverter(idx.analyzer, provider)
			inv.InvertColumn(col, startRow, count, localBase+postings.RowID(startRow))

			job := postings.NewLengthUpdateJob(idx.lengthHandler, uint32(count), base+uint32(startRow), idx.lengths)
			inv.GetTermListLength(job.ColumnLengthArray())
			if err := job.DumpToFile(); err != nil {
				return err
			}
			inverters[i] = inv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		idx.mu.Lock()
		idx.memBytes -= estimate
		idx.mu.Unlock()
		idx.controller.ReleaseMemory(estimate)
		return err
	}

	root := inverters[0]
	for _, inv := range inverters[1:] {
		root.Merge(inv)
	}
	root.Sort()

	// GeneratePosting drives the provider, which touches the shared writer
	// map, so it runs under the index lock.
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	root.GeneratePosting()
	return nil
}

// Flush writes the in-memory posting buffer as a new immutable segment and
// returns its name. Flushing an empty buffer is a no-op and returns "".
func (idx *Index) Flush(ctx context.Context) (string, error) {
	start := time.Now()
	name, docs, bytes, err := idx.flush(ctx)
	idx.metrics.RecordFlush(bytes, time.Since(start), err)
	if name != "" || err != nil {
		idx.logger.LogFlush(ctx, name, docs, err)
	}
	return name, err
}

func (idx *Index) flush(ctx context.Context) (string, uint32, int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return "", 0, 0, ErrClosed
	}
	docs := idx.rowCount - idx.memBase
	if docs == 0 && len(idx.writers) == 0 {
		return "", 0, 0, nil
	}

	name := segment.FileName(idx.nextSegID)
	n, err := segment.Write(ctx, idx.store, name, docs, idx.writers, idx.format,
		segment.WithCompression(idx.opts.compression),
		segment.WithController(idx.controller))
	if err != nil {
		return name, docs, 0, err
	}

	r, err := segment.Open(ctx, idx.store, name)
	if err != nil {
		return name, docs, n, fmt.Errorf("failed to reopen flushed segment: %w", err)
	}
	idx.segments = append(idx.segments, r)
	idx.segBases = append(idx.segBases, postings.RowID(idx.memBase))
	idx.nextSegID++
	idx.memBase = idx.rowCount
	idx.writers = make(map[string]*postings.Writer)
	idx.controller.ReleaseMemory(idx.memBytes)
	idx.memBytes = 0
	return name, docs, n, nil
}

// PostingIterator returns an iterator over the term's postings across all
// segments and the in-memory buffer, with tombstones applied. The second
// return is false when the term is not indexed.
func (idx *Index) PostingIterator(ctx context.Context, term string) (*postings.Iterator, bool, error) {
	start := time.Now()
	it, ok, err := idx.postingIterator(term)
	idx.metrics.RecordLookup(time.Since(start), ok)
	return it, ok, err
}

func (idx *Index) postingIterator(term string) (*postings.Iterator, bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, false, ErrClosed
	}

	var sps []postings.SegmentPosting
	var deleted *roaring.Bitmap
	for i, r := range idx.segments {
		sp, ok, err := r.SegmentPosting(term, idx.segBases[i])
		if err != nil {
			return nil, false, err
		}
		if ok {
			sps = append(sps, sp)
		}
		if d := r.Deleted(); d != nil && !d.IsEmpty() {
			if deleted == nil {
				deleted = roaring.New()
			}
			deleted.Or(roaring.AddOffset(d, uint32(idx.segBases[i])))
		}
	}
	if w, ok := idx.writers[term]; ok {
		sps = append(sps, postings.NewInMemorySegmentPosting(postings.RowID(idx.memBase), w))
	}
	if len(sps) == 0 {
		return nil, false, nil
	}

	it := postings.NewIterator(idx.format, sps)
	if deleted != nil {
		it.SkipDeleted(deleted)
	}
	return it, true, nil
}

// TermMeta returns the term's aggregated metadata across all segments and
// the in-memory buffer.
func (idx *Index) TermMeta(term string) (postings.TermMeta, bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return postings.TermMeta{}, false, ErrClosed
	}

	var meta postings.TermMeta
	found := false
	for _, r := range idx.segments {
		m, ok, err := r.TermMeta(term)
		if err != nil {
			return postings.TermMeta{}, false, err
		}
		if ok {
			meta.DocFreq += m.DocFreq
			meta.TotalTF += m.TotalTF
			found = true
		}
	}
	if w, ok := idx.writers[term]; ok {
		meta.DocFreq += w.DocFreq()
		meta.TotalTF += w.TotalTF()
		found = true
	}
	return meta, found, nil
}

// Delete tombstones the given rows. Only flushed rows can be deleted; rows
// still in the in-memory buffer return ErrRowNotFlushed.
func (idx *Index) Delete(ctx context.Context, rows ...postings.RowID) error {
	start := time.Now()
	err := idx.delete(ctx, rows)
	idx.metrics.RecordDelete(len(rows), time.Since(start), err)
	idx.logger.LogDelete(ctx, len(rows), err)
	return err
}

func (idx *Index) delete(ctx context.Context, rows []postings.RowID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}

	// Group rows by owning segment, translated to segment-local ids.
	perSegment := make(map[int][]uint32)
	for _, row := range rows {
		if uint32(row) >= idx.rowCount {
			return fmt.Errorf("%w: row %d", ErrRowOutOfRange, row)
		}
		if uint32(row) >= idx.memBase {
			return fmt.Errorf("%w: row %d", ErrRowNotFlushed, row)
		}
		seg := len(idx.segments) - 1
		for seg > 0 && idx.segBases[seg] > row {
			seg--
		}
		perSegment[seg] = append(perSegment[seg], uint32(row-idx.segBases[seg]))
	}

	for seg, localRows := range perSegment {
		r := idx.segments[seg]
		bm := roaring.New()
		if d := r.Deleted(); d != nil {
			bm.Or(d)
		}
		bm.AddMany(localRows)
		name := strings.TrimSuffix(r.Name(), segment.FileSuffix) + segment.TombstoneSuffix
		if err := segment.WriteTombstones(ctx, idx.store, name, bm); err != nil {
			return err
		}
		r.SetDeleted(bm)
	}
	return nil
}

// DocCount returns the number of indexed rows, including deleted and
// not-yet-flushed ones.
func (idx *Index) DocCount() uint32 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.rowCount
}

// SegmentCount returns the number of flushed segments.
func (idx *Index) SegmentCount() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.segments)
}

// ColumnLengths exposes the per-row token counts, used for length-aware
// scoring such as BM25.
func (idx *Index) ColumnLengths() *postings.ColumnLengths {
	return idx.lengths
}

// AvgColumnLength returns the mean token count per row, or zero for an
// empty index.
func (idx *Index) AvgColumnLength() float64 {
	n := idx.lengths.Len()
	if n == 0 {
		return 0
	}
	return float64(idx.lengths.Sum()) / float64(n)
}

// MemoryUsage returns the bytes currently reserved for the in-memory
// posting buffer.
func (idx *Index) MemoryUsage() int64 {
	return idx.controller.MemoryUsage()
}

// Close releases the index. The in-memory buffer is discarded; call Flush
// first to keep it.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	idx.controller.ReleaseMemory(idx.memBytes)
	idx.memBytes = 0
	if idx.lengthHandler != nil {
		return idx.lengthHandler.Close()
	}
	return nil
}

func parseSegmentID(name string) (uint64, bool) {
	if !strings.HasPrefix(name, "seg_") || !strings.HasSuffix(name, segment.FileSuffix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "seg_"), segment.FileSuffix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
