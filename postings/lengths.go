package postings

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/lexgo/store"
)

// LengthSuffix is appended to a column file name to form its length
// sidecar, which stores one little-endian uint32 token count per row.
const LengthSuffix = ".len"

// ColumnLengths is the shared in-memory per-row token count array for one
// column. Concurrent inversion jobs publish their disjoint row ranges into
// it; BM25-style scoring reads it.
type ColumnLengths struct {
	mu      sync.RWMutex
	lengths []uint32
}

// NewColumnLengths returns an empty length array.
func NewColumnLengths() *ColumnLengths {
	return &ColumnLengths{}
}

// Get returns the token count of row, or zero when the row has not been
// published yet.
func (c *ColumnLengths) Get(row RowID) uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(row) >= len(c.lengths) {
		return 0
	}
	return c.lengths[row]
}

// Len returns the number of rows covered so far.
func (c *ColumnLengths) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lengths)
}

// Sum returns the total token count across all rows.
func (c *ColumnLengths) Sum() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum uint64
	for _, l := range c.lengths {
		sum += uint64(l)
	}
	return sum
}

// Snapshot returns a copy of the current length array.
func (c *ColumnLengths) Snapshot() []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uint32, len(c.lengths))
	copy(out, c.lengths)
	return out
}

// setRange publishes vals at rowOffset, growing the array as needed.
func (c *ColumnLengths) setRange(rowOffset uint32, vals []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := int(rowOffset) + len(vals)
	if end > len(c.lengths) {
		grown := make([]uint32, end)
		copy(grown, c.lengths)
		c.lengths = grown
	}
	copy(c.lengths[rowOffset:end], vals)
}

// LengthFileHandler owns the length sidecar file and serializes writes to
// it. Disjoint row ranges may be dumped from multiple goroutines.
type LengthFileHandler struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewLengthFileHandler opens (or creates) the length file at path.
func NewLengthFileHandler(path string) (*LengthFileHandler, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open length file: %w", err)
	}
	return &LengthFileHandler{f: f, path: path}, nil
}

// WriteAt persists vals at rowOffset and syncs the file.
func (h *LengthFileHandler) WriteAt(rowOffset uint32, vals []uint32) error {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.f.WriteAt(buf, int64(rowOffset)*4); err != nil {
		return fmt.Errorf("failed to write length file %s: %w", h.path, err)
	}
	if err := h.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync length file %s: %w", h.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (h *LengthFileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.f.Close()
}

// ReadLengthFile loads a complete length sidecar back into memory.
func ReadLengthFile(path string) ([]uint32, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read length file: %w", err)
	}
	if info.Size()%4 != 0 {
		return nil, fmt.Errorf("length file %s: size %d not a multiple of 4", path, info.Size())
	}
	r, err := store.NewFileReader(path, 0)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]uint32, info.Size()/4)
	for i := range out {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read length file %s: %w", path, err)
		}
		out[i] = v
	}
	return out, nil
}

// LengthUpdateJob carries the token counts of one inverted row range from
// an inverter to the shared array and the sidecar file.
type LengthUpdateJob struct {
	handler   *LengthFileHandler
	rowOffset uint32
	shared    *ColumnLengths
	local     []uint32
}

// NewLengthUpdateJob allocates a job for rowCount rows starting at
// rowOffset. handler may be nil when only the in-memory array is wanted.
func NewLengthUpdateJob(handler *LengthFileHandler, rowCount, rowOffset uint32, shared *ColumnLengths) *LengthUpdateJob {
	return &LengthUpdateJob{
		handler:   handler,
		rowOffset: rowOffset,
		shared:    shared,
		local:     make([]uint32, rowCount),
	}
}

// ColumnLengthArray returns the job's local slice, to be filled by
// ColumnInverter.GetTermListLength.
func (j *LengthUpdateJob) ColumnLengthArray() []uint32 {
	return j.local
}

// DumpToFile publishes the local counts into the shared array and persists
// them to the sidecar file.
func (j *LengthUpdateJob) DumpToFile() error {
	j.shared.setRange(j.rowOffset, j.local)
	if j.handler == nil {
		return nil
	}
	return j.handler.WriteAt(j.rowOffset, j.local)
}
