package segment

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/fst"
	"github.com/hupe1980/lexgo/postings"
)

// Reader gives read access to one immutable segment. All validation is
// fail-closed: a segment that does not check out bit for bit is refused.
// Safe for concurrent use once opened.
type Reader struct {
	name      string
	format    postings.FormatOption
	docCount  uint32
	termCount uint32
	postings  []byte
	dict      *fst.FST
	deleted   *roaring.Bitmap
}

// Open loads and validates the segment stored under name. If a tombstone
// sidecar exists it is applied to every posting iterator the reader hands
// out.
func Open(ctx context.Context, store blobstore.BlobStore, name string) (*Reader, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment %s: %w", name, err)
	}
	data, err := blobstore.ReadAll(blob)
	if err != nil {
		blob.Close()
		return nil, fmt.Errorf("failed to read segment %s: %w", name, err)
	}
	r, err := decode(name, data)
	// The reader owns fresh buffers after decode, so the blob (possibly a
	// memory mapping) can be released either way.
	if cerr := blob.Close(); cerr != nil && err == nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}

	deleted, err := ReadTombstones(ctx, store, tombstoneNameFor(name))
	if err != nil {
		return nil, err
	}
	r.deleted = deleted
	return r, nil
}

func decode(name string, data []byte) (*Reader, error) {
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("%w: %s is too short (%d bytes)", ErrCorrupted, name, len(data))
	}
	if binary.LittleEndian.Uint32(data[0:]) != MagicNumber {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMagic, name)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != FormatVersion {
		return nil, fmt.Errorf("%w: %s has version 0x%08x", ErrInvalidVersion, name, v)
	}

	want := binary.LittleEndian.Uint32(data[len(data)-footerSize:])
	if got := ComputeChecksum(data[:len(data)-footerSize]); got != want {
		return nil, fmt.Errorf("%w: %s (got 0x%08x, want 0x%08x)", ErrChecksumMismatch, name, got, want)
	}

	format := postings.NewFormatOption(postings.OptionFlag(data[8]))
	compression := Compression(data[9])
	if !compression.valid() {
		return nil, fmt.Errorf("%w: %s has compression type %d", ErrCorrupted, name, compression)
	}
	docCount := binary.LittleEndian.Uint32(data[12:])
	termCount := binary.LittleEndian.Uint32(data[16:])
	postingsLen := binary.LittleEndian.Uint64(data[24:])
	dictLen := binary.LittleEndian.Uint64(data[32:])

	if uint64(len(data)) != headerSize+postingsLen+dictLen+footerSize {
		return nil, fmt.Errorf("%w: %s section lengths disagree with file size", ErrCorrupted, name)
	}

	postingsData, err := decompressBlock(data[headerSize:headerSize+postingsLen], compression)
	if err != nil {
		return nil, fmt.Errorf("segment %s postings section: %w", name, err)
	}
	dictData, err := decompressBlock(data[headerSize+postingsLen:uint64(len(data))-footerSize], compression)
	if err != nil {
		return nil, fmt.Errorf("segment %s dictionary section: %w", name, err)
	}
	dict, err := fst.New(dictData)
	if err != nil {
		return nil, fmt.Errorf("segment %s dictionary: %w", name, err)
	}
	if dict.Len() != uint64(termCount) {
		return nil, fmt.Errorf("%w: %s dictionary holds %d terms, header says %d", ErrCorrupted, name, dict.Len(), termCount)
	}

	return &Reader{
		name:      name,
		format:    format,
		docCount:  docCount,
		termCount: termCount,
		postings:  postingsData,
		dict:      dict,
	}, nil
}

// Name returns the blob name the reader was opened from.
func (r *Reader) Name() string {
	return r.name
}

// Format returns the posting format the segment was written with.
func (r *Reader) Format() postings.FormatOption {
	return r.format
}

// DocCount returns the number of documents the segment covers, including
// deleted ones.
func (r *Reader) DocCount() uint32 {
	return r.docCount
}

// TermCount returns the number of distinct terms.
func (r *Reader) TermCount() uint32 {
	return r.termCount
}

// Deleted returns the tombstone bitmap, or nil when nothing is deleted.
func (r *Reader) Deleted() *roaring.Bitmap {
	return r.deleted
}

// SetDeleted replaces the tombstone bitmap applied to future iterators.
func (r *Reader) SetDeleted(deleted *roaring.Bitmap) {
	r.deleted = deleted
}

// TermMeta looks up the metadata of term. The second return is false when
// the term does not occur in the segment.
func (r *Reader) TermMeta(term string) (postings.TermMeta, bool, error) {
	meta, _, ok, err := r.lookup(term)
	return meta, ok, err
}

// SegmentPosting returns the term's postings with the given base row id,
// for iteration alongside other segments. The second return is false when
// the term does not occur.
func (r *Reader) SegmentPosting(term string, baseRowID postings.RowID) (postings.SegmentPosting, bool, error) {
	meta, data, ok, err := r.lookup(term)
	if err != nil || !ok {
		return postings.SegmentPosting{}, false, err
	}
	return postings.NewSegmentPosting(baseRowID, meta, data), true, nil
}

// PostingIterator returns an iterator over the term's postings, with the
// segment's tombstones applied. The second return is false when the term
// does not occur.
func (r *Reader) PostingIterator(term string, baseRowID postings.RowID) (*postings.Iterator, bool, error) {
	sp, ok, err := r.SegmentPosting(term, baseRowID)
	if err != nil || !ok {
		return nil, false, err
	}
	it := postings.NewIterator(r.format, []postings.SegmentPosting{sp})
	if r.deleted != nil {
		it.SkipDeleted(r.deleted)
	}
	return it, true, nil
}

func (r *Reader) lookup(term string) (postings.TermMeta, []byte, bool, error) {
	out, ok, err := r.dict.Get([]byte(term))
	if err != nil {
		return postings.TermMeta{}, nil, false, fmt.Errorf("segment %s dictionary: %w", r.name, err)
	}
	if !ok {
		return postings.TermMeta{}, nil, false, nil
	}
	return r.entryAt(out.Value())
}

func (r *Reader) entryAt(offset uint64) (postings.TermMeta, []byte, bool, error) {
	if offset >= uint64(len(r.postings)) {
		return postings.TermMeta{}, nil, false, fmt.Errorf("%w: %s posting offset %d out of range", ErrCorrupted, r.name, offset)
	}
	br := bytes.NewReader(r.postings[offset:])
	var meta postings.TermMeta
	if err := postings.NewTermMetaLoader(r.format).Load(br, &meta); err != nil {
		return postings.TermMeta{}, nil, false, fmt.Errorf("%w: %s: %v", ErrCorrupted, r.name, err)
	}
	postingLen, err := binary.ReadUvarint(br)
	if err != nil {
		return postings.TermMeta{}, nil, false, fmt.Errorf("%w: %s: %v", ErrCorrupted, r.name, err)
	}
	start := offset + uint64(len(r.postings[offset:])-br.Len())
	end := start + postingLen
	if end > uint64(len(r.postings)) {
		return postings.TermMeta{}, nil, false, fmt.Errorf("%w: %s posting entry exceeds section", ErrCorrupted, r.name)
	}
	return meta, r.postings[start:end], true, nil
}

// Terms iterates the dictionary in lexicographic order.
func (r *Reader) Terms() *TermIterator {
	return &TermIterator{r: r, it: r.dict.Iterator()}
}

// TermIterator walks a segment's terms in sorted order.
type TermIterator struct {
	r  *Reader
	it *fst.Iterator
}

// Next advances to the next term and reports whether one exists.
func (ti *TermIterator) Next() bool {
	return ti.it.Next()
}

// Term returns the current term. Valid until the next call to Next.
func (ti *TermIterator) Term() string {
	return string(ti.it.Key())
}

// Meta returns the current term's metadata.
func (ti *TermIterator) Meta() (postings.TermMeta, error) {
	meta, _, ok, err := ti.r.entryAt(ti.it.Output().Value())
	if err != nil {
		return postings.TermMeta{}, err
	}
	if !ok {
		return postings.TermMeta{}, fmt.Errorf("%w: %s dangling dictionary entry", ErrCorrupted, ti.r.name)
	}
	return meta, nil
}

// Err returns the first dictionary traversal error.
func (ti *TermIterator) Err() error {
	return ti.it.Err()
}

func tombstoneNameFor(segName string) string {
	return strings.TrimSuffix(segName, FileSuffix) + TombstoneSuffix
}
