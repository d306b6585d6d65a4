package postings

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Iterator walks a term's posting list across one or more segments in row
// id order. Seeks only move forward; once exhausted the iterator stays
// exhausted.
type Iterator struct {
	opt      FormatOption
	segments []SegmentPosting
	deleted  *roaring.Bitmap

	segIdx int
	docs   []postingDoc
	docIdx int

	// posIdx is the position cursor within posDoc; it resets when SeekDoc
	// lands on a different document.
	posIdx int
	posDoc RowID

	seeked    bool
	exhausted bool
	err       error
}

// NewIterator returns an iterator over segments, which must be ordered by
// base row id. Call SeekDoc to position it.
func NewIterator(opt FormatOption, segments []SegmentPosting) *Iterator {
	return &Iterator{opt: opt, segments: segments, segIdx: -1}
}

// SkipDeleted installs a tombstone bitmap; documents whose row id is set in
// it are skipped transparently.
func (it *Iterator) SkipDeleted(deleted *roaring.Bitmap) {
	it.deleted = deleted
}

// SeekDoc advances to the first document with row id >= target and returns
// its id, or InvalidRowID when no such document exists. Seeking at or below
// the current document returns the current document again.
func (it *Iterator) SeekDoc(target RowID) RowID {
	if it.exhausted || it.err != nil {
		return InvalidRowID
	}
	for {
		if it.segIdx < 0 || it.docIdx >= len(it.docs) {
			if !it.nextSegment() {
				return InvalidRowID
			}
			continue
		}
		d := it.docs[it.docIdx]
		if d.docID >= target && !it.isDeleted(d.docID) {
			if !it.seeked || it.posDoc != d.docID {
				it.posIdx = 0
				it.posDoc = d.docID
			}
			it.seeked = true
			return d.docID
		}
		it.docIdx++
	}
}

// GetCurrentTF returns the term frequency of the current document. It is
// only meaningful after a successful SeekDoc.
func (it *Iterator) GetCurrentTF() uint32 {
	if !it.seeked || it.docIdx >= len(it.docs) {
		return 0
	}
	return it.docs[it.docIdx].tf
}

// SeekPosition advances within the current document to the first occurrence
// position >= from and returns it, or InvalidPosition when the document's
// position list is exhausted. The position cursor never moves backward; it
// resets when SeekDoc lands on a new document.
func (it *Iterator) SeekPosition(from Position) Position {
	if !it.seeked || it.docIdx >= len(it.docs) {
		return InvalidPosition
	}
	positions := it.docs[it.docIdx].positions
	for it.posIdx < len(positions) {
		p := positions[it.posIdx]
		it.posIdx++
		if p >= from {
			return p
		}
	}
	return InvalidPosition
}

// Err returns the first decode error encountered, if any.
func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) nextSegment() bool {
	for {
		it.segIdx++
		if it.segIdx >= len(it.segments) {
			it.exhausted = true
			return false
		}
		docs, err := it.segments[it.segIdx].decode(it.opt)
		if err != nil {
			it.err = err
			it.exhausted = true
			return false
		}
		if len(docs) == 0 {
			continue
		}
		it.docs = docs
		it.docIdx = 0
		return true
	}
}

func (it *Iterator) isDeleted(docID RowID) bool {
	return it.deleted != nil && it.deleted.Contains(uint32(docID))
}
