package postings

import (
	"encoding/binary"
	"fmt"
)

// SegmentPosting is one segment's share of a term's posting list, either as
// serialized bytes or as a still-mutable in-memory writer. baseRowID is
// added to every row id in the segment, so iterators see globally increasing
// ids across segments.
type SegmentPosting struct {
	baseRowID RowID
	meta      TermMeta
	data      []byte
	writer    *Writer
}

// NewSegmentPosting wraps serialized posting bytes.
func NewSegmentPosting(baseRowID RowID, meta TermMeta, data []byte) SegmentPosting {
	return SegmentPosting{baseRowID: baseRowID, meta: meta, data: data}
}

// NewInMemorySegmentPosting wraps a posting writer that is still being
// filled. The meta is taken from the writer at decode time.
func NewInMemorySegmentPosting(baseRowID RowID, w *Writer) SegmentPosting {
	return SegmentPosting{baseRowID: baseRowID, writer: w}
}

// BaseRowID returns the row id offset of this segment.
func (sp SegmentPosting) BaseRowID() RowID {
	return sp.baseRowID
}

// Meta returns the term meta for the serialized form. For in-memory
// segments it reflects the writer at call time.
func (sp SegmentPosting) Meta() TermMeta {
	if sp.writer != nil {
		return sp.writer.Meta()
	}
	return sp.meta
}

// decode materializes the segment's documents with baseRowID applied.
func (sp SegmentPosting) decode(opt FormatOption) ([]postingDoc, error) {
	if sp.writer != nil {
		docs := make([]postingDoc, len(sp.writer.docs))
		for i, d := range sp.writer.docs {
			docs[i] = postingDoc{docID: sp.baseRowID + d.docID, tf: d.tf, positions: d.positions}
		}
		return docs, nil
	}

	docs := make([]postingDoc, 0, sp.meta.DocFreq)
	pos := 0
	next := func() (uint64, error) {
		v, n := binary.Uvarint(sp.data[pos:])
		if n <= 0 {
			return 0, fmt.Errorf("postings: truncated posting data at offset %d", pos)
		}
		pos += n
		return v, nil
	}

	var prevDoc RowID
	for i := uint32(0); i < sp.meta.DocFreq; i++ {
		delta, err := next()
		if err != nil {
			return nil, err
		}
		docID := RowID(delta)
		if i > 0 {
			docID = prevDoc + RowID(delta)
		}
		prevDoc = docID

		d := postingDoc{docID: sp.baseRowID + docID, tf: 1}
		if opt.HasFrequency() {
			tf, err := next()
			if err != nil {
				return nil, err
			}
			d.tf = uint32(tf)
		}
		if opt.HasPositionList() {
			count := uint64(d.tf)
			if !opt.HasFrequency() {
				if count, err = next(); err != nil {
					return nil, err
				}
				d.tf = uint32(count)
			}
			d.positions = make([]Position, count)
			var prevPos Position
			for j := uint64(0); j < count; j++ {
				pd, err := next()
				if err != nil {
					return nil, err
				}
				p := Position(pd)
				if j > 0 {
					p = prevPos + Position(pd)
				}
				prevPos = p
				d.positions[j] = p
			}
		}
		docs = append(docs, d)
	}
	return docs, nil
}
