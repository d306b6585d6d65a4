package postings

import (
	"encoding/binary"
	"fmt"
	"io"
)

// postingDoc is one document entry of an in-memory posting list.
type postingDoc struct {
	docID     RowID
	tf        uint32
	positions []Position
}

// Writer accumulates the posting list of a single term. Documents must be
// added in strictly increasing row id order; occurrence positions within a
// document must be strictly increasing as well.
//
// The serialized layout per document, relative to the previous document, is
//
//	uvarint  doc id delta (first document: the id itself)
//	uvarint  term frequency            when the format stores frequencies
//	uvarint  occurrence count          when positions are stored but
//	                                   frequencies are not
//	uvarint* position deltas           when the format stores positions
//
// The document count is not part of the payload; it travels in the term
// meta as DocFreq.
type Writer struct {
	opt     FormatOption
	docs    []postingDoc
	totalTF uint64
}

// NewWriter returns an empty posting writer for one term.
func NewWriter(opt FormatOption) *Writer {
	return &Writer{opt: opt}
}

// AddDocument appends one document. positions may be nil when the format
// does not store them; tf must still be the occurrence count.
func (w *Writer) AddDocument(docID RowID, tf uint32, positions []Position) {
	w.docs = append(w.docs, postingDoc{docID: docID, tf: tf, positions: positions})
	w.totalTF += uint64(tf)
}

// DocFreq returns the number of documents added so far.
func (w *Writer) DocFreq() uint32 {
	return uint32(len(w.docs))
}

// TotalTF returns the total occurrence count across all added documents.
func (w *Writer) TotalTF() uint64 {
	return w.totalTF
}

// Meta returns the term meta describing the current contents. Payload is
// left for the caller to fill in.
func (w *Writer) Meta() TermMeta {
	return TermMeta{DocFreq: w.DocFreq(), TotalTF: w.totalTF}
}

// Serialize writes the posting payload to out.
func (w *Writer) Serialize(out io.Writer) error {
	var buf [binary.MaxVarintLen64]byte
	put := func(v uint64) error {
		n := binary.PutUvarint(buf[:], v)
		if _, err := out.Write(buf[:n]); err != nil {
			return fmt.Errorf("failed to write posting: %w", err)
		}
		return nil
	}

	var prevDoc RowID
	for i, d := range w.docs {
		delta := uint64(d.docID)
		if i > 0 {
			delta = uint64(d.docID - prevDoc)
		}
		prevDoc = d.docID
		if err := put(delta); err != nil {
			return err
		}
		if w.opt.HasFrequency() {
			if err := put(uint64(d.tf)); err != nil {
				return err
			}
		}
		if !w.opt.HasPositionList() {
			continue
		}
		if !w.opt.HasFrequency() {
			if err := put(uint64(len(d.positions))); err != nil {
				return err
			}
		}
		var prevPos Position
		for j, p := range d.positions {
			pd := uint64(p)
			if j > 0 {
				pd = uint64(p - prevPos)
			}
			prevPos = p
			if err := put(pd); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriterProvider hands out the posting writer for a term, creating it on
// first use. Implementations decide how writers are shared and synchronized.
type WriterProvider func(term string) *Writer
