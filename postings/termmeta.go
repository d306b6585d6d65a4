package postings

import (
	"encoding/binary"
	"fmt"
	"io"
)

// TermMeta is the per-term summary stored alongside each posting list.
type TermMeta struct {
	// DocFreq is the number of documents containing the term.
	DocFreq uint32
	// TotalTF is the total number of occurrences across all documents.
	TotalTF uint64
	// Payload is an application-defined value, typically a file offset.
	Payload uint32
}

// TermMetaDumper serializes term metadata according to a posting format.
// Fields excluded by the format are not written at all, so dumper and loader
// must agree on the format.
type TermMetaDumper struct {
	opt FormatOption
}

// NewTermMetaDumper returns a dumper for the given format.
func NewTermMetaDumper(opt FormatOption) TermMetaDumper {
	return TermMetaDumper{opt: opt}
}

// Size returns the encoded size of m in bytes.
func (d TermMetaDumper) Size(m TermMeta) int {
	n := uvarintLen(uint64(m.DocFreq))
	if d.opt.HasFrequency() {
		n += uvarintLen(m.TotalTF)
	}
	if d.opt.HasPayload() {
		n += uvarintLen(uint64(m.Payload))
	}
	return n
}

// Dump writes m to w.
func (d TermMetaDumper) Dump(w io.Writer, m TermMeta) error {
	var buf [3 * binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(m.DocFreq))
	if d.opt.HasFrequency() {
		n += binary.PutUvarint(buf[n:], m.TotalTF)
	}
	if d.opt.HasPayload() {
		n += binary.PutUvarint(buf[n:], uint64(m.Payload))
	}
	if _, err := w.Write(buf[:n]); err != nil {
		return fmt.Errorf("failed to write term meta: %w", err)
	}
	return nil
}

// TermMetaLoader deserializes term metadata written by a TermMetaDumper
// with the same format.
type TermMetaLoader struct {
	opt FormatOption
}

// NewTermMetaLoader returns a loader for the given format.
func NewTermMetaLoader(opt FormatOption) TermMetaLoader {
	return TermMetaLoader{opt: opt}
}

// Load reads one term meta from r into m. Fields the format excludes are
// left zero.
func (l TermMetaLoader) Load(r io.ByteReader, m *TermMeta) error {
	df, err := binary.ReadUvarint(r)
	if err != nil {
		return fmt.Errorf("failed to read doc freq: %w", err)
	}
	m.DocFreq = uint32(df)
	m.TotalTF = 0
	m.Payload = 0
	if l.opt.HasFrequency() {
		tf, err := binary.ReadUvarint(r)
		if err != nil {
			return fmt.Errorf("failed to read total tf: %w", err)
		}
		m.TotalTF = tf
	}
	if l.opt.HasPayload() {
		p, err := binary.ReadUvarint(r)
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		m.Payload = uint32(p)
	}
	return nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
