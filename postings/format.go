// Package postings implements the inverted-index posting lists: building
// them from column data, serializing them, and iterating them with
// skip-forward document and position seeks.
package postings

import "math"

// RowID identifies a document row within a column. Posting lists store row
// ids in strictly increasing order.
type RowID uint32

// InvalidRowID marks iterator exhaustion.
const InvalidRowID = RowID(math.MaxUint32)

// Position is the ordinal of a term occurrence within one document.
type Position = uint32

// InvalidPosition marks position-list exhaustion within a document.
const InvalidPosition = Position(math.MaxUint32)

// OptionFlag selects which per-occurrence data a posting list carries.
type OptionFlag uint8

const (
	// OptionFrequency stores the term frequency per document.
	OptionFrequency OptionFlag = 1 << iota
	// OptionPositionList stores the occurrence positions per document.
	OptionPositionList
	// OptionPayload stores an application-defined payload per term.
	OptionPayload
)

// OptionFlagAll enables every optional section.
const OptionFlagAll = OptionFrequency | OptionPositionList | OptionPayload

// FormatOption is the resolved posting format configuration. A zero
// FormatOption stores document ids only.
type FormatOption struct {
	flag OptionFlag
}

// NewFormatOption builds a FormatOption from flags.
func NewFormatOption(flag OptionFlag) FormatOption {
	return FormatOption{flag: flag}
}

// HasFrequency reports whether per-document term frequencies are stored.
func (o FormatOption) HasFrequency() bool {
	return o.flag&OptionFrequency != 0
}

// HasPositionList reports whether occurrence positions are stored.
func (o FormatOption) HasPositionList() bool {
	return o.flag&OptionPositionList != 0
}

// HasPayload reports whether the per-term payload is stored.
func (o FormatOption) HasPayload() bool {
	return o.flag&OptionPayload != 0
}

// Flag returns the raw option flags.
func (o FormatOption) Flag() OptionFlag {
	return o.flag
}
