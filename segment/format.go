// Package segment reads and writes the on-disk segment files of the
// inverted index. A segment is immutable: a term dictionary (an FST mapping
// terms to offsets) plus the serialized posting lists, with a checksum over
// the whole file. Deletes are recorded in a tombstone sidecar.
package segment

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies segment files (ASCII: "LXSG").
	MagicNumber = 0x4c585347
	// FormatVersion is the current segment file version (v1.0.0).
	FormatVersion = 0x00010000

	// FileSuffix is the segment file extension.
	FileSuffix = ".lxs"
	// TombstoneSuffix is the extension of the deleted-rows sidecar.
	TombstoneSuffix = ".del"
)

// headerSize is the fixed byte length of the file header:
//
//	offset  size  field
//	0       4     magic
//	4       4     version
//	8       1     posting option flags
//	9       1     compression
//	10      2     padding
//	12      4     doc count
//	16      4     term count
//	20      4     padding
//	24      8     postings block length
//	32      8     dictionary block length
const headerSize = 40

// footerSize holds the CRC32 of everything before it.
const footerSize = 4

var (
	// ErrInvalidMagic means the file is not a segment file.
	ErrInvalidMagic = errors.New("segment: invalid magic number")
	// ErrInvalidVersion means the segment was written by an unsupported
	// format version.
	ErrInvalidVersion = errors.New("segment: unsupported format version")
	// ErrChecksumMismatch means the file content does not match its
	// recorded checksum.
	ErrChecksumMismatch = errors.New("segment: checksum mismatch")
	// ErrCorrupted means the file structure is inconsistent.
	ErrCorrupted = errors.New("segment: corrupted file")
)

// FileName returns the blob name of segment id.
func FileName(id uint64) string {
	return fmt.Sprintf("seg_%010d%s", id, FileSuffix)
}

// TombstoneName returns the blob name of segment id's tombstone sidecar.
func TombstoneName(id uint64) string {
	return fmt.Sprintf("seg_%010d%s", id, TombstoneSuffix)
}
