package lexgo

import "errors"

var (
	// ErrClosed is returned by operations on a closed index.
	ErrClosed = errors.New("lexgo: index closed")

	// ErrRowNotFlushed is returned when deleting a row that is still in
	// the in-memory build buffer. Only flushed rows carry tombstones.
	ErrRowNotFlushed = errors.New("lexgo: row not flushed yet")

	// ErrRowOutOfRange is returned when a row id exceeds the indexed rows.
	ErrRowOutOfRange = errors.New("lexgo: row out of range")
)
