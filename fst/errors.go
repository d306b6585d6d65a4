package fst

import "errors"

var (
	// ErrUnsupported is returned when a transition accessor is invoked on
	// the empty final state. This is caller misuse, distinct from format
	// corruption: check IsEmpty/IsFinal first.
	ErrUnsupported = errors.New("fst: operation not supported on empty final state")

	// ErrOutOfOrder is returned by Builder.Insert when a key is not
	// strictly greater than the previously inserted key.
	ErrOutOfOrder = errors.New("fst: keys must be inserted in strictly increasing order")

	// ErrInvalidVersion is returned when loading a buffer whose version
	// stamp does not match Version. Loading fails closed; there is no
	// best-effort parse of unknown versions.
	ErrInvalidVersion = errors.New("fst: unsupported format version")

	// ErrCorrupted is returned when the serialized form is malformed.
	ErrCorrupted = errors.New("fst: corrupted data")
)
