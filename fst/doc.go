// Package fst implements a compact, immutable finite-state transducer
// mapping sorted byte-string keys to uint64 outputs.
//
// The FST is built once from keys inserted in strictly increasing order and
// serialized into a single byte buffer. Nodes are written tail-first, so
// addresses strictly decrease while walking from the root toward the leaves.
// Each node picks the cheapest of three physical layouts based on its
// transition count and output requirements; lookups decode nodes lazily as
// read-only views into the shared buffer.
//
// Typical use is as a term dictionary: the output attached to each key is an
// offset into an external store (e.g. a posting file).
package fst
