package fst

import "fmt"

// Output is the value algebra attached to FST edges and final states.
// It wraps a single non-negative 64-bit integer and is immutable.
type Output struct {
	val uint64
}

// NewOutput creates an Output with the given value.
func NewOutput(v uint64) Output {
	return Output{val: v}
}

// ZeroOutput returns the identity element of the algebra.
func ZeroOutput() Output {
	return Output{}
}

// Value returns the wrapped integer.
func (o Output) Value() uint64 {
	return o.val
}

// IsZero reports whether the output is the identity element.
func (o Output) IsZero() bool {
	return o.val == 0
}

// Prefix returns the greatest common prefix of two outputs, which for
// integer outputs is the minimum.
func (o Output) Prefix(other Output) Output {
	if other.val < o.val {
		return other
	}
	return o
}

// Cat concatenates two outputs, which for integer outputs is the sum.
func (o Output) Cat(other Output) Output {
	return Output{val: o.val + other.val}
}

// Sub removes other from o. It requires o >= other; a violation means the
// builder distributed outputs incorrectly, which is unrecoverable.
func (o Output) Sub(other Output) Output {
	if o.val < other.val {
		panic(fmt.Sprintf("fst: output underflow: %d - %d", o.val, other.val))
	}
	return Output{val: o.val - other.val}
}
