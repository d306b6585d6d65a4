// Package column holds the in-memory column vectors that feed the inverted
// index build path.
package column

// TextColumn is an append-only vector of text values. Row numbers are the
// append order, starting at zero.
type TextColumn struct {
	values []string
}

// NewTextColumn returns an empty text column.
func NewTextColumn() *TextColumn {
	return &TextColumn{}
}

// Initialize resets the column to empty, keeping its capacity.
func (c *TextColumn) Initialize() {
	c.values = c.values[:0]
}

// AppendValue appends one row.
func (c *TextColumn) AppendValue(v string) {
	c.values = append(c.values, v)
}

// Len returns the number of rows.
func (c *TextColumn) Len() int {
	return len(c.values)
}

// Value returns the text at row i. It panics if i is out of range, matching
// slice indexing semantics.
func (c *TextColumn) Value(i int) string {
	return c.values[i]
}
