package postings

import (
	"sort"

	"github.com/hupe1980/lexgo/analysis"
	"github.com/hupe1980/lexgo/column"
)

// invertEntry is one (term, document) pair with its occurrence positions in
// token order.
type invertEntry struct {
	term      string
	docID     RowID
	positions []Position
}

// ColumnInverter builds posting lists from a text column. A typical flow
// inverts disjoint row ranges on separate inverters in parallel, merges
// them into one, sorts, and generates postings:
//
//	inv.InvertColumn(col, 0, n, base)
//	inv.Merge(other)
//	inv.Sort()
//	inv.GeneratePosting()
type ColumnInverter struct {
	analyzer analysis.Analyzer
	provider WriterProvider

	entries    []invertEntry
	rowLengths []uint32
	sorted     bool
}

// NewColumnInverter returns an inverter that tokenizes with analyzer and
// appends postings through provider.
func NewColumnInverter(analyzer analysis.Analyzer, provider WriterProvider) *ColumnInverter {
	return &ColumnInverter{analyzer: analyzer, provider: provider, sorted: true}
}

// InvertColumn tokenizes rowCount rows of col starting at startRow and
// records one entry per distinct term per document. The document id of row
// startRow+i is docIDBase+i. Occurrence positions restart at zero for every
// document.
func (c *ColumnInverter) InvertColumn(col *column.TextColumn, startRow, rowCount int, docIDBase RowID) {
	for r := 0; r < rowCount; r++ {
		tokens := c.analyzer.Analyze(col.Value(startRow + r))

		perTerm := make(map[string][]Position)
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if _, seen := perTerm[tok.Term]; !seen {
				order = append(order, tok.Term)
			}
			perTerm[tok.Term] = append(perTerm[tok.Term], tok.Position)
		}
		for _, term := range order {
			c.entries = append(c.entries, invertEntry{
				term:      term,
				docID:     docIDBase + RowID(r),
				positions: perTerm[term],
			})
		}
		c.rowLengths = append(c.rowLengths, uint32(len(tokens)))
	}
	c.sorted = false
}

// GetTermListLength copies the token counts of the rows this inverter has
// processed, in inversion order, into out. It fills at most len(out)
// entries and returns how many it filled.
func (c *ColumnInverter) GetTermListLength(out []uint32) int {
	n := copy(out, c.rowLengths)
	return n
}

// Merge moves all entries of other into c, leaving other empty. Entries
// keep their document ids, so merging range inverters is order-independent
// up to the Sort that follows.
func (c *ColumnInverter) Merge(other *ColumnInverter) {
	if other == c || len(other.entries) == 0 {
		return
	}
	c.entries = append(c.entries, other.entries...)
	other.entries = nil
	c.sorted = false
}

// Sort orders entries by term, then by document id.
func (c *ColumnInverter) Sort() {
	sort.Slice(c.entries, func(i, j int) bool {
		if c.entries[i].term != c.entries[j].term {
			return c.entries[i].term < c.entries[j].term
		}
		return c.entries[i].docID < c.entries[j].docID
	})
	c.sorted = true
}

// GeneratePosting feeds the sorted entries into per-term posting writers
// obtained from the provider. Entries are consumed; the inverter is empty
// afterwards and can be reused.
func (c *ColumnInverter) GeneratePosting() {
	if !c.sorted {
		c.Sort()
	}
	var w *Writer
	var cur string
	for _, e := range c.entries {
		if w == nil || e.term != cur {
			w = c.provider(e.term)
			cur = e.term
		}
		w.AddDocument(e.docID, uint32(len(e.positions)), e.positions)
	}
	c.entries = c.entries[:0]
	c.rowLengths = c.rowLengths[:0]
	c.sorted = true
}
