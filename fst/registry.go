package fst

// registry deduplicates structurally identical nodes during construction.
// It maps node content (via FNV-1a hash, with full equality checks on
// collision) to the address the node was first compiled at. This is the
// standard minimized-automaton (DAWG) construction technique: two nodes with
// the same final flag, final output, and transition list collapse into one.
type registry struct {
	table map[uint64][]registryCell
}

type registryCell struct {
	addr CompiledAddr
	node builderNode
}

func newRegistry() *registry {
	return &registry{table: make(map[uint64][]registryCell)}
}

// find returns the compiled address of a previously registered node with
// identical content, if any.
func (r *registry) find(node *builderNode) (CompiledAddr, bool) {
	for _, cell := range r.table[node.hash()] {
		if cell.node.equiv(node) {
			return cell.addr, true
		}
	}
	return NoneAddress, false
}

// insert registers a freshly compiled node. The node's transition slice is
// copied; the builder recycles its scratch nodes.
func (r *registry) insert(node *builderNode, addr CompiledAddr) {
	h := node.hash()
	cp := builderNode{
		isFinal:     node.isFinal,
		finalOutput: node.finalOutput,
	}
	if len(node.trans) > 0 {
		cp.trans = make([]Transition, len(node.trans))
		copy(cp.trans, node.trans)
	}
	r.table[h] = append(r.table[h], registryCell{addr: addr, node: cp})
}
