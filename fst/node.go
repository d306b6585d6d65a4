package fst

// Transition is a single labeled edge out of a node.
type Transition struct {
	// In is the input byte consumed by the transition.
	In byte
	// Out is the output accumulated when the transition is taken.
	Out Output
	// Addr is the compiled address of the target node.
	Addr CompiledAddr
}

// builderNode is the in-memory, pre-serialization form of a node.
// Transitions are ordered by input byte; at most one per byte value.
type builderNode struct {
	isFinal     bool
	finalOutput Output
	trans       []Transition
}

// FNV-1a parameters.
const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func fnvByte(h uint64, b byte) uint64 {
	return (h ^ uint64(b)) * fnvPrime
}

func fnvUint(h, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h = fnvByte(h, byte(v))
		v >>= 8
	}
	return h
}

// hash computes an FNV-1a digest over every field, so that structurally
// identical nodes collide and can be deduplicated by the registry.
func (n *builderNode) hash() uint64 {
	h := uint64(fnvOffset)
	if n.isFinal {
		h = fnvByte(h, 1)
	} else {
		h = fnvByte(h, 0)
	}
	h = fnvUint(h, n.finalOutput.Value())
	for _, t := range n.trans {
		h = fnvByte(h, t.In)
		h = fnvUint(h, t.Out.Value())
		h = fnvUint(h, uint64(t.Addr))
	}
	return h
}

// equiv reports value equality over all fields.
func (n *builderNode) equiv(o *builderNode) bool {
	if n.isFinal != o.isFinal || n.finalOutput != o.finalOutput || len(n.trans) != len(o.trans) {
		return false
	}
	for i, t := range n.trans {
		if t != o.trans[i] {
			return false
		}
	}
	return true
}

func (n *builderNode) clear() {
	n.isFinal = false
	n.finalOutput = ZeroOutput()
	n.trans = n.trans[:0]
}
