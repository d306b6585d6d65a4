package fst

import "fmt"

type stateKind uint8

const (
	stateEmptyFinal stateKind = iota
	stateOneTransNext
	stateOneTrans
	stateAnyTrans
)

// Node is an ephemeral, read-only view of a compiled node. It borrows the
// underlying FST buffer and must not outlive it. All field offsets are
// derived once from the trailing control byte chain, so transition access is
// O(1) given the cached sizes.
type Node struct {
	data  []byte
	addr  CompiledAddr
	state stateKind

	start       CompiledAddr // lowest byte of this node's encoding
	isFinal     bool
	ntrans      int
	finalOutput Output
	sizes       packSizes

	// Single-transition variants.
	in       byte
	inputLen CompiledAddr

	// AnyTrans field anchors.
	inputsTop CompiledAddr // address of the input byte for transition 0
	indexLen  CompiledAddr
}

// node decodes the node at addr. addr == EmptyAddress yields the sentinel
// empty final state without touching the buffer.
func node(data []byte, addr CompiledAddr) (Node, error) {
	if addr == EmptyAddress {
		return Node{data: data, addr: addr, state: stateEmptyFinal, isFinal: true}, nil
	}
	if addr == NoneAddress || addr >= CompiledAddr(len(data)) {
		return Node{}, fmt.Errorf("%w: node address %d out of range", ErrCorrupted, addr)
	}
	ctrl := data[addr]
	switch {
	case ctrl&tagOneTransNext == tagOneTransNext:
		return decodeOneTransNext(data, addr, ctrl)
	case ctrl&tagOneTransNext == tagOneTrans:
		return decodeOneTrans(data, addr, ctrl)
	default:
		return decodeAnyTrans(data, addr, ctrl)
	}
}

func decodeCommonInput(data []byte, addr CompiledAddr, ctrl byte) (in byte, inputLen CompiledAddr) {
	if c := ctrl & 0x3f; c != 0 {
		return commonInputsInv[c-1], 0
	}
	return data[addr-1], 1
}

func decodeOneTransNext(data []byte, addr CompiledAddr, ctrl byte) (Node, error) {
	in, inputLen := decodeCommonInput(data, addr, ctrl)
	return Node{
		data:     data,
		addr:     addr,
		state:    stateOneTransNext,
		start:    addr - inputLen,
		ntrans:   1,
		in:       in,
		inputLen: inputLen,
	}, nil
}

func decodeOneTrans(data []byte, addr CompiledAddr, ctrl byte) (Node, error) {
	in, inputLen := decodeCommonInput(data, addr, ctrl)
	sizes := packSizes(data[addr-1-inputLen])
	if !sizes.valid() {
		return Node{}, fmt.Errorf("%w: pack sizes %#x at %d", ErrCorrupted, uint8(sizes), addr)
	}
	tsize := CompiledAddr(sizes.transSize())
	osize := CompiledAddr(sizes.outputSize())
	start := addr - inputLen - 1 - tsize - osize
	return Node{
		data:     data,
		addr:     addr,
		state:    stateOneTrans,
		start:    start,
		ntrans:   1,
		sizes:    sizes,
		in:       in,
		inputLen: inputLen,
	}, nil
}

func decodeAnyTrans(data []byte, addr CompiledAddr, ctrl byte) (Node, error) {
	isFinal := ctrl&anyTransFinalBit != 0
	ntrans := int(ctrl & 0x3f)
	ntransLen := CompiledAddr(0)
	if ntrans == 0 {
		ntransLen = 1
		switch c := data[addr-1]; c {
		case 1:
			ntrans = 256
		default:
			ntrans = int(c)
		}
	}
	sizes := packSizes(data[addr-1-ntransLen])
	if !sizes.valid() {
		return Node{}, fmt.Errorf("%w: pack sizes %#x at %d", ErrCorrupted, uint8(sizes), addr)
	}
	tsize := CompiledAddr(sizes.transSize())
	osize := CompiledAddr(sizes.outputSize())

	indexLen := CompiledAddr(0)
	if ntrans > transIndexThreshold {
		indexLen = 256
	}
	nt := CompiledAddr(ntrans)
	inputsTop := addr - 1 - ntransLen - 1 - indexLen

	oblock := osize * nt
	foLen := CompiledAddr(0)
	if isFinal && osize > 0 {
		foLen = osize
	}
	start := inputsTop - nt + 1 - tsize*nt - oblock - foLen
	if start > addr { // underflow wrap
		return Node{}, fmt.Errorf("%w: node at %d extends below buffer", ErrCorrupted, addr)
	}

	n := Node{
		data:      data,
		addr:      addr,
		state:     stateAnyTrans,
		start:     start,
		isFinal:   isFinal,
		ntrans:    ntrans,
		sizes:     sizes,
		inputsTop: inputsTop,
		indexLen:  indexLen,
	}
	if foLen > 0 {
		n.finalOutput = NewOutput(unpackUint(data[start:], sizes.outputSize()))
	}
	return n, nil
}

// Addr returns the node's compiled address.
func (n *Node) Addr() CompiledAddr {
	return n.addr
}

// IsFinal reports whether the node is an accepting state.
func (n *Node) IsFinal() bool {
	return n.isFinal
}

// IsEmpty reports whether this is the sentinel empty final state.
func (n *Node) IsEmpty() bool {
	return n.state == stateEmptyFinal
}

// FinalOutput returns the output attached to the accepting state.
// It is zero for non-final nodes.
func (n *Node) FinalOutput() Output {
	return n.finalOutput
}

// Len returns the number of transitions.
func (n *Node) Len() int {
	if n.state == stateEmptyFinal {
		return 0
	}
	return n.ntrans
}

// TransAt returns transition i. The caller guarantees 0 <= i < Len();
// calling it on the empty final state returns ErrUnsupported.
func (n *Node) TransAt(i int) (Transition, error) {
	switch n.state {
	case stateEmptyFinal:
		return Transition{}, ErrUnsupported
	case stateOneTransNext:
		return Transition{In: n.in, Addr: n.start - 1}, nil
	case stateOneTrans:
		osize := n.sizes.outputSize()
		out := ZeroOutput()
		if osize > 0 {
			out = NewOutput(unpackUint(n.data[n.start:], osize))
		}
		addr := unpackDelta(n.data[n.start+CompiledAddr(osize):], n.sizes.transSize(), n.start)
		return Transition{In: n.in, Out: out, Addr: addr}, nil
	default:
		addr, err := n.TransAddr(i)
		if err != nil {
			return Transition{}, err
		}
		out := ZeroOutput()
		if osize := n.sizes.outputSize(); osize > 0 {
			at := n.outputsBottom() + CompiledAddr(n.ntrans-1-i)*CompiledAddr(osize)
			out = NewOutput(unpackUint(n.data[at:], osize))
		}
		return Transition{In: n.data[n.inputsTop-CompiledAddr(i)], Out: out, Addr: addr}, nil
	}
}

// TransAddr returns the target address of transition i without decoding its
// output.
func (n *Node) TransAddr(i int) (CompiledAddr, error) {
	switch n.state {
	case stateEmptyFinal:
		return NoneAddress, ErrUnsupported
	case stateOneTransNext:
		return n.start - 1, nil
	case stateOneTrans:
		osize := CompiledAddr(n.sizes.outputSize())
		return unpackDelta(n.data[n.start+osize:], n.sizes.transSize(), n.start), nil
	default:
		tsize := CompiledAddr(n.sizes.transSize())
		at := n.deltasBottom() + CompiledAddr(n.ntrans-1-i)*tsize
		return unpackDelta(n.data[at:], n.sizes.transSize(), n.start), nil
	}
}

// deltasBottom returns the lowest address of the delta block (the bytes of
// the last transition's delta; transition 0 occupies the highest slot).
func (n *Node) deltasBottom() CompiledAddr {
	return n.inputsTop - CompiledAddr(n.ntrans)*CompiledAddr(n.sizes.transSize()) - CompiledAddr(n.ntrans) + 1
}

func (n *Node) outputsBottom() CompiledAddr {
	return n.deltasBottom() - CompiledAddr(n.ntrans)*CompiledAddr(n.sizes.outputSize())
}

// FindInput returns the index of the transition consuming b.
// Lookup is O(1) when the node carries a direct index (transition count
// above transIndexThreshold), a direct comparison for single-transition
// layouts, and a linear scan otherwise.
func (n *Node) FindInput(b byte) (int, bool, error) {
	switch n.state {
	case stateEmptyFinal:
		return 0, false, ErrUnsupported
	case stateOneTransNext, stateOneTrans:
		if n.in == b {
			return 0, true, nil
		}
		return 0, false, nil
	default:
		if n.indexLen > 0 {
			// Index block sits directly below the pack-sizes byte.
			v := n.data[n.inputsTop+1+CompiledAddr(b)]
			if v == absentIndex && n.ntrans != 256 {
				return 0, false, nil
			}
			return int(v), true, nil
		}
		for i := 0; i < n.ntrans; i++ {
			if n.data[n.inputsTop-CompiledAddr(i)] == b {
				return i, true, nil
			}
		}
		return 0, false, nil
	}
}
