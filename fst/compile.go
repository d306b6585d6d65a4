package fst

// Control byte tags, stored in the top two bits.
const (
	tagOneTransNext = 0xc0 // 0b11......
	tagOneTrans     = 0x80 // 0b10......
	// AnyTrans has a zero top bit; bit 6 carries the final flag.
	anyTransFinalBit = 0x40
)

// transIndexThreshold is the transition count above which AnyTrans nodes
// carry a 256-entry direct input index for O(1) lookup.
const transIndexThreshold = 32

// Frequent input bytes are folded into the low 6 bits of the control byte so
// single-transition nodes need no separate input byte. Code 0 means the
// input is stored explicitly; codes 1..62 index commonInputsInv.
var (
	commonInputs    [256]byte
	commonInputsInv [62]byte
)

func init() {
	chars := []byte("abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	for i, c := range chars {
		commonInputs[c] = byte(i + 1)
		commonInputsInv[i] = c
	}
}

// compileTo serializes the node onto buf and returns the extended buffer.
// The node's address is len(buf)-1 afterwards: the control byte is written
// last and sits at the highest offset, with every variable-length field
// below it. lastAddr is the address of the most recently written node and
// enables the implicit-target OneTransNext layout.
//
// Layout selection is a pure function of the node's shape, never of
// insertion order. The canonical empty final node (no transitions, zero
// final output) is not written at all; callers represent it as EmptyAddress.
func (n *builderNode) compileTo(buf []byte, lastAddr CompiledAddr) []byte {
	if len(n.trans) == 1 && !n.isFinal {
		t := n.trans[0]
		if t.Addr == lastAddr && t.Out.IsZero() {
			return compileOneTransNext(buf, t.In)
		}
		return compileOneTrans(buf, t)
	}
	return compileAnyTrans(buf, n)
}

func compileOneTransNext(buf []byte, in byte) []byte {
	if c := commonInputs[in]; c != 0 {
		return append(buf, tagOneTransNext|c)
	}
	return append(buf, in, tagOneTransNext)
}

func compileOneTrans(buf []byte, t Transition) []byte {
	nodeStart := CompiledAddr(len(buf))

	osize := uint8(0)
	if !t.Out.IsZero() {
		osize = packSize(t.Out.Value())
	}
	tsize := deltaSize(nodeStart, t.Addr)

	if osize > 0 {
		buf = packUint(buf, t.Out.Value(), osize)
	}
	buf = packDelta(buf, nodeStart, t.Addr, tsize)
	buf = append(buf, byte(newPackSizes(tsize, osize)))
	if c := commonInputs[t.In]; c != 0 {
		return append(buf, tagOneTrans|c)
	}
	return append(buf, t.In, tagOneTrans)
}

func compileAnyTrans(buf []byte, n *builderNode) []byte {
	nodeStart := CompiledAddr(len(buf))
	ntrans := len(n.trans)

	// Width of the output fields, shared by every transition and the final
	// output. Zero width means the node carries no outputs at all.
	osize := uint8(0)
	anyOuts := n.isFinal && !n.finalOutput.IsZero()
	for _, t := range n.trans {
		if !t.Out.IsZero() {
			anyOuts = true
		}
	}
	if anyOuts {
		osize = packSize(n.finalOutput.Value())
		for _, t := range n.trans {
			if s := packSize(t.Out.Value()); s > osize {
				osize = s
			}
		}
	}

	tsize := uint8(1)
	for _, t := range n.trans {
		if s := deltaSize(nodeStart, t.Addr); s > tsize {
			tsize = s
		}
	}

	// Fields are appended low-address-first; reading walks back down from
	// the control byte.
	if n.isFinal && osize > 0 {
		buf = packUint(buf, n.finalOutput.Value(), osize)
	}
	if osize > 0 {
		for i := ntrans - 1; i >= 0; i-- {
			buf = packUint(buf, n.trans[i].Out.Value(), osize)
		}
	}
	for i := ntrans - 1; i >= 0; i-- {
		buf = packDelta(buf, nodeStart, n.trans[i].Addr, tsize)
	}
	for i := ntrans - 1; i >= 0; i-- {
		buf = append(buf, n.trans[i].In)
	}
	if ntrans > transIndexThreshold {
		var index [256]byte
		for i := range index {
			index[i] = absentIndex
		}
		for i, t := range n.trans {
			index[t.In] = byte(i)
		}
		buf = append(buf, index[:]...)
	}
	buf = append(buf, byte(newPackSizes(tsize, osize)))

	ctrl := byte(0)
	if n.isFinal {
		ctrl |= anyTransFinalBit
	}
	if ntrans > 0 && ntrans <= 63 {
		ctrl |= byte(ntrans)
	} else {
		// The count byte holds 0 for zero transitions and the literal count
		// for 64..255. A full node of 256 transitions is encoded as 1, which
		// is otherwise unused: a single transition always fits inline.
		switch ntrans {
		case 256:
			buf = append(buf, 1)
		default:
			buf = append(buf, byte(ntrans))
		}
	}
	return append(buf, ctrl)
}

// absentIndex marks a missing input byte in the 256-entry direct index.
// It is unambiguous: a transition index of 255 can only occur in a node
// with all 256 transitions, where no input is absent.
const absentIndex = 255
