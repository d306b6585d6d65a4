package fst

import "bytes"

const (
	// Version is the current serialization format version. Buffers with a
	// different stamp are rejected on load.
	Version = 3

	headerLen = 16
	footerLen = 16
)

// Builder constructs an FST from keys inserted in strictly increasing byte
// order. Nodes are minimized bottom-up through a content-addressed registry
// and serialized tail-first into a single buffer, so the header occupies the
// low addresses and the root ends up on top.
type Builder struct {
	data     []byte
	registry *registry
	lastAddr CompiledAddr

	// stack[i] is the unfinished node reached by the first i bytes of the
	// most recent key; edges between stack levels stay pending until the
	// target subtree is frozen.
	stack []*unfinished

	last    []byte
	numKeys uint64
}

// unfinished is a node still under construction. Its edge to the next
// deeper stack level is held out of the transition list until that subtree
// compiles, because the target address is unknown until then.
type unfinished struct {
	node    *builderNode
	hasLast bool
	lastIn  byte
	lastOut Output
}

func (u *unfinished) freezeLast(addr CompiledAddr) {
	if u.hasLast {
		u.node.trans = append(u.node.trans, Transition{In: u.lastIn, Out: u.lastOut, Addr: addr})
		u.hasLast = false
	}
}

// addPrefix pushes an output prefix down onto everything leaving this node.
func (u *unfinished) addPrefix(prefix Output) {
	if prefix.IsZero() {
		return
	}
	if u.node.isFinal {
		u.node.finalOutput = prefix.Cat(u.node.finalOutput)
	}
	for i := range u.node.trans {
		u.node.trans[i].Out = prefix.Cat(u.node.trans[i].Out)
	}
	if u.hasLast {
		u.lastOut = prefix.Cat(u.lastOut)
	}
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	b := &Builder{
		data:     make([]byte, headerLen),
		registry: newRegistry(),
		lastAddr: NoneAddress,
	}
	packVersionHeader(b.data)
	b.stack = append(b.stack, &unfinished{node: &builderNode{}})
	return b
}

func packVersionHeader(hdr []byte) {
	v := uint64(Version)
	for i := 0; i < 8; i++ {
		hdr[i] = byte(v)
		v >>= 8
	}
	// hdr[8:16] reserved. The header also guarantees that no real node is
	// ever assigned the EmptyAddress or NoneAddress sentinels.
}

// Insert adds a key with the given output value. Keys must arrive in
// strictly increasing byte order; duplicates are rejected with ErrOutOfOrder.
func (b *Builder) Insert(key []byte, val uint64) error {
	if b.numKeys > 0 && bytes.Compare(key, b.last) <= 0 {
		return ErrOutOfOrder
	}

	out := NewOutput(val)
	prefixLen := b.sharePrefix(key, &out)
	b.compileFrom(prefixLen)
	b.addSuffix(key[prefixLen:], out, prefixLen)

	b.last = append(b.last[:0], key...)
	b.numKeys++
	return nil
}

// sharePrefix walks the pending edges along the common prefix of key and the
// previous key, redistributing outputs so each edge carries the greatest
// prefix shared by everything below it. It returns the common prefix length
// and reduces out to the remainder still to be placed.
func (b *Builder) sharePrefix(key []byte, out *Output) int {
	i := 0
	for ; i < len(key) && i < len(b.last); i++ {
		u := b.stack[i]
		if !u.hasLast || u.lastIn != key[i] {
			break
		}
		common := u.lastOut.Prefix(*out)
		pushDown := u.lastOut.Sub(common)
		u.lastOut = common
		*out = out.Sub(common)
		b.stack[i+1].addPrefix(pushDown)
	}
	return i
}

// addSuffix grows the stack with the diverging tail of the key. The output
// remainder rides on the first new edge; the rest carry zero.
func (b *Builder) addSuffix(suffix []byte, out Output, istate int) {
	if len(suffix) == 0 {
		// key == previous prefix: mark the node at istate final.
		u := b.stack[istate]
		u.node.isFinal = true
		u.node.finalOutput = out.Cat(u.node.finalOutput)
		return
	}
	u := b.stack[istate]
	u.hasLast = true
	u.lastIn = suffix[0]
	u.lastOut = out
	for _, c := range suffix[1:] {
		next := &unfinished{node: &builderNode{}, hasLast: true, lastIn: c}
		b.stack = append(b.stack, next)
	}
	// Terminal node for the key.
	b.stack = append(b.stack, &unfinished{node: &builderNode{isFinal: true}})
}

// compileFrom freezes and compiles every stack level deeper than istate,
// wiring each compiled address into its parent's pending edge.
func (b *Builder) compileFrom(istate int) {
	addr := NoneAddress
	for len(b.stack) > istate+1 {
		u := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		if addr != NoneAddress {
			u.freezeLast(addr)
		}
		addr = b.compile(u.node)
	}
	if addr != NoneAddress {
		b.stack[istate].freezeLast(addr)
	}
}

// compile serializes a node, deduplicating through the registry. The
// canonical empty final node compiles to EmptyAddress without writing.
func (b *Builder) compile(n *builderNode) CompiledAddr {
	if n.isFinal && len(n.trans) == 0 && n.finalOutput.IsZero() {
		return EmptyAddress
	}
	if addr, ok := b.registry.find(n); ok {
		return addr
	}
	b.data = n.compileTo(b.data, b.lastAddr)
	addr := CompiledAddr(len(b.data) - 1)
	b.registry.insert(n, addr)
	b.lastAddr = addr
	return addr
}

// Finish compiles the remaining unfinished path and appends the footer
// (key count and root address). The returned buffer is the complete
// serialized FST.
func (b *Builder) Finish() ([]byte, error) {
	b.compileFrom(0)
	root := b.stack[0]
	b.stack = b.stack[:0]
	rootAddr := b.compile(root.node)

	footer := make([]byte, footerLen)
	v := b.numKeys
	for i := 0; i < 8; i++ {
		footer[i] = byte(v)
		v >>= 8
	}
	a := uint64(rootAddr)
	for i := 8; i < 16; i++ {
		footer[i] = byte(a)
		a >>= 8
	}
	b.data = append(b.data, footer...)
	return b.data, nil
}

// Len returns the number of keys inserted so far.
func (b *Builder) Len() uint64 {
	return b.numKeys
}
