package fst

import "fmt"

// FST is an immutable finite-state transducer over a serialized buffer.
// It is safe for unsynchronized concurrent reads; the buffer must not be
// mutated while the FST (or any Node view into it) is alive.
type FST struct {
	data     []byte
	rootAddr CompiledAddr
	numKeys  uint64
}

// New opens a serialized FST. The version stamp is checked and a mismatch
// fails closed: no partial parse of unknown formats.
func New(data []byte) (*FST, error) {
	if len(data) < headerLen+footerLen {
		return nil, fmt.Errorf("%w: buffer too small (%d bytes)", ErrCorrupted, len(data))
	}
	version := unpackUint(data, 8)
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, version, Version)
	}
	footer := data[len(data)-footerLen:]
	numKeys := unpackUint(footer, 8)
	rootAddr := CompiledAddr(unpackUint(footer[8:], 8))
	if rootAddr != EmptyAddress && (rootAddr < headerLen || rootAddr >= CompiledAddr(len(data)-footerLen)) {
		return nil, fmt.Errorf("%w: root address %d out of range", ErrCorrupted, rootAddr)
	}
	return &FST{data: data, rootAddr: rootAddr, numKeys: numKeys}, nil
}

// Len returns the number of keys in the transducer.
func (f *FST) Len() uint64 {
	return f.numKeys
}

// Bytes returns the underlying serialized buffer.
func (f *FST) Bytes() []byte {
	return f.data
}

// Root returns a view of the root node.
func (f *FST) Root() (Node, error) {
	return node(f.data, f.rootAddr)
}

// Node returns a view of the node at addr.
func (f *FST) Node(addr CompiledAddr) (Node, error) {
	return node(f.data, addr)
}

// Get returns the output associated with key, walking the transducer and
// accumulating edge outputs. The boolean reports whether the key is present.
func (f *FST) Get(key []byte) (Output, bool, error) {
	n, err := f.Root()
	if err != nil {
		return ZeroOutput(), false, err
	}
	out := ZeroOutput()
	for _, b := range key {
		if n.IsEmpty() {
			return ZeroOutput(), false, nil
		}
		i, ok, err := n.FindInput(b)
		if err != nil {
			return ZeroOutput(), false, err
		}
		if !ok {
			return ZeroOutput(), false, nil
		}
		t, err := n.TransAt(i)
		if err != nil {
			return ZeroOutput(), false, err
		}
		out = out.Cat(t.Out)
		if n, err = node(f.data, t.Addr); err != nil {
			return ZeroOutput(), false, err
		}
	}
	if !n.IsFinal() {
		return ZeroOutput(), false, nil
	}
	return out.Cat(n.FinalOutput()), true, nil
}

// Contains reports whether key is present.
func (f *FST) Contains(key []byte) (bool, error) {
	_, ok, err := f.Get(key)
	return ok, err
}

// Iterator walks all (key, output) pairs in lexicographic key order.
type Iterator struct {
	f     *FST
	stack []iterFrame
	key   []byte
	out   Output
	err   error
}

type iterFrame struct {
	node Node
	next int // next transition index to descend
	out  Output
}

// Iterator returns an iterator positioned before the first key.
func (f *FST) Iterator() *Iterator {
	it := &Iterator{f: f}
	root, err := f.Root()
	if err != nil {
		it.err = err
		return it
	}
	it.stack = append(it.stack, iterFrame{node: root})
	if root.IsFinal() {
		// The empty key is emitted by the first Next call.
		it.stack[0].next = -1
	}
	return it
}

// Next advances to the next key. It returns false when exhausted or on
// error; check Err afterwards.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.next == -1 {
			// Emit the key ending at this node.
			top.next = 0
			it.out = top.out.Cat(top.node.FinalOutput())
			return true
		}
		if top.next >= top.node.Len() {
			it.stack = it.stack[:len(it.stack)-1]
			if len(it.key) > 0 {
				it.key = it.key[:len(it.key)-1]
			}
			continue
		}
		t, err := top.node.TransAt(top.next)
		if err != nil {
			it.err = err
			return false
		}
		top.next++
		child, err := node(it.f.data, t.Addr)
		if err != nil {
			it.err = err
			return false
		}
		it.key = append(it.key, t.In)
		frame := iterFrame{node: child, out: top.out.Cat(t.Out)}
		if child.IsFinal() {
			frame.next = -1
		}
		it.stack = append(it.stack, frame)
	}
	return false
}

// Key returns the current key. The slice is reused between Next calls.
func (it *Iterator) Key() []byte {
	return it.key
}

// Output returns the output of the current key.
func (it *Iterator) Output() Output {
	return it.out
}

// Err returns the first error encountered during iteration.
func (it *Iterator) Err() error {
	return it.err
}
