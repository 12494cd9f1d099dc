package aterm

// node.go defines the stored node layouts and the canonical term index.
// Application nodes live in the main arena; integer terms live in a separate
// fixed-size arena for locality and are told apart by a tag bit in the index.

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// TermIndex is the canonical identifier of a stored term.  Indices with the
// int tag bit set address the integer arena.
type TermIndex uint32

const (
	// invalidIndex marks empty protection slots.
	invalidIndex TermIndex = 1<<32 - 1

	// intTag distinguishes integer-arena indices from application indices.
	intTag TermIndex = 1 << 31
)

func (i TermIndex) isInt() bool   { return i&intTag != 0 }
func (i TermIndex) slot() uint32  { return uint32(i &^ intTag) }
func (i TermIndex) defined() bool { return i != invalidIndex }

// termNode is a stored application f(t1, ..., tn).  The node is immutable
// between its creation and its collection; live tracks arena occupancy and
// marked is scratch state for the collector.
type termNode struct {
	symbol *Symbol
	args   []TermIndex
	live   bool
	marked bool
}

// intNode is a stored integer term.  The single value slot carries the
// annotation; the head symbol is implicitly the reserved int symbol.
type intNode struct {
	value  uint64
	live   bool
	marked bool
}

// hashNode digests (symbol ordinal, argument indices) for the hash-cons
// table.
func hashNode(symbol *Symbol, args []TermIndex) uint64 {
	var d xxhash.Digest
	d.Reset()

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], symbol.ordinal)
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(args)))
	_, _ = d.Write(buf[:])
	for _, a := range args {
		binary.LittleEndian.PutUint32(buf[:4], uint32(a))
		_, _ = d.Write(buf[:4])
	}
	return d.Sum64()
}

func sameArgs(a, b []TermIndex) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
