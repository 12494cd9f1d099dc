package sabre

// position.go addresses subterms by paths of argument indices.  General
// positions are 1-based, one component per argument step; the data-position
// variant is 0-based (it omits the head-symbol slot of the data-application
// encoding) and maps onto general positions by shifting each component.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// Position is a path of 1-based argument indices.  The empty position is the
// root, written ε.
type Position []uint32

func (p Position) String() string {
	if len(p) == 0 {
		return "ε"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ".")
}

// Child returns p extended with component i, backed by fresh storage.
func (p Position) Child(i uint32) Position {
	child := make(Position, len(p)+1)
	copy(child, p)
	child[len(p)] = i
	return child
}

// Concat returns p followed by q, backed by fresh storage.
func (p Position) Concat(q Position) Position {
	if len(q) == 0 {
		return p
	}
	out := make(Position, len(p)+len(q))
	copy(out, p)
	copy(out[len(p):], q)
	return out
}

// Equal reports component-wise equality.
func (p Position) Equal(q Position) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether q is a prefix of p.
func (p Position) HasPrefix(q Position) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// compare orders positions leftmost-outermost: shorter first, then
// lexicographically.
func (p Position) compare(q Position) int {
	if len(p) != len(q) {
		if len(p) < len(q) {
			return -1
		}
		return 1
	}
	for i := range p {
		if p[i] != q[i] {
			if p[i] < q[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Get descends one argument per position component and returns the addressed
// subterm as a borrow.  A component exceeding the arity at its level is a
// contract violation.
func Get(t aterm.TermRef, p Position) aterm.TermRef {
	cur := t
	for depth, c := range p {
		if c < 1 || int(c) > cur.Arity() {
			panic(fmt.Sprintf("sabre: position %s does not exist in %s (component %d at depth %d)",
				p, t, c, depth))
		}
		cur = cur.Arg(int(c) - 1)
	}
	return cur
}

// Valid reports whether p addresses a subterm of t.
func Valid(t aterm.TermRef, p Position) bool {
	cur := t
	for _, c := range p {
		if c < 1 || int(c) > cur.Arity() {
			return false
		}
		cur = cur.Arg(int(c) - 1)
	}
	return true
}

// DataPosition is the 0-based position variant used for data applications,
// which omit the head-symbol slot.
type DataPosition []uint32

// Position converts to the general 1-based form.
func (p DataPosition) Position() Position {
	out := make(Position, len(p))
	for i, c := range p {
		out[i] = c + 1
	}
	return out
}

func (p DataPosition) String() string {
	if len(p) == 0 {
		return "ε"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ".")
}
