package aterm

// term.go defines the two reference types of the API.  A Term owns a
// protection slot and keeps its term alive across collections until Drop is
// called.  A TermRef is borrowed: it is valid only while something else (an
// owning Term, a Protected container, or a held reader guard) keeps the term
// alive.  Subterm accessors return TermRefs with the caller's lifetime;
// promoting one to a long-lived handle requires an explicit Protect.

import (
	"fmt"
	"iter"
	"strings"
)

// TermRef is a borrowed reference to a stored term.
type TermRef struct {
	pool  *Pool
	index TermIndex
}

// Defined reports whether the reference addresses a term at all.
func (r TermRef) Defined() bool { return r.pool != nil && r.index.defined() }

// Pool returns the pool the term lives in.
func (r TermRef) Pool() *Pool { return r.pool }

// Index returns the term's canonical identifier.  Equal terms have equal
// indices; hashing a term delegates to this value.
func (r TermRef) Index() uint32 { return uint32(r.index) }

// Equal compares by index, which by maximal sharing is structural equality.
func (r TermRef) Equal(o TermRef) bool {
	return r.pool == o.pool && r.index == o.index
}

// Symbol returns the head symbol.  Integer terms answer the reserved int
// symbol.
func (r TermRef) Symbol() *Symbol { return r.pool.symbolAt(r.index) }

// Arity returns the stored argument count.
func (r TermRef) Arity() int { return r.pool.arityAt(r.index) }

// IsInt reports whether the term is the integer variant.
func (r TermRef) IsInt() bool { return r.index.isInt() }

// IntValue returns the integer annotation.  Calling it on a non-integer term
// is a contract violation.
func (r TermRef) IntValue() uint64 {
	if !r.index.isInt() {
		panic(fmt.Sprintf("aterm: IntValue on non-integer term %s", r))
	}
	return r.pool.intValueAt(r.index)
}

// IsEmptyList reports whether the term is the reserved empty list.
func (r TermRef) IsEmptyList() bool { return !r.index.isInt() && r.Symbol() == r.pool.emptySym }

// IsCons reports whether the term is a head/tail list cell.
func (r TermRef) IsCons() bool { return !r.index.isInt() && r.Symbol() == r.pool.consSym }

// IsList reports whether the term is a list variant.
func (r TermRef) IsList() bool { return r.IsEmptyList() || r.IsCons() }

// Arg returns the i-th argument (0-based) as a borrowed reference with the
// caller's lifetime.  An out-of-range index is a contract violation.
func (r TermRef) Arg(i int) TermRef {
	if i < 0 || i >= r.Arity() {
		panic(fmt.Sprintf("aterm: argument %d out of range for %s/%d", i, r.Symbol().Name(), r.Arity()))
	}
	return TermRef{pool: r.pool, index: r.pool.argAt(r.index, i)}
}

// Args returns the arguments in positional order as a lazy, restartable
// sequence of borrowed references.
func (r TermRef) Args() iter.Seq[TermRef] {
	return func(yield func(TermRef) bool) {
		for i, n := 0, r.Arity(); i < n; i++ {
			if !yield(r.Arg(i)) {
				return
			}
		}
	}
}

// ListElements returns the elements of a well-formed cons list in order.
func (r TermRef) ListElements() []TermRef {
	var elems []TermRef
	for cur := r; cur.IsCons(); cur = cur.Arg(1) {
		elems = append(elems, cur.Arg(0))
	}
	return elems
}

func (r TermRef) String() string {
	if !r.Defined() {
		return "<undefined>"
	}
	var sb strings.Builder
	r.write(&sb)
	return sb.String()
}

func (r TermRef) write(sb *strings.Builder) {
	if r.IsInt() {
		fmt.Fprintf(sb, "%d", r.IntValue())
		return
	}
	sb.WriteString(r.Symbol().Name())
	if r.Arity() == 0 {
		return
	}
	sb.WriteByte('(')
	for i := 0; i < r.Arity(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		r.Arg(i).write(sb)
	}
	sb.WriteByte(')')
}

// Term is an owning handle: the term is a GC root until Drop releases the
// backing protection slot.  Drop a Term at most once.
type Term struct {
	ref    TermRef
	thread *Thread
	slot   int
}

// Ref borrows the term.  The borrow is valid while this Term (or another
// root) keeps the term alive.
func (t Term) Ref() TermRef { return t.ref }

// Defined reports whether the handle holds a term.
func (t Term) Defined() bool { return t.ref.Defined() }

// Drop releases the protection slot.  The Term and all borrows derived from
// it must not be used afterwards.
func (t Term) Drop() {
	if t.thread == nil {
		return
	}
	t.thread.enter()
	t.thread.unprotect(t.slot)
	t.thread.leave()
}

func (t Term) Index() uint32          { return t.ref.Index() }
func (t Term) Equal(o Term) bool      { return t.ref.Equal(o.ref) }
func (t Term) Symbol() *Symbol        { return t.ref.Symbol() }
func (t Term) Arity() int             { return t.ref.Arity() }
func (t Term) IsInt() bool            { return t.ref.IsInt() }
func (t Term) IntValue() uint64       { return t.ref.IntValue() }
func (t Term) Arg(i int) TermRef      { return t.ref.Arg(i) }
func (t Term) Args() iter.Seq[TermRef] { return t.ref.Args() }
func (t Term) String() string         { return t.ref.String() }
