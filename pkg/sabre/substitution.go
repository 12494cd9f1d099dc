package sabre

// substitution.go creates a new term in which one subterm is replaced.  The
// result is constructed bottom up: as an example take the term s(s(a)) where
// the a is to be replaced by 0.  We descend to a, replace it with 0, then
// construct s(0) and finally s(s(0)), reusing every sibling argument
// unchanged so the result shares maximal structure with the input.
//
// The builder holds protected references to the argument spine while the
// replacement is interned, so intermediates survive any collection triggered
// by the allocations.

import "github.com/mmgbartels/merc/pkg/aterm"

// SubstitutionBuilder is a reusable protected scratch buffer for substitution
// and template instantiation.
type SubstitutionBuilder struct {
	buf *aterm.Protected[*aterm.TermSlice]
}

// NewSubstitutionBuilder creates a builder whose scratch contents are rooted
// in owner's protection set.
func NewSubstitutionBuilder(owner *aterm.Thread) *SubstitutionBuilder {
	return &SubstitutionBuilder{buf: aterm.NewProtected(owner, &aterm.TermSlice{})}
}

// Close releases the scratch buffer's root registration.
func (b *SubstitutionBuilder) Close() {
	b.buf.Close()
}

// Substitute returns a new term equal to t with the subterm at position p
// replaced by repl.  A fresh scratch buffer is used; callers on a rewrite hot
// path should prefer SubstituteWith.
func Substitute(th *aterm.Thread, t aterm.TermRef, repl aterm.TermRef, p Position) aterm.Term {
	b := NewSubstitutionBuilder(th)
	defer b.Close()
	return SubstituteWith(b, th, t, repl, p)
}

// SubstituteWith is Substitute with a caller-supplied scratch buffer.
func SubstituteWith(b *SubstitutionBuilder, th *aterm.Thread, t aterm.TermRef, repl aterm.TermRef, p Position) aterm.Term {
	var result aterm.Term
	th.Guarded(func() {
		result = substituteRec(b, th, t, repl, p, 0)
	})
	return result
}

func substituteRec(b *SubstitutionBuilder, th *aterm.Thread, t aterm.TermRef, repl aterm.TermRef, p Position, depth int) aterm.Term {
	if depth == len(p) {
		// Arrived at the place where the replacement is injected.
		return th.Protect(repl)
	}

	childIdx := int(p[depth]) - 1
	if childIdx < 0 || childIdx >= t.Arity() {
		panic("sabre: substitution position does not exist in term " + t.String())
	}
	newChild := substituteRec(b, th, t.Arg(childIdx), repl, p, depth+1)

	var result aterm.Term
	var err error
	b.buf.Write(th, func(s *aterm.TermSlice) {
		// The buffer nests across recursion levels; restore our base when
		// done so outer frames keep their slices intact.
		base := s.Len()
		for i := 0; i < t.Arity(); i++ {
			if i == childIdx {
				s.Protect(newChild.Ref())
			} else {
				s.Protect(t.Arg(i))
			}
		}
		result, err = th.CreateTerm(t.Symbol(), s.Refs()[base:]...)
		s.Truncate(base)
	})
	newChild.Drop()
	if err != nil {
		// Unreachable: the argument count equals the symbol's arity.
		panic(err)
	}
	return result
}
