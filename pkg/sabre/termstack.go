package sabre

// termstack.go implements the semi-compressed templates used to instantiate
// right-hand sides and condition sides, plus the variable position maps both
// rewrite strategies rely on.  Ground subtrees of a template are kept in the
// term pool as a single protected term; only the spine above variables is
// rebuilt per instantiation.

import (
	"fmt"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// varMap records, per variable name, every position at which the variable
// occurs in a rule's left-hand side, in depth-first discovery order.  The
// first occurrence is the binding position; the remainder drive the
// non-linearity check.
type varMap map[string][]Position

// createVarMap collects the variable positions of lhs.
func createVarMap(spec *RewriteSpecification, lhs aterm.TermRef) varMap {
	vm := make(varMap)
	var walk func(t aterm.TermRef, pos Position)
	walk = func(t aterm.TermRef, pos Position) {
		if spec.IsVariable(t) {
			name := t.Symbol().Name()
			vm[name] = append(vm[name], pos)
			return
		}
		if t.IsInt() {
			return
		}
		for i := 0; i < t.Arity(); i++ {
			walk(t.Arg(i), pos.Child(uint32(i+1)))
		}
	}
	walk(lhs, nil)
	return vm
}

// binding maps variable names to the subterms they matched.
type binding map[string]aterm.TermRef

// TermStack is a compiled template.  Nodes are either a protected ground
// term, a variable occurrence, or an application spine above variables.
type TermStack struct {
	root tsNode
}

type tsNode struct {
	// ground holds the whole subtree when it contains no variables.
	ground aterm.Term

	// variable names the variable when the node is an occurrence.
	variable string

	symbol   *aterm.Symbol
	children []tsNode
}

// newTermStack compiles t into a template.  Ground subtrees are interned once
// and protected in th's protection set for the lifetime of the stack.
func newTermStack(th *aterm.Thread, spec *RewriteSpecification, t aterm.TermRef) *TermStack {
	return &TermStack{root: compileTemplate(th, spec, t)}
}

func compileTemplate(th *aterm.Thread, spec *RewriteSpecification, t aterm.TermRef) tsNode {
	if spec.IsVariable(t) {
		return tsNode{variable: t.Symbol().Name()}
	}
	if isGround(spec, t) {
		return tsNode{ground: th.Protect(t)}
	}
	node := tsNode{symbol: t.Symbol(), children: make([]tsNode, t.Arity())}
	for i := 0; i < t.Arity(); i++ {
		node.children[i] = compileTemplate(th, spec, t.Arg(i))
	}
	return node
}

func isGround(spec *RewriteSpecification, t aterm.TermRef) bool {
	if spec.IsVariable(t) {
		return false
	}
	if t.IsInt() {
		return true
	}
	for i := 0; i < t.Arity(); i++ {
		if !isGround(spec, t.Arg(i)) {
			return false
		}
	}
	return true
}

// Build instantiates the template under the given binding, returning an
// owning handle.  Every variable of the template must be bound.
func (ts *TermStack) Build(b *SubstitutionBuilder, th *aterm.Thread, env binding) aterm.Term {
	var result aterm.Term
	th.Guarded(func() {
		result = buildNode(&ts.root, b, th, env)
	})
	return result
}

func buildNode(n *tsNode, b *SubstitutionBuilder, th *aterm.Thread, env binding) aterm.Term {
	if n.ground.Defined() {
		return th.Protect(n.ground.Ref())
	}
	if n.variable != "" {
		bound, ok := env[n.variable]
		if !ok {
			panic(fmt.Sprintf("sabre: unbound variable %s while instantiating a template", n.variable))
		}
		return th.Protect(bound)
	}

	args := make([]aterm.Term, len(n.children))
	for i := range n.children {
		args[i] = buildNode(&n.children[i], b, th, env)
	}

	var result aterm.Term
	var err error
	b.buf.Write(th, func(s *aterm.TermSlice) {
		base := s.Len()
		for _, a := range args {
			s.Protect(a.Ref())
		}
		result, err = th.CreateTerm(n.symbol, s.Refs()[base:]...)
		s.Truncate(base)
	})
	for _, a := range args {
		a.Drop()
	}
	if err != nil {
		panic(err)
	}
	return result
}

// Close releases the ground terms held by the template.
func (ts *TermStack) Close() {
	closeNode(&ts.root)
}

func closeNode(n *tsNode) {
	if n.ground.Defined() {
		n.ground.Drop()
		n.ground = aterm.Term{}
		return
	}
	for i := range n.children {
		closeNode(&n.children[i])
	}
}
