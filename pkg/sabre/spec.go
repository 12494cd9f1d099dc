// Package sabre implements a term rewriter for conditional first-order
// rewrite systems over the aterm store.  Two strategies are provided: a
// straightforward innermost rewriter, and a set-automaton driven strategy
// that compiles all rules into a single matching automaton and amortises
// matching work across redexes.  Both share the substitution machinery and
// the condition checker.
package sabre

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// Condition guards a conditional rewrite rule: after instantiation both sides
// are rewritten to normal form and compared, requiring equality or
// disequality depending on Equality.
type Condition struct {
	Lhs      aterm.Term
	Rhs      aterm.Term
	Equality bool
}

func (c Condition) String() string {
	op := "=="
	if !c.Equality {
		op = "<>"
	}
	return fmt.Sprintf("%s %s %s", c.Lhs, op, c.Rhs)
}

// Rule is a rewrite rule lhs -> rhs guarded by a conjunction of conditions.
// The free variables of Rhs and of every condition must occur in Lhs.
type Rule struct {
	Conditions []Condition
	Lhs        aterm.Term
	Rhs        aterm.Term
}

func (r Rule) String() string {
	if len(r.Conditions) == 0 {
		return fmt.Sprintf("%s = %s", r.Lhs, r.Rhs)
	}
	conds := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = c.String()
	}
	return fmt.Sprintf("%s -> %s = %s", strings.Join(conds, ", "), r.Lhs, r.Rhs)
}

// RewriteSpecification is an ordered list of rewrite rules together with the
// declared variable names.  A subterm is a variable iff it is an arity-0
// application whose symbol name is declared.
type RewriteSpecification struct {
	rules     []Rule
	variables map[string]struct{}
}

// NewSpecification builds a specification from rules and variable names.
func NewSpecification(rules []Rule, variables []string) *RewriteSpecification {
	vars := make(map[string]struct{}, len(variables))
	for _, v := range variables {
		vars[v] = struct{}{}
	}
	return &RewriteSpecification{rules: rules, variables: vars}
}

// Rules returns the rewrite rules in declaration order.
func (s *RewriteSpecification) Rules() []Rule { return s.rules }

// Variables returns the declared variable names, sorted.
func (s *RewriteSpecification) Variables() []string {
	names := make([]string, 0, len(s.variables))
	for v := range s.variables {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}

// IsVariable reports whether t is a variable occurrence under this
// specification.
func (s *RewriteSpecification) IsVariable(t aterm.TermRef) bool {
	if t.IsInt() || t.Arity() != 0 {
		return false
	}
	_, ok := s.variables[t.Symbol().Name()]
	return ok
}

func (s *RewriteSpecification) String() string {
	var sb strings.Builder
	for _, r := range s.rules {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
