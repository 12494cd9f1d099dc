// Package rec holds the syntax-tree form of rewrite-engine-competition (REC)
// specifications: variables, constructors, rules and conditions, without any
// type information.  Parsing the textual format happens outside this
// repository; loaders deliver a SpecificationSyntax, which converts into the
// structured specification the rewriter consumes.
package rec

import (
	"fmt"
	"strings"

	"github.com/mmgbartels/merc/pkg/aterm"
	"github.com/mmgbartels/merc/pkg/sabre"
)

// Constructor declares a function symbol of the specification.
type Constructor struct {
	Name  string
	Arity int
}

// ConditionSyntax is the syntax tree of one rule condition.  The condition
// either requires both sides to be equal or to be different.
type ConditionSyntax struct {
	Lhs      aterm.Term
	Rhs      aterm.Term
	Equality bool
}

// RuleSyntax is the syntax tree of one rewrite rule.
type RuleSyntax struct {
	Lhs        aterm.Term
	Rhs        aterm.Term
	Conditions []ConditionSyntax
}

func (r RuleSyntax) String() string {
	return fmt.Sprintf("%s -> %s", r.Lhs, r.Rhs)
}

// SpecificationSyntax carries all the bare information needed for rewriting.
type SpecificationSyntax struct {
	Rules        []RuleSyntax
	Constructors []Constructor
	Variables    []string
}

// Merge extends the specification with an included one.  Variables are
// deduplicated by name; rules and constructors append in order.
func (s *SpecificationSyntax) Merge(include *SpecificationSyntax) {
	s.Rules = append(s.Rules, include.Rules...)
	s.Constructors = append(s.Constructors, include.Constructors...)

	for _, v := range include.Variables {
		seen := false
		for _, existing := range s.Variables {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			s.Variables = append(s.Variables, v)
		}
	}
}

// ToRewriteSpec converts the syntax tree into the rewrite specification
// consumed by the rewriters.
func (s *SpecificationSyntax) ToRewriteSpec() *sabre.RewriteSpecification {
	rules := make([]sabre.Rule, 0, len(s.Rules))
	for _, r := range s.Rules {
		conditions := make([]sabre.Condition, 0, len(r.Conditions))
		for _, c := range r.Conditions {
			conditions = append(conditions, sabre.Condition{
				Lhs:      c.Lhs,
				Rhs:      c.Rhs,
				Equality: c.Equality,
			})
		}
		rules = append(rules, sabre.Rule{
			Lhs:        r.Lhs,
			Rhs:        r.Rhs,
			Conditions: conditions,
		})
	}
	return sabre.NewSpecification(rules, s.Variables)
}

func (s *SpecificationSyntax) String() string {
	var sb strings.Builder
	sb.WriteString("Variables:\n")
	for _, v := range s.Variables {
		sb.WriteString(v)
		sb.WriteByte('\n')
	}
	sb.WriteString("Rewrite rules:\n")
	for _, r := range s.Rules {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
