package sabre

// conditions.go stores rule conditions as semi-compressed templates so they
// can be instantiated efficiently, and checks them by rewriting both sides to
// normal form.

import "github.com/mmgbartels/merc/pkg/aterm"

// emaCondition is a rule condition compiled for repeated evaluation: both
// sides live in the term pool as much as possible via term stacks.
type emaCondition struct {
	lhs      *TermStack
	rhs      *TermStack
	equality bool
}

// extendConditions compiles the conditions of a rule.
func extendConditions(th *aterm.Thread, spec *RewriteSpecification, rule Rule) []emaCondition {
	conditions := make([]emaCondition, 0, len(rule.Conditions))
	for _, c := range rule.Conditions {
		conditions = append(conditions, emaCondition{
			lhs:      newTermStack(th, spec, c.Lhs.Ref()),
			rhs:      newTermStack(th, spec, c.Rhs.Ref()),
			equality: c.Equality,
		})
	}
	return conditions
}

// checkConditions instantiates every condition under env, rewrites both sides
// to normal form with rewrite, and compares by index.  All conditions must
// hold for the rule to apply.
func checkConditions(conditions []emaCondition, b *SubstitutionBuilder, th *aterm.Thread,
	env binding, rewrite func(aterm.TermRef) aterm.Term) bool {

	for _, c := range conditions {
		lhs := c.lhs.Build(b, th, env)
		lnf := rewrite(lhs.Ref())
		lhs.Drop()

		rhs := c.rhs.Build(b, th, env)
		rnf := rewrite(rhs.Ref())
		rhs.Drop()

		equal := lnf.Index() == rnf.Index()
		lnf.Drop()
		rnf.Drop()

		if equal != c.equality {
			return false
		}
	}
	return true
}
