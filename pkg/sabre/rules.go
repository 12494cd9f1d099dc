package sabre

// rules.go compiles rules into the form both strategies consume: variable
// position maps, right-hand-side templates, and compiled conditions.

import (
	"github.com/mmgbartels/merc/internal/errs"
	"github.com/mmgbartels/merc/pkg/aterm"
)

// compiledRule is a rule prepared for repeated application.
type compiledRule struct {
	rule  Rule
	index int

	// varPositions lists, per variable, its occurrences in the left-hand
	// side; the first is the binding position.
	varPositions varMap

	// nonlinear lists the occurrence groups with more than one position.
	nonlinear [][]Position

	rhs        *TermStack
	conditions []emaCondition
}

// compileRules validates and compiles every rule of the specification.
func compileRules(th *aterm.Thread, spec *RewriteSpecification) ([]*compiledRule, error) {
	compiled := make([]*compiledRule, 0, len(spec.Rules()))
	for i, rule := range spec.Rules() {
		cr, err := compileRule(th, spec, rule, i)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

func compileRule(th *aterm.Thread, spec *RewriteSpecification, rule Rule, index int) (*compiledRule, error) {
	lhs := rule.Lhs.Ref()
	if spec.IsVariable(lhs) {
		return nil, errs.Newf(errs.InvalidArgument, "rule %d: left-hand side is a bare variable", index)
	}
	if containsInt(spec, lhs) {
		return nil, errs.Newf(errs.InvalidArgument,
			"rule %d: integer terms are not supported in left-hand sides", index)
	}

	vm := createVarMap(spec, lhs)
	if missing := firstUnboundVariable(spec, vm, rule); missing != "" {
		return nil, errs.Newf(errs.InvalidArgument,
			"rule %d: variable %s occurs only outside the left-hand side", index, missing)
	}

	var nonlinear [][]Position
	for _, positions := range vm {
		if len(positions) > 1 {
			nonlinear = append(nonlinear, positions)
		}
	}

	return &compiledRule{
		rule:         rule,
		index:        index,
		varPositions: vm,
		nonlinear:    nonlinear,
		rhs:          newTermStack(th, spec, rule.Rhs.Ref()),
		conditions:   extendConditions(th, spec, rule),
	}, nil
}

func containsInt(spec *RewriteSpecification, t aterm.TermRef) bool {
	if t.IsInt() {
		return true
	}
	if spec.IsVariable(t) {
		return false
	}
	for i := 0; i < t.Arity(); i++ {
		if containsInt(spec, t.Arg(i)) {
			return true
		}
	}
	return false
}

// firstUnboundVariable returns a variable of the rhs or a condition that the
// lhs does not bind, or "" if all are bound.
func firstUnboundVariable(spec *RewriteSpecification, vm varMap, rule Rule) string {
	var offending string
	var check func(t aterm.TermRef)
	check = func(t aterm.TermRef) {
		if offending != "" {
			return
		}
		if spec.IsVariable(t) {
			name := t.Symbol().Name()
			if _, ok := vm[name]; !ok {
				offending = name
			}
			return
		}
		if t.IsInt() {
			return
		}
		for i := 0; i < t.Arity(); i++ {
			check(t.Arg(i))
		}
	}
	check(rule.Rhs.Ref())
	for _, c := range rule.Conditions {
		check(c.Lhs.Ref())
		check(c.Rhs.Ref())
	}
	return offending
}

// bindingAt derives the variable binding of a structurally matched redex by
// position lookup, and verifies that non-linear occurrences bound equal
// subterms.  ok is false when the non-linearity check fails.
func (r *compiledRule) bindingAt(redex aterm.TermRef) (binding, bool) {
	for _, group := range r.nonlinear {
		first := Get(redex, group[0])
		for _, pos := range group[1:] {
			if !Get(redex, pos).Equal(first) {
				return nil, false
			}
		}
	}

	env := make(binding, len(r.varPositions))
	for name, positions := range r.varPositions {
		env[name] = Get(redex, positions[0])
	}
	return env, true
}

// close releases the pool roots held by the compiled rule.
func (r *compiledRule) close() {
	r.rhs.Close()
	for _, c := range r.conditions {
		c.lhs.Close()
		c.rhs.Close()
	}
}
