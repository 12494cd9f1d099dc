package sabre

// innermost.go implements the reference strategy: rewrite all arguments to
// normal form, then attempt the rules at the root in declaration order.
// Normal forms are memoized per rewriter instance; both the memo keys and
// values are protected, so cached indices stay valid across collections.

import (
	"go.uber.org/zap"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// InnermostRewriter rewrites terms with the innermost strategy.
type InnermostRewriter struct {
	thread *aterm.Thread
	spec   *RewriteSpecification

	rules    []*compiledRule
	bySymbol map[*aterm.Symbol][]*compiledRule

	builder *SubstitutionBuilder
	cache   map[uint32]nfEntry

	steps        uint64
	applications uint64
}

type nfEntry struct {
	key aterm.Term
	nf  aterm.Term
}

// NewInnermost compiles the specification for innermost rewriting.  The
// rewriter is bound to thread and, like it, owned by a single goroutine.
func NewInnermost(thread *aterm.Thread, spec *RewriteSpecification, opts ...RewriterOption) (*InnermostRewriter, error) {
	cfg := rewriterConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	rules, err := compileRules(thread, spec)
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[*aterm.Symbol][]*compiledRule)
	for _, r := range rules {
		head := r.rule.Lhs.Symbol()
		bySymbol[head] = append(bySymbol[head], r)
	}

	cfg.logger.Debug("compiled innermost rewriter",
		zap.Int("rules", len(rules)),
		zap.Int("head_symbols", len(bySymbol)))

	return &InnermostRewriter{
		thread:   thread,
		spec:     spec,
		rules:    rules,
		bySymbol: bySymbol,
		builder:  NewSubstitutionBuilder(thread),
		cache:    make(map[uint32]nfEntry),
	}, nil
}

// Rewrite returns the normal form of t as an owning handle.  The input must
// stay alive for the duration of the call.
func (r *InnermostRewriter) Rewrite(t aterm.TermRef) aterm.Term {
	var result aterm.Term
	r.thread.Guarded(func() {
		result = r.rewrite(t)
	})
	return result
}

// Steps returns the number of rule applications performed so far.
func (r *InnermostRewriter) Steps() uint64 { return r.applications }

// Close releases the memo table, the compiled rules and the scratch buffer.
func (r *InnermostRewriter) Close() {
	for _, e := range r.cache {
		e.key.Drop()
		e.nf.Drop()
	}
	r.cache = nil
	for _, rule := range r.rules {
		rule.close()
	}
	r.builder.Close()
}

func (r *InnermostRewriter) rewrite(t aterm.TermRef) aterm.Term {
	r.steps++

	if e, ok := r.cache[t.Index()]; ok && e.key.Ref().Equal(t) {
		return r.thread.Protect(e.nf.Ref())
	}

	// First bring all arguments into normal form.
	cur := r.normalizeArguments(t)

	// Then attempt the rules at the root, in declaration order.  A successful
	// application already yields a normal form: tryApply rewrites the
	// instantiated right-hand side recursively.
	for _, rule := range r.bySymbol[cur.Symbol()] {
		next, ok := r.tryApply(rule, cur.Ref())
		if !ok {
			continue
		}
		cur.Drop()
		cur = next
		break
	}

	r.memoize(t, cur.Ref())
	return cur
}

// normalizeArguments rewrites every argument of t and reassembles the term,
// reusing t itself when no argument changed.
func (r *InnermostRewriter) normalizeArguments(t aterm.TermRef) aterm.Term {
	if t.IsInt() || t.Arity() == 0 {
		return r.thread.Protect(t)
	}

	args := make([]aterm.Term, t.Arity())
	changed := false
	for i := 0; i < t.Arity(); i++ {
		args[i] = r.rewrite(t.Arg(i))
		if !args[i].Ref().Equal(t.Arg(i)) {
			changed = true
		}
	}

	if !changed {
		for _, a := range args {
			a.Drop()
		}
		return r.thread.Protect(t)
	}

	var result aterm.Term
	var err error
	r.builder.buf.Write(r.thread, func(s *aterm.TermSlice) {
		base := s.Len()
		for _, a := range args {
			s.Protect(a.Ref())
		}
		result, err = r.thread.CreateTerm(t.Symbol(), s.Refs()[base:]...)
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

// tryApply matches rule at the root of t; on a match it checks the
// conditions and builds the instantiated right-hand side, rewritten to
// normal form.
func (r *InnermostRewriter) tryApply(rule *compiledRule, t aterm.TermRef) (aterm.Term, bool) {
	env := make(binding, len(rule.varPositions))
	if !r.match(rule.rule.Lhs.Ref(), t, env) {
		return aterm.Term{}, false
	}
	if !checkConditions(rule.conditions, r.builder, r.thread, env, r.rewrite) {
		return aterm.Term{}, false
	}

	r.applications++
	rhs := rule.rhs.Build(r.builder, r.thread, env)
	result := r.rewrite(rhs.Ref())
	rhs.Drop()
	return result, true
}

// match walks pattern and t in lockstep, binding variables to subterms.  A
// variable seen twice must bind equal subterms (compared by index).
func (r *InnermostRewriter) match(pattern, t aterm.TermRef, env binding) bool {
	if r.spec.IsVariable(pattern) {
		name := pattern.Symbol().Name()
		if bound, ok := env[name]; ok {
			return bound.Equal(t)
		}
		env[name] = t
		return true
	}
	if t.IsInt() || pattern.IsInt() {
		return pattern.IsInt() && t.IsInt() && pattern.IntValue() == t.IntValue()
	}
	if pattern.Symbol() != t.Symbol() {
		return false
	}
	for i := 0; i < pattern.Arity(); i++ {
		if !r.match(pattern.Arg(i), t.Arg(i), env) {
			return false
		}
	}
	return true
}

// memoize records nf as the normal form of the term t, rooting both so the
// indices stay valid.
func (r *InnermostRewriter) memoize(t aterm.TermRef, nf aterm.TermRef) {
	if _, ok := r.cache[t.Index()]; ok {
		return
	}
	r.cache[t.Index()] = nfEntry{
		key: r.thread.Protect(t),
		nf:  r.thread.Protect(nf),
	}
}
