package sabre

// sabre.go implements the set-automaton rewrite strategy.  A configuration
// stack tracks (state, position) pairs; each entry inspects the subterm at
// its position plus the state's label and follows the transition for that
// subterm's head symbol.  Announcements attempt rule application at the
// configuration's position; on success the subterm is replaced and matching
// restarts from the root.  When the stack runs dry, no rule matches anywhere
// and the term is in normal form.

import (
	"go.uber.org/zap"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// Rewriter reduces terms to normal form.  Implementations are bound to a
// thread and owned by a single goroutine.
type Rewriter interface {
	// Rewrite returns the normal form of t as an owning handle.  Rewriting
	// cannot fail: a term without redexes is returned unchanged.
	Rewrite(t aterm.TermRef) aterm.Term

	// Steps returns the number of rule applications performed so far.
	Steps() uint64

	// Close releases the pool roots held by the rewriter.
	Close()
}

// RewriterOption configures rewriter construction.
type RewriterOption func(*rewriterConfig)

type rewriterConfig struct {
	logger *zap.Logger
}

// WithRewriterLogger plugs a zap.Logger for build-time diagnostics.  The
// rewrite hot path never logs.
func WithRewriterLogger(l *zap.Logger) RewriterOption {
	return func(c *rewriterConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// SabreRewriter rewrites with the set-automaton strategy.
type SabreRewriter struct {
	thread    *aterm.Thread
	spec      *RewriteSpecification
	rules     []*compiledRule
	automaton *SetAutomaton
	builder   *SubstitutionBuilder

	applications uint64
}

type configuration struct {
	state    int
	position Position
}

// NewSabre compiles the specification into a set automaton.  With apma the
// automaton is built in adaptive pattern-matching (trie) mode, in which
// successor states are not shared, so it has at least as many states.
func NewSabre(thread *aterm.Thread, spec *RewriteSpecification, apma bool, opts ...RewriterOption) (*SabreRewriter, error) {
	cfg := rewriterConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	rules, err := compileRules(thread, spec)
	if err != nil {
		return nil, err
	}

	return &SabreRewriter{
		thread:    thread,
		spec:      spec,
		rules:     rules,
		automaton: newSetAutomaton(spec, rules, apma, cfg.logger),
		builder:   NewSubstitutionBuilder(thread),
	}, nil
}

// Automaton exposes the compiled automaton, e.g. for dot output.
func (r *SabreRewriter) Automaton() *SetAutomaton { return r.automaton }

// Steps returns the number of rule applications performed so far.
func (r *SabreRewriter) Steps() uint64 { return r.applications }

// Close releases the compiled rules and the scratch buffer.
func (r *SabreRewriter) Close() {
	for _, rule := range r.rules {
		rule.close()
	}
	r.builder.Close()
}

// Rewrite returns the normal form of t.  The input must stay alive for the
// duration of the call.
func (r *SabreRewriter) Rewrite(t aterm.TermRef) aterm.Term {
	var result aterm.Term
	r.thread.Guarded(func() {
		result = r.rewrite(t)
	})
	return result
}

func (r *SabreRewriter) rewrite(t aterm.TermRef) aterm.Term {
	cur := r.thread.Protect(t)

	// The stack is local so that condition checking may recurse into this
	// rewriter without clobbering the outer traversal.
	var stack []configuration

restart:
	for {
		stack = append(stack[:0], configuration{state: 0})

		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			sub := Get(cur.Ref(), c.position.Concat(r.automaton.states[c.state].label))
			announcements, destinations := r.automaton.react(c.state, sub.Symbol(), sub.Arity())

			for _, ann := range announcements {
				applyAt := c.position.Concat(ann.position)
				replacement, ok := r.tryRewrite(ann.rule, cur.Ref(), applyAt)
				if !ok {
					continue
				}
				next := SubstituteWith(r.builder, r.thread, cur.Ref(), replacement.Ref(), applyAt)
				replacement.Drop()
				cur.Drop()
				cur = next
				continue restart
			}

			for _, d := range destinations {
				stack = append(stack, configuration{state: d.state, position: c.position.Concat(d.position)})
			}
		}

		return cur
	}
}

// tryRewrite attempts the announced rule at pos: the automaton already
// verified the non-variable structure, so only the non-linearity check and
// the conditions remain before the right-hand side is instantiated.
func (r *SabreRewriter) tryRewrite(rule *compiledRule, root aterm.TermRef, pos Position) (aterm.Term, bool) {
	redex := Get(root, pos)
	env, ok := rule.bindingAt(redex)
	if !ok {
		return aterm.Term{}, false
	}
	if !checkConditions(rule.conditions, r.builder, r.thread, env, r.rewrite) {
		return aterm.Term{}, false
	}

	r.applications++
	return rule.rhs.Build(r.builder, r.thread, env), true
}
