package sabre

// automaton.go compiles a rewrite specification into the set automaton that
// drives the Sabre strategy.  A state is a set of match goals — outstanding
// obligations (pattern, position) per rule — plus a distinguished label
// position chosen leftmost-outermost among the obligations.  For every head
// symbol that can appear at the label, the transition discharges matching
// obligations, announces rules whose obligations ran dry, and lists the
// destinations where matching continues: the successor state carrying the
// surviving goals, and back-links to the initial state at every argument
// position, which is where fresh redexes may root.
//
// Symbols outside the signature take a synthesized default transition: no
// announcements, the fallback successor for goals waiting at other positions,
// and the back-links.  With apma enabled, successor states are not shared
// between chains, yielding the trie-shaped adaptive automaton.

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// matchObligation is the outstanding duty to match pattern at position,
// relative to the state's root.
type matchObligation struct {
	pattern  aterm.TermRef
	position Position
}

// matchGoal tracks one rule's remaining obligations.  A goal whose
// obligations run dry announces its rule at the state root.
type matchGoal struct {
	rule        *compiledRule
	obligations []matchObligation
}

// announcement reports that a rule's left-hand side matched, rooted at
// position relative to the configuration that entered the state chain.
type announcement struct {
	rule     *compiledRule
	position Position
}

// destination tells the driver where to continue: push a configuration for
// state at the given position relative to the current configuration.
type destination struct {
	position Position
	state    int
}

// transition is the automaton's reaction to one head symbol at the label.
type transition struct {
	symbol        *aterm.Symbol
	announcements []announcement
	destinations  []destination
}

type state struct {
	label Position
	goals []matchGoal
	trans map[*aterm.Symbol]*transition

	// fallback is the successor carrying the goals that are not obliged at
	// the label, entered when a symbol outside the signature is consumed.
	// -1 when every goal is obliged at the label.
	fallback int
}

// SetAutomaton is the compiled matching automaton.  It is immutable after
// construction and may be shared by rewriters on the same specification.
type SetAutomaton struct {
	spec   *RewriteSpecification
	states []*state
	apma   bool
}

// StateCount returns the number of automaton states.
func (a *SetAutomaton) StateCount() int { return len(a.states) }

// newSetAutomaton builds the automaton for the compiled rules.
func newSetAutomaton(spec *RewriteSpecification, rules []*compiledRule, apma bool, logger *zap.Logger) *SetAutomaton {
	a := &SetAutomaton{spec: spec, apma: apma}

	// The signature: every non-variable head symbol occurring in a pattern.
	signature := make(map[*aterm.Symbol]struct{})
	for _, r := range rules {
		collectHeads(spec, r.rule.Lhs.Ref(), signature)
	}

	// Initial state: one goal per rule, obliged to match its whole left-hand
	// side at the root.
	initial := make([]matchGoal, 0, len(rules))
	for _, r := range rules {
		initial = append(initial, matchGoal{
			rule:        r,
			obligations: []matchObligation{{pattern: r.rule.Lhs.Ref(), position: nil}},
		})
	}

	keys := make(map[string]int)
	a.internState(initial, keys)

	// Worklist construction; states append as successors are discovered.
	for si := 0; si < len(a.states); si++ {
		s := a.states[si]
		for sym := range signature {
			if tr := a.deriveTransition(s, sym, keys); tr != nil {
				s.trans[sym] = tr
			}
		}

		// Goals not obliged at the label outlive a non-signature symbol.
		var waiting []matchGoal
		for _, g := range s.goals {
			if obligationAt(g, s.label) < 0 {
				waiting = append(waiting, g)
			}
		}
		s.fallback = -1
		if len(waiting) > 0 {
			s.fallback = a.internState(waiting, keys)
		}
	}

	logger.Debug("built set automaton",
		zap.Int("states", len(a.states)),
		zap.Int("rules", len(rules)),
		zap.Bool("apma", apma))
	return a
}

func collectHeads(spec *RewriteSpecification, t aterm.TermRef, heads map[*aterm.Symbol]struct{}) {
	if spec.IsVariable(t) || t.IsInt() {
		return
	}
	heads[t.Symbol()] = struct{}{}
	for i := 0; i < t.Arity(); i++ {
		collectHeads(spec, t.Arg(i), heads)
	}
}

// internState returns the index of an existing state with the same goal set,
// or appends a new one.  With apma, states are never shared.
func (a *SetAutomaton) internState(goals []matchGoal, keys map[string]int) int {
	if a.apma {
		return a.appendState(goals)
	}
	key := goalSetKey(goals)
	if idx, ok := keys[key]; ok {
		return idx
	}
	idx := a.appendState(goals)
	keys[key] = idx
	return idx
}

func (a *SetAutomaton) appendState(goals []matchGoal) int {
	a.states = append(a.states, &state{
		label: chooseLabel(goals),
		goals: goals,
		trans: make(map[*aterm.Symbol]*transition),
	})
	return len(a.states) - 1
}

// goalSetKey canonicalises a goal set up to obligation order.
func goalSetKey(goals []matchGoal) string {
	parts := make([]string, 0, len(goals))
	for _, g := range goals {
		obs := make([]string, 0, len(g.obligations))
		for _, o := range g.obligations {
			obs = append(obs, fmt.Sprintf("%d@%s", o.pattern.Index(), o.position))
		}
		sort.Strings(obs)
		parts = append(parts, fmt.Sprintf("r%d:%s", g.rule.index, strings.Join(obs, ",")))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// chooseLabel picks the next position to inspect: the leftmost outermost
// unresolved obligation across all goals.
func chooseLabel(goals []matchGoal) Position {
	var label Position
	first := true
	for _, g := range goals {
		for _, o := range g.obligations {
			if first || o.position.compare(label) < 0 {
				label = o.position
				first = false
			}
		}
	}
	return label
}

// deriveTransition computes the reaction of s to head symbol sym at the
// label.  Returns nil when the transition is indistinguishable from the
// synthesized default (no announcements, no surviving goals).
func (a *SetAutomaton) deriveTransition(s *state, sym *aterm.Symbol, keys map[string]int) *transition {
	var announcements []announcement
	var survivors []matchGoal

	for _, g := range s.goals {
		obIdx := obligationAt(g, s.label)
		if obIdx < 0 {
			// The goal waits at another position; it rides along unchanged.
			survivors = append(survivors, g)
			continue
		}

		ob := g.obligations[obIdx]
		if ob.pattern.Symbol() != sym {
			// Head mismatch kills the goal on this branch.
			continue
		}

		// Discharge the obligation; the pattern's non-variable arguments
		// become new obligations one level deeper.
		next := make([]matchObligation, 0, len(g.obligations)-1+ob.pattern.Arity())
		next = append(next, g.obligations[:obIdx]...)
		next = append(next, g.obligations[obIdx+1:]...)
		for i := 0; i < ob.pattern.Arity(); i++ {
			arg := ob.pattern.Arg(i)
			if a.spec.IsVariable(arg) {
				continue
			}
			next = append(next, matchObligation{pattern: arg, position: ob.position.Child(uint32(i + 1))})
		}

		if len(next) == 0 {
			announcements = append(announcements, announcement{rule: g.rule, position: nil})
		} else {
			survivors = append(survivors, matchGoal{rule: g.rule, obligations: next})
		}
	}

	if len(announcements) == 0 && len(survivors) == 0 {
		return nil
	}

	tr := &transition{symbol: sym, announcements: announcements}
	if len(survivors) > 0 {
		succ := a.internState(survivors, keys)
		tr.destinations = append(tr.destinations, destination{position: nil, state: succ})
	}
	tr.destinations = append(tr.destinations, backLinks(s.label, sym.Arity())...)
	return tr
}

// obligationAt finds the goal's obligation at the label, or -1.
func obligationAt(g matchGoal, label Position) int {
	for i, o := range g.obligations {
		if o.position.Equal(label) {
			return i
		}
	}
	return -1
}

// backLinks returns the destinations that restart matching at every argument
// of the consumed symbol: any argument may root a fresh redex.
func backLinks(label Position, arity int) []destination {
	links := make([]destination, 0, arity)
	for i := 1; i <= arity; i++ {
		links = append(links, destination{position: label.Child(uint32(i)), state: 0})
	}
	return links
}

// react resolves the automaton's response in stateIdx to a subterm headed by
// sym with the given arity.  Symbols without a recorded transition take the
// synthesized default: no announcements, the fallback successor for goals
// waiting elsewhere, and back-links into the consumed symbol's arguments.
func (a *SetAutomaton) react(stateIdx int, sym *aterm.Symbol, arity int) ([]announcement, []destination) {
	s := a.states[stateIdx]
	if tr, ok := s.trans[sym]; ok {
		return tr.announcements, tr.destinations
	}
	var dests []destination
	if s.fallback >= 0 {
		dests = append(dests, destination{position: nil, state: s.fallback})
	}
	if arity > 0 {
		dests = append(dests, backLinks(s.label, arity)...)
	}
	return nil, dests
}
