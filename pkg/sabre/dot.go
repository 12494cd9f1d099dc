package sabre

// dot.go renders the set automaton in Graphviz dot form, for debugging rule
// systems and for the MERC_DUMP artefacts.

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// DotFormatter renders a SetAutomaton as a dot graph.
type DotFormatter struct {
	Automaton *SetAutomaton

	// ShowBackTransitions includes the back-links to the initial state,
	// which otherwise clutter the graph.
	ShowBackTransitions bool

	// ShowFinal draws an explicit sink for transitions without destinations.
	ShowFinal bool
}

// WriteTo writes the graph onto w.
func (d *DotFormatter) WriteTo(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph {\n")

	if d.ShowFinal {
		sb.WriteString("  final[label=\"nf\"];\n")
	}

	for i, s := range d.Automaton.states {
		goals := make([]string, 0, len(s.goals))
		for _, g := range s.goals {
			obs := make([]string, 0, len(g.obligations))
			for _, o := range g.obligations {
				obs = append(obs, fmt.Sprintf("%s@%s", o.pattern, o.position))
			}
			goals = append(goals, fmt.Sprintf("r%d: %s", g.rule.index, strings.Join(obs, ", ")))
		}
		fmt.Fprintf(&sb, "  s%d[shape=record label=\"{{s%d | %s} | %s}\"]\n",
			i, i, s.label, escapeDot(strings.Join(goals, "\\n")))
	}

	for i, s := range d.Automaton.states {
		symbols := make([]string, 0, len(s.trans))
		for sym := range s.trans {
			symbols = append(symbols, sym.Name())
		}
		sort.Strings(symbols)

		for _, name := range symbols {
			tr := transitionByName(s, name)
			announces := make([]string, 0, len(tr.announcements))
			for _, a := range tr.announcements {
				announces = append(announces, fmt.Sprintf("%s@%s", a.rule.rule.Rhs, a.position))
			}
			label := fmt.Sprintf("%s \\[%s\\]", name, strings.Join(announces, ", "))

			if len(tr.destinations) == 0 {
				if d.ShowFinal {
					fmt.Fprintf(&sb, "  s%d -> final [label=\"%s\"]\n", i, escapeDot(label))
				}
				continue
			}

			// An intermediate point node fans the hypertransition out.
			fmt.Fprintf(&sb, "  \"s%d%s\" [shape=point]\n", i, name)
			fmt.Fprintf(&sb, "  s%d -> \"s%d%s\" [label=\"%s\"]\n", i, i, name, escapeDot(label))
			for _, dest := range tr.destinations {
				if !d.ShowBackTransitions && dest.state == 0 {
					// Hide back-links to the initial state.
					continue
				}
				fmt.Fprintf(&sb, "  \"s%d%s\" -> s%d [label=\"%s\"]\n", i, name, dest.state, dest.position)
			}
		}
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func transitionByName(s *state, name string) *transition {
	for sym, tr := range s.trans {
		if sym.Name() == name {
			return tr
		}
	}
	return nil
}

func escapeDot(s string) string {
	return strings.NewReplacer("\"", "\\\"", "<", "&lt;", ">", "&gt;").Replace(s)
}
