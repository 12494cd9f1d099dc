package aterm

// parse.go reads the textual term syntax
//
//	t := f(t1, ..., tn) | c
//
// where identifiers consist of letters, digits, underscores and primes.  A
// digit-only identifier denotes a constant, not an integer term; integer
// terms are created through CreateInt.  The parser exists for tests, tools
// and persistence round-trips; specification-language parsing lives outside
// this repository.

import (
	"strings"

	"github.com/mmgbartels/merc/internal/errs"
)

// Parse reads a term from its textual form and returns an owning handle.
func (t *Thread) Parse(input string) (Term, error) {
	p := termParser{thread: t, input: input}
	term, err := p.parseTerm()
	if err != nil {
		return Term{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		term.Drop()
		return Term{}, errs.Newf(errs.InvalidArgument, "trailing input at offset %d in %q", p.pos, input)
	}
	return term, nil
}

type termParser struct {
	thread *Thread
	input  string
	pos    int
}

func (p *termParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '\'' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *termParser) ident() (string, error) {
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", errs.Newf(errs.InvalidArgument, "expected identifier at offset %d in %q", p.pos, p.input)
	}
	return p.input[start:p.pos], nil
}

func (p *termParser) parseTerm() (Term, error) {
	p.skipSpace()
	name, err := p.ident()
	if err != nil {
		return Term{}, err
	}

	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return p.thread.CreateTerm(p.thread.pool.Intern(name, 0))
	}
	p.pos++ // consume '('

	var args []Term
	dropAll := func() {
		for _, a := range args {
			a.Drop()
		}
	}

	for {
		arg, err := p.parseTerm()
		if err != nil {
			dropAll()
			return Term{}, err
		}
		args = append(args, arg)

		p.skipSpace()
		if p.pos >= len(p.input) {
			dropAll()
			return Term{}, errs.Newf(errs.InvalidArgument, "unterminated argument list in %q", p.input)
		}
		if p.input[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.input[p.pos] == ')' {
			p.pos++
			break
		}
		dropAll()
		return Term{}, errs.Newf(errs.InvalidArgument, "expected ',' or ')' at offset %d in %q", p.pos, p.input)
	}

	refs := make([]TermRef, len(args))
	for i, a := range args {
		refs[i] = a.Ref()
	}
	term, err := p.thread.CreateTerm(p.thread.pool.Intern(name, len(args)), refs...)
	dropAll()
	return term, err
}

// MustParse is Parse for test fixtures and static inputs.
func (t *Thread) MustParse(input string) Term {
	term, err := t.Parse(input)
	if err != nil {
		panic(err)
	}
	return term
}

// FormatList renders terms for diagnostics, comma separated.
func FormatList(terms []TermRef) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
