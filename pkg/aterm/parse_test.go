package aterm

import (
	"testing"

	"github.com/mmgbartels/merc/internal/errs"
)

func TestParseRejectsMalformedInput(t *testing.T) {
	th := newTestThread(t)

	cases := []string{
		"",
		"f(",
		"f(a,",
		"f(a))",
		"f(a b)",
		"(a)",
	}
	for _, input := range cases {
		if _, err := th.Parse(input); !errs.IsKind(err, errs.InvalidArgument) {
			t.Fatalf("Parse(%q) error = %v, want InvalidArgument", input, err)
		}
	}
}

func TestDigitIdentifierIsConstant(t *testing.T) {
	th := newTestThread(t)

	// A digit-only identifier denotes a constant symbol, not an integer
	// term: "0" in Peano specifications is a constructor.
	term := th.MustParse("succ(41)")
	arg := term.Arg(0)
	if arg.IsInt() {
		t.Fatal("digit identifier parsed as an integer term")
	}
	if arg.Symbol().Name() != "41" || arg.Arity() != 0 {
		t.Fatalf("argument = %s/%d, want constant 41", arg.Symbol().Name(), arg.Arity())
	}
	if th.MustParse("41").Index() == th.CreateInt(41).Index() {
		t.Fatal("constant 41 and integer term 41 must be distinct")
	}
}

func TestParseNestedSharing(t *testing.T) {
	th := newTestThread(t)

	term := th.MustParse("f(g(a), g(a))")
	if term.Arg(0).Index() != term.Arg(1).Index() {
		t.Fatal("identical subterms not shared")
	}
}
