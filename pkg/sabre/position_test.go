package sabre

import (
	"testing"

	"github.com/mmgbartels/merc/pkg/aterm"
)

func newTestThread(t *testing.T) *aterm.Thread {
	t.Helper()
	pool, err := aterm.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	th := pool.NewThread()
	t.Cleanup(th.Close)
	return th
}

func TestGetDescends(t *testing.T) {
	th := newTestThread(t)
	term := th.MustParse("f(g(a, b), c)")

	cases := []struct {
		pos  Position
		want string
	}{
		{nil, "f(g(a, b), c)"},
		{Position{1}, "g(a, b)"},
		{Position{1, 2}, "b"},
		{Position{2}, "c"},
	}
	for _, c := range cases {
		if got := Get(term.Ref(), c.pos).String(); got != c.want {
			t.Fatalf("Get at %s = %s, want %s", c.pos, got, c.want)
		}
	}
}

func TestGetInvalidPositionPanics(t *testing.T) {
	th := newTestThread(t)
	term := th.MustParse("f(a)")

	if Valid(term.Ref(), Position{2}) {
		t.Fatal("position 2 reported valid in f(a)")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Get at a nonexistent position did not panic")
		}
	}()
	Get(term.Ref(), Position{2})
}

func TestSubstituteScenario(t *testing.T) {
	th := newTestThread(t)

	// Replace the a in s(s(a)) at position 1.1 with 0.
	term := th.MustParse("s(s(a))")
	zero := th.MustParse("0")

	result := Substitute(th, term.Ref(), zero.Ref(), Position{1, 1})
	if got := result.String(); got != "s(s(0))" {
		t.Fatalf("substitution result = %s, want s(s(0))", got)
	}
	if !Get(result.Ref(), Position{1, 1}).Equal(zero.Ref()) {
		t.Fatal("replaced position does not hold the replacement")
	}
}

func TestSubstituteRoundTrip(t *testing.T) {
	th := newTestThread(t)

	term := th.MustParse("f(g(a, h(b)), c)")
	repl := th.MustParse("k(d)")

	for _, pos := range []Position{{1}, {1, 2}, {1, 2, 1}, {2}} {
		result := Substitute(th, term.Ref(), repl.Ref(), pos)
		if !Get(result.Ref(), pos).Equal(repl.Ref()) {
			t.Fatalf("Get(Substitute(t, %s, r), %s) is not r", pos, pos)
		}
		result.Drop()
	}
}

func TestSubstituteAtRootIsReplacement(t *testing.T) {
	th := newTestThread(t)

	term := th.MustParse("f(a)")
	repl := th.MustParse("g(b)")
	result := Substitute(th, term.Ref(), repl.Ref(), nil)
	if result.Index() != repl.Index() {
		t.Fatal("substitution at the root must be the replacement itself")
	}
}

func TestSubstituteSharesSiblings(t *testing.T) {
	th := newTestThread(t)

	term := th.MustParse("f(big(x, y, z), a)")
	repl := th.MustParse("b")
	result := Substitute(th, term.Ref(), repl.Ref(), Position{2})

	// The untouched first argument is reused, not rebuilt.
	if result.Arg(0).Index() != term.Arg(0).Index() {
		t.Fatal("unchanged sibling was not shared")
	}
}

func TestDataPositionMapsToGeneral(t *testing.T) {
	th := newTestThread(t)
	term := th.MustParse("s(s(a))")

	dp := DataPosition{0, 0}
	if got := Get(term.Ref(), dp.Position()).String(); got != "a" {
		t.Fatalf("data position %s addressed %s, want a", dp, got)
	}
}
