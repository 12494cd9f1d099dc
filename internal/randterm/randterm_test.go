package randterm

import (
	"testing"

	"github.com/mmgbartels/merc/pkg/aterm"
)

var signature = []SymbolSpec{
	{Name: "a", Arity: 0},
	{Name: "b", Arity: 0},
	{Name: "f", Arity: 1},
	{Name: "g", Arity: 2},
}

func TestSeedEnvOverride(t *testing.T) {
	t.Setenv(EnvVar, "12345")
	if got := Seed(); got != 12345 {
		t.Fatalf("Seed() = %d, want 12345", got)
	}
}

func TestDeterministicForSeed(t *testing.T) {
	pool, err := aterm.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	th := pool.NewThread()
	defer th.Close()

	g1 := New(pool, 7, signature)
	g2 := New(pool, 7, signature)
	for i := 0; i < 50; i++ {
		t1 := g1.Term(th, 6)
		t2 := g2.Term(th, 6)
		if t1.Index() != t2.Index() {
			t.Fatalf("iteration %d: same seed produced %s and %s", i, t1, t2)
		}
		t1.Drop()
		t2.Drop()
	}
}

func TestDepthBounded(t *testing.T) {
	pool, err := aterm.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	th := pool.NewThread()
	defer th.Close()

	g := New(pool, Seed(), signature)
	for i := 0; i < 100; i++ {
		term := g.Term(th, 4)
		if d := depth(term.Ref()); d > 4 {
			t.Fatalf("generated term of depth %d, max 4: %s", d, term)
		}
		term.Drop()
	}
}

func depth(t aterm.TermRef) int {
	max := 0
	for i := 0; i < t.Arity(); i++ {
		if d := depth(t.Arg(i)); d > max {
			max = d
		}
	}
	return max + 1
}
