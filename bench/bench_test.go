// Package bench provides reproducible micro-benchmarks for the term core.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// The benchmarks use a fixed signature and the Peano addition system so
// results stay comparable across versions.  We measure:
//  1. CreateTerm         – interning throughput, cold terms
//  2. CreateShared       – interning throughput, fully shared terms
//  3. CreateParallel     – concurrent interning across threads
//  4. RewriteInnermost   – the reference strategy
//  5. RewriteSabre       – the set-automaton strategy
//
// Unit tests live next to the packages; this file is only for performance.
package bench

import (
	"fmt"
	"testing"

	"github.com/mmgbartels/merc/internal/randterm"
	"github.com/mmgbartels/merc/pkg/aterm"
	"github.com/mmgbartels/merc/pkg/sabre"
)

var signature = []randterm.SymbolSpec{
	{Name: "a", Arity: 0},
	{Name: "b", Arity: 0},
	{Name: "c", Arity: 0},
	{Name: "f", Arity: 1},
	{Name: "g", Arity: 2},
	{Name: "h", Arity: 3},
}

func BenchmarkCreateTerm(b *testing.B) {
	pool := aterm.MustNewPool()
	th := pool.NewThread()
	defer th.Close()

	g := randterm.New(pool, 42, signature)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		term := g.Term(th, 8)
		term.Drop()
	}
}

func BenchmarkCreateShared(b *testing.B) {
	pool := aterm.MustNewPool()
	th := pool.NewThread()
	defer th.Close()

	// Every iteration re-interns the same term: the hash-cons hit path.
	keep := th.MustParse("g(f(a), h(a, b, c))")
	defer keep.Drop()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		term := th.MustParse("g(f(a), h(a, b, c))")
		term.Drop()
	}
}

func BenchmarkCreateParallel(b *testing.B) {
	pool := aterm.MustNewPool()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		th := pool.NewThread()
		defer th.Close()
		g := randterm.New(pool, 42, signature)
		for pb.Next() {
			term := g.Term(th, 6)
			term.Drop()
		}
	})
}

func peanoInput(th *aterm.Thread, n int) aterm.Term {
	numeral := "0"
	for i := 0; i < n; i++ {
		numeral = "s(" + numeral + ")"
	}
	return th.MustParse(fmt.Sprintf("plus(%s, %s)", numeral, numeral))
}

func peanoSpec(th *aterm.Thread) *sabre.RewriteSpecification {
	rules := []sabre.Rule{
		{Lhs: th.MustParse("plus(0, x)"), Rhs: th.MustParse("x")},
		{Lhs: th.MustParse("plus(s(x), y)"), Rhs: th.MustParse("s(plus(x, y))")},
	}
	return sabre.NewSpecification(rules, []string{"x", "y"})
}

func BenchmarkRewriteInnermost(b *testing.B) {
	pool := aterm.MustNewPool()
	th := pool.NewThread()
	defer th.Close()

	r, err := sabre.NewInnermost(th, peanoSpec(th))
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	input := peanoInput(th, 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nf := r.Rewrite(input.Ref())
		nf.Drop()
	}
}

func BenchmarkRewriteSabre(b *testing.B) {
	pool := aterm.MustNewPool()
	th := pool.NewThread()
	defer th.Close()

	r, err := sabre.NewSabre(th, peanoSpec(th), false)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	input := peanoInput(th, 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nf := r.Rewrite(input.Ref())
		nf.Drop()
	}
}
