// Package randterm generates random terms over a fixed signature, for
// benchmark datasets and randomised tests.  The MERC_SEED environment
// variable pins the seed so a failing run can be replayed; without it each
// run gets a fresh seed, which the caller should log.
package randterm

import (
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// EnvVar names the seed override.
const EnvVar = "MERC_SEED"

// Seed returns the seed to use: MERC_SEED when set, the current time
// otherwise.
func Seed() uint64 {
	if v, ok := os.LookupEnv(EnvVar); ok {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return seed
		}
	}
	return uint64(time.Now().UnixNano())
}

// SymbolSpec declares one signature symbol available to the generator.
type SymbolSpec struct {
	Name  string
	Arity int
}

// Generator produces random terms over a signature.
type Generator struct {
	rng       *rand.Rand
	symbols   []*aterm.Symbol
	constants []*aterm.Symbol
}

// New builds a generator over the given signature.  The signature must
// contain at least one constant so that every branch can bottom out.
func New(pool *aterm.Pool, seed uint64, signature []SymbolSpec) *Generator {
	g := &Generator{rng: rand.New(rand.NewSource(int64(seed)))}
	for _, s := range signature {
		sym := pool.Intern(s.Name, s.Arity)
		g.symbols = append(g.symbols, sym)
		if s.Arity == 0 {
			g.constants = append(g.constants, sym)
		}
	}
	if len(g.constants) == 0 {
		panic("randterm: signature needs at least one constant")
	}
	return g
}

// Term generates a term of at most maxDepth levels.
func (g *Generator) Term(th *aterm.Thread, maxDepth int) aterm.Term {
	if maxDepth <= 1 {
		term, err := th.CreateTerm(g.constants[g.rng.Intn(len(g.constants))])
		if err != nil {
			panic(err)
		}
		return term
	}

	sym := g.symbols[g.rng.Intn(len(g.symbols))]
	if sym.Arity() == 0 {
		term, err := th.CreateTerm(sym)
		if err != nil {
			panic(err)
		}
		return term
	}

	args := make([]aterm.Term, sym.Arity())
	refs := make([]aterm.TermRef, sym.Arity())
	for i := range args {
		args[i] = g.Term(th, maxDepth-1)
		refs[i] = args[i].Ref()
	}
	term, err := th.CreateTerm(sym, refs...)
	for _, a := range args {
		a.Drop()
	}
	if err != nil {
		panic(err)
	}
	return term
}
