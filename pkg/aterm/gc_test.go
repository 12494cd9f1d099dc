package aterm

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestCollectKeepsProtectedTerms(t *testing.T) {
	th := newTestThread(t)

	term := th.MustParse("f(g(a), h(b, 7))")
	index := term.Index()

	th.Pool().Collect()

	// The protected term and all its subterms survive: recreating the same
	// structure must find the identical node.
	again := th.MustParse("f(g(a), h(b, 7))")
	if again.Index() != index {
		t.Fatalf("protected term moved: index %d became %d", index, again.Index())
	}
	if got := term.String(); got != "f(g(a), h(b, 7))" {
		t.Fatalf("protected term corrupted after collection: %s", got)
	}
}

func TestCollectReclaimsUnreachableTerms(t *testing.T) {
	th := newTestThread(t)

	keep := th.MustParse("keep(a)")
	dead := th.MustParse("dead(b, c)")
	before := th.Pool().LiveTerms()
	dead.Drop()

	th.Pool().Collect()

	after := th.Pool().LiveTerms()
	// dead(b, c), b and c are unreachable; keep(a) and a survive.
	if after >= before {
		t.Fatalf("collection reclaimed nothing: %d -> %d live terms", before, after)
	}
	if keep.String() != "keep(a)" {
		t.Fatal("live term damaged by collection")
	}

	// Recreating the dead structure succeeds; its index may differ.
	revived := th.MustParse("dead(b, c)")
	if revived.String() != "dead(b, c)" {
		t.Fatal("recreation after collection failed")
	}
}

func TestCollectReclaimsIntTerms(t *testing.T) {
	th := newTestThread(t)

	n := th.CreateInt(99)
	n.Drop()
	th.Pool().Collect()

	if got := th.Pool().LiveTerms(); got != 0 {
		t.Fatalf("%d live terms after dropping the only root", got)
	}

	// The value can be interned again afterwards.
	if again := th.CreateInt(99); again.IntValue() != 99 {
		t.Fatal("re-interning after collection failed")
	}
}

func TestArenaBoundedUnderChurn(t *testing.T) {
	pool, err := NewPool(WithCollectThreshold(1024))
	if err != nil {
		t.Fatal(err)
	}
	th := pool.NewThread()
	defer th.Close()

	// Create many unique unprotected terms; the policy-triggered collections
	// must keep the arena near the live set, which is empty.
	for i := 0; i < 100_000; i++ {
		term := th.MustParse(fmt.Sprintf("n%d(a)", i))
		term.Drop()
	}
	pool.Collect()

	if live := pool.LiveTerms(); live > 1024 {
		t.Fatalf("%d live terms after churn with no roots", live)
	}
}

func TestProtectedContainerSurvivesCollection(t *testing.T) {
	th := newTestThread(t)

	container := NewProtected(th, &TermSlice{})
	defer container.Close()

	// Store a borrowed reference whose owning handle is dropped immediately:
	// only the container keeps it alive.
	term := th.MustParse("wrapped(x, y)")
	container.Write(th, func(s *TermSlice) {
		s.Protect(term.Ref())
	})
	term.Drop()

	th.Pool().Collect()

	container.Read(th, func(s *TermSlice) {
		if s.Len() != 1 {
			t.Fatalf("container holds %d refs, want 1", s.Len())
		}
		if got := s.At(0).String(); got != "wrapped(x, y)" {
			t.Fatalf("wrapped term damaged: %s", got)
		}
	})

	// Once cleared, the term becomes collectable.
	container.Write(th, func(s *TermSlice) { s.Clear() })
	th.Pool().Collect()
	if live := th.Pool().LiveTerms(); live != 0 {
		t.Fatalf("%d live terms after clearing the container", live)
	}
}

func TestGuardedKeepsUnprotectedRefsReadable(t *testing.T) {
	th := newTestThread(t)

	var borrowed TermRef
	th.Guarded(func() {
		// The owning handle is dropped, but the held guard excludes the
		// collector, so the borrow stays readable until the guard is released.
		term := th.MustParse("g(h(a))")
		borrowed = term.Ref()
		term.Drop()

		if got := borrowed.String(); got != "g(h(a))" {
			t.Fatalf("borrow unreadable under guard: %s", got)
		}
	})

	th.Pool().Collect()
	if live := th.Pool().LiveTerms(); live != 0 {
		t.Fatalf("%d live terms after releasing the guard and collecting", live)
	}
}

func TestConcurrentInterningSameIndex(t *testing.T) {
	pool, err := NewPool()
	if err != nil {
		t.Fatal(err)
	}

	const workers = 8
	indices := make([]uint32, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			th := pool.NewThread()
			defer th.Close()
			term, err := th.Parse("shared(f(a), g(b, c))")
			if err != nil {
				return err
			}
			indices[w] = term.Index()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for w := 1; w < workers; w++ {
		if indices[w] != indices[0] {
			t.Fatalf("worker %d interned index %d, worker 0 interned %d", w, indices[w], indices[0])
		}
	}
}
