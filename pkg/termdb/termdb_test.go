package termdb

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mmgbartels/merc/pkg/aterm"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", InMemory())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

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

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	th := newTestThread(t)

	term := th.MustParse("f(g(a), 7, g(a))")
	if err := s.Put("result", term.Ref()); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get("result", th)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("stored term not found")
	}
	if got.Index() != term.Index() {
		t.Fatalf("loaded term = %s, want %s", got, term)
	}
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	th := newTestThread(t)

	_, found, err := s.Get("absent", th)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("absent name reported found")
	}
}

func TestGetOrComputeStores(t *testing.T) {
	s := newStore(t)
	th := newTestThread(t)

	var computations atomic.Int32
	compute := func() (aterm.Term, error) {
		computations.Add(1)
		return th.Parse("computed(a, b)")
	}

	first, err := s.GetOrCompute("nf", th, compute)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.GetOrCompute("nf", th, compute)
	if err != nil {
		t.Fatal(err)
	}

	if first.Index() != second.Index() {
		t.Fatal("repeated GetOrCompute yielded different terms")
	}
	if n := computations.Load(); n != 1 {
		t.Fatalf("compute ran %d times, want 1", n)
	}
}

func TestGetOrComputeConcurrent(t *testing.T) {
	s := newStore(t)
	pool, err := aterm.NewPool()
	if err != nil {
		t.Fatal(err)
	}

	var computations atomic.Int32
	var wg sync.WaitGroup
	results := make([]string, 8)

	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			th := pool.NewThread()
			defer th.Close()

			term, err := s.GetOrCompute("shared", th, func() (aterm.Term, error) {
				computations.Add(1)
				return th.Parse("slow(result)")
			})
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = term.String()
			term.Drop()
		}()
	}
	wg.Wait()

	for i, r := range results {
		if r != "slow(result)" {
			t.Fatalf("worker %d got %q", i, r)
		}
	}
	// Badger may admit a few independent computations when callers race
	// ahead of the first write, but singleflight collapses the stampede.
	if n := computations.Load(); n > 2 {
		t.Fatalf("compute ran %d times for one name", n)
	}
}
