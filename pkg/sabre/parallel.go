package sabre

// parallel.go rewrites a batch of terms on worker goroutines.  Each worker
// owns its own thread handle and rewriter; the pool's reader-writer lock is
// the only cross-worker coordination, exactly as for any other mix of
// threads.  Results are re-protected on the caller's thread before the
// worker threads close.

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mmgbartels/merc/pkg/aterm"
)

// RewriteAll reduces every input term to normal form using the set-automaton
// strategy, spreading the work over the given number of workers (0 selects
// GOMAXPROCS).  The returned handles are owned by the caller's thread, in
// input order.  Cancellation is honoured between terms; an individual
// rewrite is not preemptible.
func RewriteAll(ctx context.Context, caller *aterm.Thread, spec *RewriteSpecification,
	terms []aterm.Term, workers int, apma bool) ([]aterm.Term, error) {

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(terms) {
		workers = len(terms)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	pool := caller.Pool()
	results := make([]aterm.Term, len(terms))
	workerThreads := make([]*aterm.Thread, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		thread := pool.NewThread()
		workerThreads[w] = thread

		g.Go(func() error {
			rewriter, err := NewSabre(thread, spec, apma)
			if err != nil {
				return err
			}
			defer rewriter.Close()

			// Workers stride over the inputs.
			for i := w; i < len(terms); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = rewriter.Rewrite(terms[i].Ref())
			}
			return nil
		})
	}

	err := g.Wait()

	// Transfer ownership to the caller before the worker threads (and with
	// them the protection of the results) go away.
	for i, res := range results {
		if !res.Defined() {
			continue
		}
		if err == nil {
			results[i] = caller.Protect(res.Ref())
		} else {
			results[i] = aterm.Term{}
		}
	}
	for _, t := range workerThreads {
		t.Close()
	}

	if err != nil {
		return nil, err
	}
	return results, nil
}
