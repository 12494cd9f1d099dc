package aterm

// gc.go implements the collection protocol.  The collector takes the write
// side of the pool lock, which waits until every thread has released all
// recursive reader guards.  It then marks every term reachable from any
// thread's protection slots and registered containers, sweeps both arenas,
// and removes dead nodes from the hash-cons tables so their slots can be
// reused.

import (
	"time"

	"go.uber.org/zap"
)

// Collect runs a full mark-and-sweep collection.  The caller must not hold a
// reader guard: collection waits for all guards to be released first.
// Collections are normally triggered by the allocation policy and run when
// the requesting thread drops its outermost guard; Collect is also safe to
// call directly, e.g. from tests.
func (p *Pool) Collect() {
	p.gcMu.Lock()
	defer p.gcMu.Unlock()

	start := time.Now()

	// Clear marks from the previous run.
	p.terms.Range(func(_ uint32, n *termNode) bool {
		n.marked = false
		return true
	})
	p.ints.Range(func(_ uint32, n *intNode) bool {
		n.marked = false
		return true
	})

	// Mark every term reachable from a protection slot or a protected
	// container, in any thread.
	p.threadsMu.Lock()
	for t := range p.threads {
		for _, idx := range t.slots {
			if idx.defined() {
				p.mark(idx)
			}
		}
		for c := range t.containers {
			c.MarkTerms(func(r TermRef) {
				if r.pool == p && r.index.defined() {
					p.mark(r.index)
				}
			})
		}
	}
	p.threadsMu.Unlock()

	// Sweep both arenas.
	reclaimed := 0
	p.terms.Range(func(slot uint32, n *termNode) bool {
		if n.live && !n.marked {
			p.removeFromTable(TermIndex(slot), n)
			n.live = false
			n.symbol = nil
			n.args = n.args[:0]
			p.terms.Free(slot)
			reclaimed++
		}
		return true
	})
	p.ints.Range(func(slot uint32, n *intNode) bool {
		if n.live && !n.marked {
			delete(p.intTable, n.value)
			n.live = false
			p.ints.Free(slot)
			reclaimed++
		}
		return true
	})

	live := p.terms.Len() + p.ints.Len()
	p.lastLive = live
	p.gcWanted.Store(false)

	p.metrics.observeCollection(reclaimed, live)
	p.logger.Debug("collected term pool",
		zap.Int("reclaimed", reclaimed),
		zap.Int("live", live),
		zap.Duration("elapsed", time.Since(start)))
}

// mark flags idx and, for applications, its arguments recursively.  Argument
// indices always refer to earlier-created terms, so the recursion is bounded
// by term depth.
func (p *Pool) mark(idx TermIndex) {
	if idx.isInt() {
		p.ints.Get(idx.slot()).marked = true
		return
	}
	n := p.terms.Get(idx.slot())
	if n.marked {
		return
	}
	n.marked = true
	for _, a := range n.args {
		p.mark(a)
	}
}

// removeFromTable unlinks a dead node from its hash-cons bucket.
func (p *Pool) removeFromTable(idx TermIndex, n *termNode) {
	h := hashNode(n.symbol, n.args)
	bucket := p.table[h]
	for i, cand := range bucket {
		if cand == idx {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(p.table, h)
	} else {
		p.table[h] = bucket
	}
}
