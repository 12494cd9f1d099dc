package aterm

// thread.go implements the per-goroutine side of the pool: the protection set
// (a dense slot array plus a free-list of released slot numbers) and the
// recursive reader guard.  Because a Thread is owned by one goroutine, slot
// allocation and release touch no atomics; the only synchronisation on the
// hot path is the pool's reader-writer lock, and only at the outermost
// acquire and release.

import "github.com/mmgbartels/merc/internal/errs"

// Thread is a goroutine-local handle onto the pool.  All term creation and
// protection goes through a Thread; sharing one between goroutines is a
// contract violation.
type Thread struct {
	pool  *Pool
	depth int

	// slots maps protection slot numbers to term indices; free slots hold
	// invalidIndex and their numbers sit on the free-list.
	slots     []TermIndex
	freeSlots []int

	// containers are protected wrappers whose contents the collector marks.
	containers map[Markable]struct{}

	closed bool
}

// Pool returns the pool this thread belongs to.
func (t *Thread) Pool() *Pool { return t.pool }

// Close releases every protection slot and unregisters the thread.  The
// thread must not be used afterwards and must not hold a guard.
func (t *Thread) Close() {
	if t.closed {
		return
	}
	if t.depth != 0 {
		panic("aterm: thread closed while holding a reader guard")
	}
	t.closed = true

	occupied := 0
	for _, idx := range t.slots {
		if idx.defined() {
			occupied++
		}
	}
	t.pool.metrics.addSlots(-occupied)

	t.pool.threadsMu.Lock()
	delete(t.pool.threads, t)
	t.pool.threadsMu.Unlock()

	t.slots = nil
	t.freeSlots = nil
	t.containers = nil
}

// enter acquires the recursive reader guard; only the outermost call touches
// the pool lock.
func (t *Thread) enter() {
	if t.depth == 0 {
		t.pool.gcMu.RLock()
	}
	t.depth++
}

// leave releases the guard; the outermost release runs a pending collection
// if one was requested while the guard was held.
func (t *Thread) leave() {
	t.depth--
	if t.depth == 0 {
		t.pool.gcMu.RUnlock()
		if t.pool.gcWanted.Load() {
			t.pool.Collect()
		}
	}
}

// Guarded runs f while holding the recursive reader guard, blocking the
// collector for the duration.  Long-running rewrites use this to hold the
// guard across many allocations.
func (t *Thread) Guarded(f func()) {
	t.enter()
	defer t.leave()
	f()
}

// protect stores idx in a fresh slot and returns the slot number.
func (t *Thread) protect(idx TermIndex) int {
	t.pool.metrics.addSlots(1)
	if n := len(t.freeSlots); n > 0 {
		slot := t.freeSlots[n-1]
		t.freeSlots = t.freeSlots[:n-1]
		t.slots[slot] = idx
		return slot
	}
	t.slots = append(t.slots, idx)
	return len(t.slots) - 1
}

// unprotect releases a slot; its stored index is no longer a root.
func (t *Thread) unprotect(slot int) {
	t.slots[slot] = invalidIndex
	t.freeSlots = append(t.freeSlots, slot)
	t.pool.metrics.addSlots(-1)
}

// Protect roots the referenced term and returns an owning handle.
func (t *Thread) Protect(ref TermRef) Term {
	if ref.pool != t.pool {
		panic("aterm: protecting a term from a foreign pool")
	}
	t.enter()
	defer t.leave()
	slot := t.protect(ref.index)
	return Term{ref: ref, thread: t, slot: slot}
}

// CreateConstant creates (or finds) the constant term for an arity-0 symbol.
func (t *Thread) CreateConstant(symbol *Symbol) (Term, error) {
	return t.CreateTerm(symbol)
}

// CreateString creates the constant term whose head symbol has the given
// name and arity 0.
func (t *Thread) CreateString(name string) Term {
	term, err := t.CreateTerm(t.pool.Intern(name, 0))
	if err != nil {
		// Unreachable: an arity-0 symbol with zero arguments cannot mismatch.
		panic(err)
	}
	return term
}

// CreateTerm creates (or finds) the application symbol(args...).  The number
// of arguments must equal the symbol's arity and every argument must belong
// to this pool.
func (t *Thread) CreateTerm(symbol *Symbol, args ...TermRef) (Term, error) {
	if symbol == nil {
		return Term{}, errs.New(errs.InvalidArgument, "nil symbol")
	}
	if symbol.Arity() != len(args) {
		return Term{}, errs.Newf(errs.InvalidArgument,
			"arity mismatch: symbol %s expects %d arguments, got %d", symbol.Name(), symbol.Arity(), len(args))
	}

	t.enter()
	defer t.leave()

	var idxBuf [8]TermIndex
	idxs := idxBuf[:0]
	for _, a := range args {
		if a.pool != t.pool {
			return Term{}, errs.New(errs.InvalidArgument, "argument term belongs to a foreign pool")
		}
		if !a.index.defined() {
			return Term{}, errs.New(errs.InvalidArgument, "undefined argument term")
		}
		idxs = append(idxs, a.index)
	}

	idx := t.pool.intern(symbol, idxs)
	slot := t.protect(idx)
	return Term{ref: TermRef{pool: t.pool, index: idx}, thread: t, slot: slot}, nil
}

// CreateInt creates (or finds) the integer term carrying value.
func (t *Thread) CreateInt(value uint64) Term {
	t.enter()
	defer t.leave()

	idx := t.pool.internInt(value)
	slot := t.protect(idx)
	return Term{ref: TermRef{pool: t.pool, index: idx}, thread: t, slot: slot}
}

// EmptyList returns the reserved empty-list term.
func (t *Thread) EmptyList() Term {
	term, err := t.CreateTerm(t.pool.emptySym)
	if err != nil {
		panic(err)
	}
	return term
}

// CreateList builds the cons-list holding items in order.
func (t *Thread) CreateList(items ...TermRef) (Term, error) {
	t.enter()
	defer t.leave()

	list := t.EmptyList()
	for i := len(items) - 1; i >= 0; i-- {
		next, err := t.CreateTerm(t.pool.consSym, items[i], list.Ref())
		list.Drop()
		if err != nil {
			return Term{}, err
		}
		list = next
	}
	return list, nil
}

// registerContainer adds a protected wrapper's contents to this thread's GC
// roots.
func (t *Thread) registerContainer(c Markable) {
	t.enter()
	defer t.leave()
	t.containers[c] = struct{}{}
}

// removeContainer drops a wrapper from the root set.
func (t *Thread) removeContainer(c Markable) {
	t.enter()
	defer t.leave()
	delete(t.containers, c)
}
