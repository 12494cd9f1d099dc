// Package aterm implements a maximally shared first-order term store:
// hash-consed terms with stable addresses and canonical indices, per-thread
// protection sets that act as garbage-collection roots, and a global pool
// whose recursive reader guard lets many goroutines create and inspect terms
// while excluding the collector.
//
// A term is one of three variants, told apart by its head symbol:
//
//	t := c | f(t1, ..., tn) | <int>
//
// where f is an interned function symbol of arity n, a constant c is the
// arity-0 case, and <int> carries a non-negative integer annotation.  Terms
// are immutable and stored exactly once: creating a structurally equal term
// returns the existing index.
//
// All term creation and inspection goes through a Thread obtained from
// Pool.NewThread.  A Thread is owned by a single goroutine; its protection
// set needs no atomic operations on the hot path, and cross-thread
// coordination is confined to the pool's reader-writer lock.
package aterm

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mmgbartels/merc/internal/blocks"
)

// Pool owns the symbol pool, the term arenas and the hash-cons tables, and
// orchestrates garbage collection over them.
type Pool struct {
	cfg     config
	logger  *zap.Logger
	metrics metricsSink

	// gcMu is the collection lock.  Mutating threads hold the read side
	// (recursively, via their Thread); the collector holds the write side.
	gcMu sync.RWMutex

	// storeMu serialises hash-cons lookups and arena allocation between
	// concurrent readers of gcMu.
	storeMu  sync.Mutex
	terms    *blocks.Store[termNode]
	ints     *blocks.Store[intNode]
	table    map[uint64][]TermIndex
	intTable map[uint64]TermIndex
	lastLive int

	symbols  *symbolPool
	intSym   *Symbol
	emptySym *Symbol
	consSym  *Symbol

	threadsMu sync.Mutex
	threads   map[*Thread]struct{}

	gcWanted atomic.Bool
}

// NewPool constructs a pool with the reserved symbols pre-interned.
func NewPool(opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:      cfg,
		logger:   cfg.logger,
		metrics:  newMetricsSink(cfg.registry),
		terms:    blocks.New[termNode](cfg.segmentSize),
		ints:     blocks.New[intNode](cfg.segmentSize),
		table:    make(map[uint64][]TermIndex, 1024),
		intTable: make(map[uint64]TermIndex, 256),
		symbols:  newSymbolPool(),
		threads:  make(map[*Thread]struct{}),
	}
	p.intSym = p.symbols.intern(intSymbolName, 0)
	p.emptySym = p.symbols.intern(emptyListSymbolName, 0)
	p.consSym = p.symbols.intern(consSymbolName, 2)
	return p, nil
}

// MustNewPool is NewPool for callers with static options.
func MustNewPool(opts ...Option) *Pool {
	p, err := NewPool(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// LiveTerms returns the number of nodes currently held by the arenas.
func (p *Pool) LiveTerms() int {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()
	return p.terms.Len() + p.ints.Len()
}

// NewThread registers a fresh thread handle with its own protection set.
// The handle must be used by a single goroutine and closed when done.
func (p *Pool) NewThread() *Thread {
	t := &Thread{
		pool:       p,
		containers: make(map[Markable]struct{}),
	}
	p.threadsMu.Lock()
	p.threads[t] = struct{}{}
	p.threadsMu.Unlock()
	return t
}

// intern stores (symbol, args) and returns its canonical index, reusing an
// existing node when the contents already exist.  Callers hold the reader
// guard; storeMu serialises the table against other readers.
func (p *Pool) intern(symbol *Symbol, args []TermIndex) TermIndex {
	h := hashNode(symbol, args)

	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	for _, idx := range p.table[h] {
		node := p.terms.Get(idx.slot())
		if node.symbol == symbol && sameArgs(node.args, args) {
			return idx
		}
	}

	slot, node := p.terms.Alloc()
	node.symbol = symbol
	node.args = append(node.args[:0], args...)
	node.live = true
	node.marked = false

	idx := TermIndex(slot)
	p.table[h] = append(p.table[h], idx)
	p.checkCollectLocked()
	return idx
}

// internInt stores an integer term, hash-consed by value.
func (p *Pool) internInt(value uint64) TermIndex {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	if idx, ok := p.intTable[value]; ok {
		return idx
	}

	slot, node := p.ints.Alloc()
	node.value = value
	node.live = true
	node.marked = false

	idx := TermIndex(slot) | intTag
	p.intTable[value] = idx
	p.checkCollectLocked()
	return idx
}

// checkCollectLocked requests a collection once the arenas outgrow the
// policy threshold.  The request is honoured when the next thread drops its
// outermost reader guard; running the collector inline would deadlock on the
// guard the allocating thread already holds.
func (p *Pool) checkCollectLocked() {
	live := p.terms.Len() + p.ints.Len()
	threshold := int(float64(p.lastLive) * p.cfg.growthFactor)
	if threshold < p.cfg.collectThreshold {
		threshold = p.cfg.collectThreshold
	}
	if live > threshold {
		p.gcWanted.Store(true)
	}
}

// Node accessors.  Nodes are immutable while live, so these are safe for any
// goroutine that holds a reader guard (or otherwise keeps the term alive).

func (p *Pool) symbolAt(idx TermIndex) *Symbol {
	if idx.isInt() {
		return p.intSym
	}
	return p.terms.Get(idx.slot()).symbol
}

func (p *Pool) arityAt(idx TermIndex) int {
	if idx.isInt() {
		return 0
	}
	return len(p.terms.Get(idx.slot()).args)
}

func (p *Pool) argAt(idx TermIndex, i int) TermIndex {
	return p.terms.Get(idx.slot()).args[i]
}

func (p *Pool) intValueAt(idx TermIndex) uint64 {
	return p.ints.Get(idx.slot()).value
}
