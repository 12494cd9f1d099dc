// Package blocks implements the segmented block stores that back the term
// arenas.  A Store hands out fixed-size segments so that node addresses stay
// stable for the lifetime of the store: a segment is never reallocated or
// moved once created, only appended to the segment table.  Slots are addressed
// by a dense uint32 index which the pool uses as the node's canonical
// identifier.
//
// Freed slots are pushed onto a free-list and reused by later allocations.
// The store itself never inspects slot contents; liveness bookkeeping belongs
// to the caller.
//
// Concurrency
// -----------
// A Store is *not* thread-safe; the owning pool already serialises access
// with its own mutex.  Therefore we do not add any locking here.
package blocks

import "fmt"

// DefaultSegmentSize is the number of slots per segment.  4096 keeps segment
// headers out of the hot loop while bounding the slack of a near-empty store.
const DefaultSegmentSize = 4096

// Store is a segmented slot store for values of type T with stable addresses
// and index-based access.
type Store[T any] struct {
	segments [][]T
	segSize  uint32

	// next is the high-water mark: every index below it has been handed out
	// at least once.
	next uint32

	// free holds indices released via Free, reused before extending.
	free []uint32
}

// New constructs an empty store.  segmentSize <= 0 selects DefaultSegmentSize.
func New[T any](segmentSize int) *Store[T] {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}
	return &Store[T]{segSize: uint32(segmentSize)}
}

// Alloc returns a free slot index and a pointer to it.  The slot may contain
// stale contents from a previous occupant; callers reset it.
func (s *Store[T]) Alloc() (uint32, *T) {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		return idx, s.Get(idx)
	}

	idx := s.next
	seg := idx / s.segSize
	if int(seg) >= len(s.segments) {
		s.segments = append(s.segments, make([]T, s.segSize))
	}
	s.next++
	return idx, &s.segments[seg][idx%s.segSize]
}

// Get returns a pointer to the slot at idx.  The pointer remains valid for
// the lifetime of the store.
func (s *Store[T]) Get(idx uint32) *T {
	return &s.segments[idx/s.segSize][idx%s.segSize]
}

// Free releases the slot at idx for reuse.  Releasing an index twice corrupts
// the free-list; the caller's liveness flags prevent that.
func (s *Store[T]) Free(idx uint32) {
	if idx >= s.next {
		panic(fmt.Sprintf("blocks: free of unallocated index %d (high water %d)", idx, s.next))
	}
	s.free = append(s.free, idx)
}

// Len returns the number of slots currently handed out.
func (s *Store[T]) Len() int {
	return int(s.next) - len(s.free)
}

// Cap returns the total number of slots backed by segments.
func (s *Store[T]) Cap() int {
	return len(s.segments) * int(s.segSize)
}

// Range calls f for every index below the high-water mark, including freed
// slots.  Iteration stops when f returns false.  Callers distinguish live from
// freed slots with their own flags.
func (s *Store[T]) Range(f func(idx uint32, v *T) bool) {
	for idx := uint32(0); idx < s.next; idx++ {
		if !f(idx, &s.segments[idx/s.segSize][idx%s.segSize]) {
			return
		}
	}
}
