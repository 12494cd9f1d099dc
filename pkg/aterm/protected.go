package aterm

// protected.go implements the wrapper for data structures that contain
// borrowed term references and must survive across rewrites.  The wrapped
// value implements Markable so the collector can treat its contents as roots;
// acquiring a read or write guard on the wrapper additionally bumps the
// recursive reader guard on the pool, so no collection can run while the
// contents are being inspected or grown.

import "sync"

// Markable is implemented by containers of term references that participate
// in garbage collection as roots.
type Markable interface {
	// MarkTerms calls mark for every term reference held by the container.
	// It is invoked by the collector under the pool's writer lock.
	MarkTerms(mark func(TermRef))
}

// Protected wraps a Markable container and registers it with a thread so its
// contents stay alive across collections.
type Protected[C Markable] struct {
	owner *Thread
	mu    sync.RWMutex
	inner C
}

// NewProtected registers inner with owner's root set and returns the wrapper.
func NewProtected[C Markable](owner *Thread, inner C) *Protected[C] {
	p := &Protected[C]{owner: owner, inner: inner}
	owner.registerContainer(inner)
	return p
}

// Read runs f with shared access to the container.  The guard thread t (the
// caller's own thread) holds the recursive reader guard for the duration, so
// the collector cannot run while borrowed references are being read.
func (p *Protected[C]) Read(t *Thread, f func(C)) {
	t.enter()
	defer t.leave()
	p.mu.RLock()
	defer p.mu.RUnlock()
	f(p.inner)
}

// Write runs f with exclusive access to the container under the reader
// guard.  References stored into the container during f become roots before
// any collection can observe them.
func (p *Protected[C]) Write(t *Thread, f func(C)) {
	t.enter()
	defer t.leave()
	p.mu.Lock()
	defer p.mu.Unlock()
	f(p.inner)
}

// Close unregisters the container; its contents are no longer roots.
func (p *Protected[C]) Close() {
	p.owner.removeContainer(p.inner)
}

// TermSlice is a Markable sequence of borrowed references, used as the
// scratch buffer by the substitution machinery.
type TermSlice struct {
	refs []TermRef
}

// MarkTerms implements Markable.
func (s *TermSlice) MarkTerms(mark func(TermRef)) {
	for _, r := range s.refs {
		mark(r)
	}
}

// Protect appends r to the slice, rooting it, and returns it unchanged.
func (s *TermSlice) Protect(r TermRef) TermRef {
	s.refs = append(s.refs, r)
	return r
}

// At returns the i-th stored reference.
func (s *TermSlice) At(i int) TermRef { return s.refs[i] }

// Len returns the number of stored references.
func (s *TermSlice) Len() int { return len(s.refs) }

// Refs exposes the backing slice; valid until the next mutation.
func (s *TermSlice) Refs() []TermRef { return s.refs }

// Truncate drops all references at or beyond n.
func (s *TermSlice) Truncate(n int) { s.refs = s.refs[:n] }

// Clear empties the slice.
func (s *TermSlice) Clear() { s.refs = s.refs[:0] }
