package promise

import (
	"sync"

	"github.com/aauto/aauto/aautoerr"
)

// state is the terminal-state tri-state a Promise moves through exactly
// once: pending -> resolved xor rejected.
type state uint8

const (
	pending state = iota
	resolved
	rejected
)

// Promise is a single-shot asynchronous result carrier. It resolves with a
// value of type T or rejects with an *aautoerr.Error, exactly once, and
// delivers to a caller-registered callback pair dispatched on a bound
// Strand. This is the Go realization of spec §4.1: every async operation in
// this module returns one of these instead of blocking a goroutine.
type Promise[T any] struct {
	mu    sync.Mutex
	state state

	value T
	err   *aautoerr.Error

	onResolve func(T)
	onReject  func(*aautoerr.Error)
	strand    *Strand
}

// New creates a pending Promise whose callbacks, once registered, run on
// the given Strand. strand may be nil, in which case callbacks run
// synchronously in the goroutine that calls Resolve/Reject -- used for
// leaf promises that don't need serialization (e.g. a caller's own
// one-off promise).
func New[T any](strand *Strand) *Promise[T] {
	return &Promise[T]{strand: strand}
}

// Then registers the terminal callbacks. Registering twice is a programmer
// error and panics, so that bugs in call sites surface immediately rather
// than being silently ignored. Registering after Resolve/Reject has already
// fired delivers the stored value or error right away.
func (p *Promise[T]) Then(onResolve func(T), onReject func(*aautoerr.Error)) {
	p.mu.Lock()
	if p.onResolve != nil || p.onReject != nil {
		p.mu.Unlock()
		panic("promise: Then called twice on the same Promise")
	}
	p.onResolve = onResolve
	p.onReject = onReject

	switch p.state {
	case resolved:
		v, s := p.value, p.strand
		p.mu.Unlock()
		dispatch(s, func() { onResolve(v) })
	case rejected:
		e, s := p.err, p.strand
		p.mu.Unlock()
		dispatch(s, func() { onReject(e) })
	default:
		p.mu.Unlock()
	}
}

// Resolve transitions the Promise to the resolved state with v. A second
// call, or a call after Reject already fired, is a silent no-op -- this
// matches spec §4.1's "subsequent calls are silent no-ops" so that a
// race between two completion paths (e.g. a transport error arriving just
// after a successful read) never double-delivers.
func (p *Promise[T]) Resolve(v T) {
	p.mu.Lock()
	if p.state != pending {
		p.mu.Unlock()
		return
	}
	p.state = resolved
	p.value = v
	cb, s := p.onResolve, p.strand
	p.mu.Unlock()

	if cb != nil {
		dispatch(s, func() { cb(v) })
	}
	p.release()
}

// Reject transitions the Promise to the rejected state with err.
func (p *Promise[T]) Reject(err *aautoerr.Error) {
	p.mu.Lock()
	if p.state != pending {
		p.mu.Unlock()
		return
	}
	p.state = rejected
	p.err = err
	cb, s := p.onReject, p.strand
	p.mu.Unlock()

	if cb != nil {
		dispatch(s, func() { cb(err) })
	}
	p.release()
}

// release drops the callback and strand references once the Promise has
// reached a terminal state, matching spec §4.1's "breaking potential
// reference cycles" note.
func (p *Promise[T]) release() {
	p.mu.Lock()
	p.onResolve = nil
	p.onReject = nil
	p.strand = nil
	p.mu.Unlock()
}

// IsSettled reports whether Resolve or Reject has already run.
func (p *Promise[T]) IsSettled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != pending
}

func dispatch(s *Strand, f func()) {
	if s == nil {
		f()
		return
	}
	s.Dispatch(f)
}
