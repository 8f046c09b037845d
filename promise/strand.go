package promise

// Strand is a serial executor: a FIFO queue of funcs drained by exactly one
// goroutine, guaranteeing that no two funcs submitted to the same Strand ever
// run concurrently. It is the Go realization of the strand pattern used
// throughout this module to serialize access to the Messenger's and
// Transport's mutable queues without a mutex around every field.
type Strand struct {
	tasks chan func()
	done  chan struct{}
}

// NewStrand starts a Strand with the given task queue depth. A depth of 0
// is valid and makes Dispatch block until the running goroutine is ready to
// accept the next task; most callers want a small buffer to avoid stalling
// the dispatcher on its own strand.
func NewStrand(depth int) *Strand {
	s := &Strand{
		tasks: make(chan func(), depth),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Strand) run() {
	for {
		select {
		case f, ok := <-s.tasks:
			if !ok {
				return
			}
			f()
		case <-s.done:
			// Drain whatever is already queued before exiting, so that
			// in-flight rejections (e.g. Stop() rejecting pending promises)
			// are still delivered.
			for {
				select {
				case f := <-s.tasks:
					f()
				default:
					return
				}
			}
		}
	}
}

// Dispatch enqueues f to run on this Strand's goroutine. Dispatch itself
// never blocks the caller beyond the channel send; f runs asynchronously.
func (s *Strand) Dispatch(f func()) {
	select {
	case s.tasks <- f:
	case <-s.done:
		// Strand already closing; run inline so shutdown-path rejections
		// still fire instead of being silently dropped.
		f()
	}
}

// Close stops the Strand after draining any already-queued tasks. Dispatch
// calls made concurrently with Close may race; callers coordinate shutdown
// so that Close is the last call made on a Strand.
func (s *Strand) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
}
