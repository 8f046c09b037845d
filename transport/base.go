package transport

import (
	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/internal/ringbuffer"
	"github.com/aauto/aauto/promise"
)

// receiveEntry is one queued receive request: n bytes wanted, promise to
// resolve once they are available.
type receiveEntry struct {
	n int
	p *promise.Promise[[]byte]
}

// sendEntry is one queued send request.
type sendEntry struct {
	data []byte
	p    *promise.Promise[struct{}]
}

// Base implements the receive/send queueing algorithm common to every
// transport variant: a receive strand owning a ringbuffer.Sink and a FIFO
// of pending receive requests, and a send strand owning a FIFO of pending
// sends. Variants supply the physicalIO that actually moves bytes.
type Base struct {
	name string
	io   physicalIO

	receiveStrand *promise.Strand
	sendStrand    *promise.Strand

	sink         *ringbuffer.Sink
	receiveQueue []receiveEntry

	sendQueue []sendEntry

	// receiveStopped and sendStopped are each touched only from within
	// their own strand's dispatched funcs -- kept as two fields rather
	// than one shared bool so no field crosses strand ownership (spec
	// §5: "each mutable queue or map lives behind exactly one strand").
	receiveStopped bool
	sendStopped    bool
}

// NewBase wires a Base to its physicalIO. Variants call this from their own
// constructors after building io.
func NewBase(name string, io physicalIO) *Base {
	return &Base{
		name:          name,
		io:            io,
		receiveStrand: promise.NewStrand(32),
		sendStrand:    promise.NewStrand(32),
		sink:          ringbuffer.New(),
	}
}

func (b *Base) log() *log.Entry {
	return log.WithFields(log.Fields{"component": "transport", "name": b.name})
}

// Receive queues (n, p) on the receive strand and kicks distribution if it
// is the only entry -- spec §4.2 "Algorithm (receive)".
func (b *Base) Receive(n int, p *promise.Promise[[]byte]) {
	b.receiveStrand.Dispatch(func() {
		if b.receiveStopped {
			p.Reject(aautoerr.Aborted)
			return
		}

		if n == 0 {
			// Boundary behavior: a receive for 0 bytes resolves immediately
			// with empty data (spec §8 property 8).
			p.Resolve([]byte{})
			return
		}

		b.receiveQueue = append(b.receiveQueue, receiveEntry{n: n, p: p})
		if len(b.receiveQueue) == 1 {
			b.distribute()
		}
	})
}

// distribute serves queued receive requests from the sink in FIFO order,
// requesting a physical read for whichever entry is blocked on more data
// than is currently buffered. Must run on receiveStrand.
func (b *Base) distribute() {
	for len(b.receiveQueue) > 0 {
		entry := b.receiveQueue[0]

		if b.sink.Available() >= entry.n {
			data := b.sink.Consume(entry.n)
			b.receiveQueue = b.receiveQueue[1:]
			entry.p.Resolve(data)
			continue
		}

		b.log().Debug("distribute: insufficient data buffered, requesting physical read")
		tail, start := b.sink.Reserve(physicalReadHint)
		b.io.enqueueReceive(tail, func(n int) {
			b.receiveStrand.Dispatch(func() {
				b.sink.Commit(start, n)
				b.distribute()
			})
		}, func(e *aautoerr.Error) {
			b.receiveStrand.Dispatch(func() {
				b.rejectReceives(e)
			})
		})
		return
	}
}

// physicalReadHint is the minimum size requested of a physical read when
// the sink is short. Any actual chunk size the link returns is acceptable;
// this only avoids issuing a read for a handful of bytes at a time.
const physicalReadHint = 4096

func (b *Base) rejectReceives(e *aautoerr.Error) {
	for _, entry := range b.receiveQueue {
		entry.p.Reject(e)
	}
	b.receiveQueue = nil
}

// Send queues (data, p) on the send strand and starts the physical write if
// it is the only entry -- spec §4.2 "Algorithm (send)".
func (b *Base) Send(data []byte, p *promise.Promise[struct{}]) {
	b.sendStrand.Dispatch(func() {
		if b.sendStopped {
			p.Reject(aautoerr.Aborted)
			return
		}

		b.sendQueue = append(b.sendQueue, sendEntry{data: data, p: p})
		if len(b.sendQueue) == 1 {
			b.doSend()
		}
	})
}

// doSend issues the physical write for the head of the send queue. Must run
// on sendStrand.
func (b *Base) doSend() {
	if len(b.sendQueue) == 0 {
		return
	}
	head := b.sendQueue[0]

	b.io.enqueueSend(head.data, func() {
		b.sendStrand.Dispatch(func() {
			head.p.Resolve(struct{}{})
			if len(b.sendQueue) > 0 {
				b.sendQueue = b.sendQueue[1:]
			}
			b.doSend()
		})
	}, func(e *aautoerr.Error) {
		b.sendStrand.Dispatch(func() {
			// Only the failing send is rejected here; a dead physical
			// link is the orchestrator's call to make by invoking Stop(),
			// which then rejects everything still queued.
			head.p.Reject(e)
			if len(b.sendQueue) > 0 {
				b.sendQueue = b.sendQueue[1:]
			}
		})
	})
}

// Stop cancels in-flight physical transfers and rejects every pending
// promise with aautoerr.Aborted, on both strands.
func (b *Base) Stop() {
	b.io.stopPhysical()

	b.receiveStrand.Dispatch(func() {
		b.receiveStopped = true
		b.rejectReceives(aautoerr.Aborted)
	})
	b.sendStrand.Dispatch(func() {
		b.sendStopped = true
		for _, entry := range b.sendQueue {
			entry.p.Reject(aautoerr.Aborted)
		}
		b.sendQueue = nil
	})
}
