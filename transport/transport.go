// Package transport implements the byte-level, reliable, duplex link the
// rest of the core is built on: request N bytes, get exactly N; send
// arbitrary bytes. Base implements the queueing and buffering algorithm
// shared by every physical variant (USB, TCP, WebSocket, loopback); each
// variant supplies only the physical read/write primitives.
package transport

import (
	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/promise"
)

// Transport is the interface the messenger layer depends on. Every
// implementation embeds *Base and wires it to a concrete physicalIO.
type Transport interface {
	// Receive resolves p with exactly n bytes drawn from the link, FIFO
	// with respect to other Receive calls.
	Receive(n int, p *promise.Promise[[]byte])

	// Send resolves p once data has been fully committed to the link,
	// FIFO with respect to other Send calls.
	Send(data []byte, p *promise.Promise[struct{}])

	// Stop cancels in-flight physical transfers, rejects every pending
	// Receive/Send promise with aautoerr.Aborted, and makes the transport
	// unusable.
	Stop()
}

// physicalIO is the subclass contract Base relies on: a physical read into
// a buffer, and a physical write of one queued send entry. Both are async:
// they report completion via the callbacks passed to them, invoked exactly
// once, from any goroutine.
type physicalIO interface {
	// enqueueReceive requests a physical read into buf. onDone must be
	// called exactly once with the number of bytes actually read, or
	// onErr exactly once on failure.
	enqueueReceive(buf []byte, onDone func(n int), onErr func(*aautoerr.Error))

	// enqueueSend requests a physical write of data. onDone must be called
	// exactly once on success, or onErr exactly once on failure.
	enqueueSend(data []byte, onDone func(), onErr func(*aautoerr.Error))

	// stopPhysical cancels any in-flight physical transfer.
	stopPhysical()
}
