package messenger

import (
	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
)

// sendItem pairs one queued outbound Message with its completion promise.
type sendItem struct {
	msg *Message
	p   *promise.Promise[struct{}]
}

// Messenger is the rendezvous between service channels and the wire: a
// per-channel FIFO of callers waiting for a message, a per-channel FIFO of
// messages that arrived with no waiter yet, and a global send queue,
// exactly per spec §4.5.
type Messenger struct {
	inStream  *MessageInStream
	outStream *MessageOutStream

	receiveStrand *promise.Strand
	sendStrand    *promise.Strand

	receivePromises map[protocol.ChannelId][]*promise.Promise[*Message]
	receiveMessages map[protocol.ChannelId][]*Message

	sendQueue []sendItem

	// receiveStopped and sendStopped are each touched only from within
	// their own strand's dispatched funcs -- kept as two fields rather
	// than one shared bool so no field crosses strand ownership (spec
	// §5: "each mutable queue or map lives behind exactly one strand").
	receiveStopped bool
	sendStopped    bool
}

// NewMessenger wires a Messenger to an already-constructed in/out stream
// pair sharing one Transport.
func NewMessenger(in *MessageInStream, out *MessageOutStream) *Messenger {
	return &Messenger{
		inStream:        in,
		outStream:       out,
		receiveStrand:   promise.NewStrand(32),
		sendStrand:      promise.NewStrand(32),
		receivePromises: make(map[protocol.ChannelId][]*promise.Promise[*Message]),
		receiveMessages: make(map[protocol.ChannelId][]*Message),
	}
}

func (m *Messenger) log() *log.Entry {
	return log.WithField("component", "messenger")
}

// totalPendingReceives counts pending receive promises across every
// channel. Must run on receiveStrand.
func (m *Messenger) totalPendingReceives() int {
	n := 0
	for _, q := range m.receivePromises {
		n += len(q)
	}
	return n
}

// EnqueueReceive registers p as waiting for the next message on channel,
// resolving it immediately from the buffered queue if one is already
// available, per spec §4.5.
func (m *Messenger) EnqueueReceive(channel protocol.ChannelId, p *promise.Promise[*Message]) {
	m.receiveStrand.Dispatch(func() {
		if m.receiveStopped {
			p.Reject(aautoerr.Stopped)
			return
		}

		m.armInterleavedHandler()

		if queue := m.receiveMessages[channel]; len(queue) > 0 {
			msg := queue[0]
			m.receiveMessages[channel] = queue[1:]
			p.Resolve(msg)
			return
		}

		wasEmpty := m.totalPendingReceives() == 0
		m.receivePromises[channel] = append(m.receivePromises[channel], p)

		if wasEmpty {
			m.startReceive(channel)
		}
	})
}

// armInterleavedHandler installs the promise that accepts complete messages
// for channels other than the one currently being assembled toward, as
// described in spec §4.3/§4.5.
func (m *Messenger) armInterleavedHandler() {
	interleaved := promise.New[*Message](m.receiveStrand)
	interleaved.Then(m.onInterleavedMessage, func(*aautoerr.Error) {
		// Dummy, mirroring the original design: the interleaved promise
		// is never rejected by MessageInStream itself.
	})
	m.inStream.SetInterleavedHandler(interleaved)
}

// startReceive issues the next StartReceive call on the in-stream. Must run
// on receiveStrand.
func (m *Messenger) startReceive(channel protocol.ChannelId) {
	inStreamPromise := promise.New[*Message](m.receiveStrand)
	inStreamPromise.Then(m.onMessageIn, m.rejectAllReceives)
	m.inStream.StartReceive(inStreamPromise, channel)
}

// onMessageIn routes a message produced by the in-stream's main promise to
// a waiting caller, or buffers it, then re-arms StartReceive if any channel
// still has a pending waiter. Must run on receiveStrand.
func (m *Messenger) onMessageIn(msg *Message) {
	channel := msg.ChannelId
	m.log().WithFields(log.Fields{"channel": channel, "trace_id": msg.TraceID()}).Debug("message received")

	if queue := m.receivePromises[channel]; len(queue) > 0 {
		queue[0].Resolve(msg)
		m.receivePromises[channel] = queue[1:]
		if len(m.receivePromises[channel]) == 0 {
			delete(m.receivePromises, channel)
		}
	} else {
		m.receiveMessages[channel] = append(m.receiveMessages[channel], msg)
	}

	if next, ok := m.anyPendingChannel(); ok {
		m.startReceive(next)
	}
}

// onInterleavedMessage hands a complete message that arrived for a channel
// other than the one currently being assembled to that channel's oldest
// waiter, or buffers it when none is waiting, then re-arms the interleaved
// handler for the next one, per spec §4.5.
func (m *Messenger) onInterleavedMessage(msg *Message) {
	channel := msg.ChannelId
	m.log().WithFields(log.Fields{"channel": channel, "trace_id": msg.TraceID()}).Debug("interleaved message received")

	if queue := m.receivePromises[channel]; len(queue) > 0 {
		queue[0].Resolve(msg)
		m.receivePromises[channel] = queue[1:]
		if len(m.receivePromises[channel]) == 0 {
			delete(m.receivePromises, channel)
		}
	} else {
		m.receiveMessages[channel] = append(m.receiveMessages[channel], msg)
	}
	m.armInterleavedHandler()
}

// anyPendingChannel returns an arbitrary channel with a non-empty receive
// promise queue, used only to pick which channel StartReceive is notionally
// targeting -- the message actually delivered may be for any channel.
func (m *Messenger) anyPendingChannel() (protocol.ChannelId, bool) {
	for ch, q := range m.receivePromises {
		if len(q) > 0 {
			return ch, true
		}
	}
	return 0, false
}

// EnqueueSend appends (msg, p) to the global send queue, starting
// transmission if it is the only entry, per spec §4.5.
func (m *Messenger) EnqueueSend(msg *Message, p *promise.Promise[struct{}]) {
	m.sendStrand.Dispatch(func() {
		if m.sendStopped {
			p.Reject(aautoerr.Stopped)
			return
		}

		m.sendQueue = append(m.sendQueue, sendItem{msg: msg, p: p})
		if len(m.sendQueue) == 1 {
			m.doSend()
		}
	})
}

// doSend streams the head of the send queue. Must run on sendStrand.
func (m *Messenger) doSend() {
	if len(m.sendQueue) == 0 {
		return
	}
	head := m.sendQueue[0]

	outPromise := promise.New[struct{}](m.sendStrand)
	outPromise.Then(func(struct{}) {
		head.p.Resolve(struct{}{})
		if len(m.sendQueue) > 0 {
			m.sendQueue = m.sendQueue[1:]
		}
		m.doSend()
	}, m.rejectAllSends)

	m.outStream.Stream(head.msg, outPromise)
}

func (m *Messenger) rejectAllReceives(e *aautoerr.Error) {
	for ch, q := range m.receivePromises {
		for _, p := range q {
			p.Reject(e)
		}
		delete(m.receivePromises, ch)
	}
}

func (m *Messenger) rejectAllSends(e *aautoerr.Error) {
	for _, item := range m.sendQueue {
		item.p.Reject(e)
	}
	m.sendQueue = nil
}

// Stop rejects every pending receive and send promise with
// aautoerr.Stopped, clears buffered messages, and makes the Messenger
// refuse further enqueue calls. The owning orchestrator is responsible for
// stopping the underlying Transport separately.
func (m *Messenger) Stop() {
	m.receiveStrand.Dispatch(func() {
		m.receiveStopped = true
		m.receiveMessages = make(map[protocol.ChannelId][]*Message)
		m.rejectAllReceives(aautoerr.Stopped)
	})
	m.sendStrand.Dispatch(func() {
		m.sendStopped = true
		m.rejectAllSends(aautoerr.Stopped)
	})
}
