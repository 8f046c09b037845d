// Package channel provides the thin façade a service handler uses to talk
// to the Messenger without knowing about strands or promise wiring
// directly (spec §4.6).
package channel

import (
	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/messenger"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
)

// Channel binds a channel id to a Messenger, giving a service handler a
// send/receive surface scoped to its own traffic.
type Channel struct {
	strand    *promise.Strand
	id        protocol.ChannelId
	messenger *messenger.Messenger
}

// New builds a Channel bound to id, dispatching its own callbacks on
// strand.
func New(strand *promise.Strand, id protocol.ChannelId, m *messenger.Messenger) *Channel {
	return &Channel{strand: strand, id: id, messenger: m}
}

// Id returns this Channel's id.
func (c *Channel) Id() protocol.ChannelId {
	return c.id
}

// Send queues msg for transmission, resolving callerPromise on completion.
// An internal promise bound to this Channel's own strand bridges to
// callerPromise via promise.Link, matching the PromiseLink bridge from
// spec §4.1/§4.6.
func (c *Channel) Send(msg *messenger.Message, callerPromise *promise.Promise[struct{}]) {
	internal := promise.New[struct{}](c.strand)
	promise.Link(internal, callerPromise)
	c.messenger.EnqueueSend(msg, internal)
}

// Receive requests the next message on this channel, dispatching onMessage
// or onError on this Channel's strand.
func (c *Channel) Receive(onMessage func(*messenger.Message), onError func(*aautoerr.Error)) {
	internal := promise.New[*messenger.Message](c.strand)
	internal.Then(onMessage, onError)
	c.messenger.EnqueueReceive(c.id, internal)
}
