// Package messenger assembles frames into messages and back, and provides
// the per-channel rendezvous between pending receive requests and arriving
// messages described in spec §4.3-§4.5.
package messenger

import (
	"github.com/google/uuid"

	"github.com/aauto/aauto/protocol"
)

// Message is an assembled logical unit exchanged with a service channel:
// one channel id, one encryption mode, one message type, one payload. It is
// uniquely owned while in flight and is never shared between goroutines
// after being handed to a waiter.
type Message struct {
	ChannelId   protocol.ChannelId
	Encryption  protocol.EncryptionType
	MessageType protocol.MessageType
	Payload     []byte

	// traceID replaces the original source's raw monotonic
	// current_promise_idx/current_message_idx counters (see DESIGN NOTES
	// §9) with a structured correlation id attached to log fields.
	traceID uuid.UUID
}

// New builds an outbound Message ready to hand to a Channel.Send.
func New(channel protocol.ChannelId, encryption protocol.EncryptionType, messageType protocol.MessageType, payload []byte) *Message {
	return &Message{
		ChannelId:   channel,
		Encryption:  encryption,
		MessageType: messageType,
		Payload:     payload,
		traceID:     uuid.New(),
	}
}

// newMessage starts a fresh assembly for a FIRST or BULK frame header.
func newMessage(h protocol.FrameHeader) *Message {
	return &Message{
		ChannelId:   h.ChannelId,
		Encryption:  h.Encryption,
		MessageType: h.MessageType,
		traceID:     uuid.New(),
	}
}

// TraceID returns the correlation id attached to this message's log fields.
func (m *Message) TraceID() uuid.UUID {
	return m.traceID
}

// append adds a frame's (decrypted, if applicable) payload bytes.
func (m *Message) append(payload []byte) {
	m.Payload = append(m.Payload, payload...)
}
