package messenger

import (
	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/cryptor"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
	"github.com/aauto/aauto/transport"
)

// MessageOutStream serializes a Message into one or more frames and writes
// them through a Transport, per spec §4.4.
type MessageOutStream struct {
	transport transport.Transport
	cryptor   cryptor.Cryptor

	// MaxFramePayload bounds how much ciphertext/plaintext fits in one
	// frame before fragmentation kicks in. Chosen by the Cryptor in the
	// original design to fit one TLS record; defaults to
	// protocol.MaxFramePayload but is exposed so tests can exercise
	// fragmentation at a convenient size (e.g. spec scenario S2's 4 KiB).
	MaxFramePayload int
}

// NewMessageOutStream builds a stream over an already-open Transport.
func NewMessageOutStream(t transport.Transport, c cryptor.Cryptor) *MessageOutStream {
	return &MessageOutStream{transport: t, cryptor: c, MaxFramePayload: protocol.MaxFramePayload}
}

// Stream encrypts (if needed), fragments if necessary, and writes m through
// the transport, resolving p only after the final frame's write completes.
func (s *MessageOutStream) Stream(m *Message, p *promise.Promise[struct{}]) {
	var body []byte
	if m.Encryption == protocol.Encrypted {
		ciphertext, err := s.cryptor.Encrypt(m.Payload)
		if err != nil {
			p.Reject(aautoerr.New(aautoerr.SslWrite, err.Error()))
			return
		}
		body = ciphertext
	} else {
		body = m.Payload
	}

	if len(body) <= s.MaxFramePayload {
		frame := encodeFrame(m, protocol.FrameBulk, body, 0)
		framePromise := promise.New[struct{}](nil)
		promise.Link(framePromise, p)
		s.transport.Send(frame, framePromise)
		return
	}

	s.streamFragmented(m, body, p)
}

// streamFragmented splits body into FIRST, zero or more MIDDLE, and one
// LAST frame, sending them sequentially; a failure on any chunk rejects p
// and stops emitting the rest.
func (s *MessageOutStream) streamFragmented(m *Message, body []byte, p *promise.Promise[struct{}]) {
	total := uint32(len(body))
	offset := 0
	first := true

	var sendNext func()
	sendNext = func() {
		remaining := len(body) - offset
		if remaining <= s.MaxFramePayload {
			frame := encodeFrame(m, protocol.FrameLast, body[offset:], 0)
			framePromise := promise.New[struct{}](nil)
			promise.Link(framePromise, p)
			s.transport.Send(frame, framePromise)
			return
		}

		chunk := body[offset : offset+s.MaxFramePayload]
		ft := protocol.FrameMiddle
		extended := uint32(0)
		if first {
			ft = protocol.FrameFirst
			extended = total
		}

		frame := encodeFrame(m, ft, chunk, extended)
		offset += s.MaxFramePayload
		first = false

		framePromise := promise.New[struct{}](nil)
		framePromise.Then(func(struct{}) {
			sendNext()
		}, func(e *aautoerr.Error) {
			p.Reject(e)
		})
		s.transport.Send(frame, framePromise)
	}

	sendNext()
}

// encodeFrame builds one complete frame: the 4-byte header (which already
// carries this frame's short payload length), an optional extended total
// length (FIRST only), and the payload itself.
func encodeFrame(m *Message, ft protocol.FrameType, payload []byte, extendedTotal uint32) []byte {
	header := protocol.FrameHeader{
		ChannelId:   m.ChannelId,
		Encryption:  m.Encryption,
		MessageType: m.MessageType,
		FrameType:   ft,
		ShortLength: uint16(len(payload)),
	}

	out := make([]byte, 0, protocol.FrameHeaderSize+protocol.ExtendedLengthSize+len(payload))
	out = append(out, header.Marshal()...)
	if ft == protocol.FrameFirst {
		out = append(out, protocol.EncodeExtendedLength(extendedTotal)...)
	}
	out = append(out, payload...)
	return out
}
