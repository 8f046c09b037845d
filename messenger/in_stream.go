package messenger

import (
	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/cryptor"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
	"github.com/aauto/aauto/transport"
)

// MessageInStream assembles frames into Messages, resolving the main
// promise with the message on the channel the current receive began on
// while buffering frames belonging to other channels that arrive
// interleaved (spec §4.3).
//
// Only one start_receive may be in flight at a time; the Messenger enforces
// this by construction (it never calls StartReceive again before the
// previous call's promise has settled).
type MessageInStream struct {
	transport transport.Transport
	cryptor   cryptor.Cryptor

	// StrictInterleave resolves Open Question #1: when true, a MIDDLE/LAST
	// frame with no matching partial assembly for its channel rejects the
	// in-flight main promise with aautoerr.ProtocolError instead of
	// silently starting a fresh, headerless message. Defaults to false to
	// match the original's tolerant recovery; set true for strict
	// deployments that would rather fail loudly than risk delivering a
	// truncated message.
	StrictInterleave bool

	mainPromise        *promise.Promise[*Message]
	interleavedPromise *promise.Promise[*Message]

	current          *Message
	partialByChannel map[protocol.ChannelId]*Message

	isNewMessage       bool
	isInterleaved      bool
	originalChannelId  protocol.ChannelId
	thisFrameType      protocol.FrameType
}

// NewMessageInStream builds a stream over an already-open Transport.
func NewMessageInStream(t transport.Transport, c cryptor.Cryptor) *MessageInStream {
	return &MessageInStream{
		transport:        t,
		cryptor:          c,
		partialByChannel: make(map[protocol.ChannelId]*Message),
		isNewMessage:     true,
	}
}

// SetInterleavedHandler installs the promise that resolves whenever a
// complete message arrives for a channel other than the one StartReceive
// was called for. The Messenger re-arms this after every resolution.
func (s *MessageInStream) SetInterleavedHandler(p *promise.Promise[*Message]) {
	s.interleavedPromise = p
}

func (s *MessageInStream) log() *log.Entry {
	return log.WithField("component", "message_in_stream")
}

// StartReceive begins assembling frames toward a complete message,
// resolving p when the message on the channel of the first frame header
// read after this call is complete. Complete messages for other channels
// that finish while it is in progress go to the interleaved handler, not
// to p. requestedChannel is not consulted; the Messenger routes the
// resolved message by its own ChannelId.
func (s *MessageInStream) StartReceive(p *promise.Promise[*Message], requestedChannel protocol.ChannelId) {
	if s.mainPromise != nil {
		p.Reject(aautoerr.InProgress)
		return
	}

	s.mainPromise = p
	s.isNewMessage = true

	headerPromise := promise.New[[]byte](nil)
	headerPromise.Then(s.onHeader, func(e *aautoerr.Error) {
		s.mainPromise.Reject(e)
		s.mainPromise = nil
	})
	s.transport.Receive(protocol.FrameHeaderSize, headerPromise)
}

func (s *MessageInStream) onHeader(buf []byte) {
	header, err := protocol.UnmarshalFrameHeader(buf)
	if err != nil {
		s.mainPromise.Reject(aautoerr.New(aautoerr.ParsePayload, err.Error()))
		s.mainPromise = nil
		return
	}

	s.isInterleaved = false

	if s.isNewMessage {
		s.originalChannelId = header.ChannelId
		s.isNewMessage = false
	}

	if s.current != nil && s.current.ChannelId != header.ChannelId {
		s.log().WithFields(log.Fields{
			"frame_channel":   header.ChannelId,
			"message_channel": s.current.ChannelId,
		}).Debug("channel mismatch, parking in-progress message")

		s.isInterleaved = true
		s.partialByChannel[s.current.ChannelId] = s.current
		s.current = nil
	}

	switch {
	case header.FrameType.IsInitial():
		s.current = newMessage(header)

	case s.current != nil:
		// MIDDLE/LAST continuing the in-progress message on this channel.

	default:
		if buffered, ok := s.partialByChannel[header.ChannelId]; ok {
			if s.originalChannelId == header.ChannelId {
				s.isInterleaved = false
			}
			s.current = buffered
			delete(s.partialByChannel, header.ChannelId)
		} else if s.StrictInterleave {
			s.mainPromise.Reject(aautoerr.Protocol(
				"MIDDLE/LAST frame for channel " + header.ChannelId.String() + " has no matching partial assembly"))
			s.mainPromise = nil
			return
		}
	}

	if s.current == nil {
		// Tolerant recovery (Open Question #1, StrictInterleave == false):
		// a MIDDLE/LAST with no partial assembly starts a fresh message
		// rather than failing the whole stream.
		s.current = newMessage(header)
	}

	s.thisFrameType = header.FrameType

	if extra := protocol.ExtendedLengthFieldLen(header.FrameType); extra > 0 {
		short := header.ShortLength
		extPromise := promise.New[[]byte](nil)
		extPromise.Then(func(b []byte) { s.onExtendedLength(short, b) }, func(e *aautoerr.Error) {
			s.current = nil
			s.mainPromise.Reject(e)
			s.mainPromise = nil
		})
		s.transport.Receive(extra, extPromise)
		return
	}

	s.receivePayload(header.ShortLength)
}

// onExtendedLength validates a FIRST frame's total-message-length field
// (used upstream to pre-size receive buffers for large streams; the value
// itself has no bearing on this frame's own payload read) before moving on
// to the payload.
func (s *MessageInStream) onExtendedLength(short uint16, buf []byte) {
	if _, err := protocol.ParseExtendedLength(buf); err != nil {
		s.current = nil
		s.mainPromise.Reject(aautoerr.New(aautoerr.ParsePayload, err.Error()))
		s.mainPromise = nil
		return
	}
	s.receivePayload(short)
}

func (s *MessageInStream) receivePayload(short uint16) {
	payloadPromise := promise.New[[]byte](nil)
	payloadPromise.Then(s.onPayload, func(e *aautoerr.Error) {
		s.current = nil
		s.mainPromise.Reject(e)
		s.mainPromise = nil
	})
	s.transport.Receive(int(short), payloadPromise)
}

func (s *MessageInStream) onPayload(buf []byte) {
	if s.current.Encryption == protocol.Encrypted {
		plaintext, err := s.cryptor.Decrypt(buf)
		if err != nil {
			s.current = nil
			s.mainPromise.Reject(aautoerr.New(aautoerr.SslRead, err.Error()))
			s.mainPromise = nil
			return
		}
		s.current.append(plaintext)
	} else {
		s.current.append(buf)
	}

	resolved := false
	if s.thisFrameType.IsTerminal() {
		if !s.isInterleaved {
			resolved = true
			msg := s.current
			s.current = nil
			main := s.mainPromise
			s.mainPromise = nil
			main.Resolve(msg)
		} else {
			msg := s.current
			s.current = nil
			s.interleavedPromise.Resolve(msg)
		}
	}

	if !resolved {
		headerPromise := promise.New[[]byte](nil)
		headerPromise.Then(s.onHeader, func(e *aautoerr.Error) {
			s.current = nil
			s.mainPromise.Reject(e)
			s.mainPromise = nil
		})
		s.transport.Receive(protocol.FrameHeaderSize, headerPromise)
	}
}
