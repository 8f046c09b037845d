// Package mediastatus is one illustrative example of a service-specific
// channel built on the channel.Channel facade, grounded on the original
// source's MediaBrowserService. It dispatches incoming messages to a typed
// event handler by their service-specific message id prefix.
//
// The transport core is unaware of this package; it exists only to
// demonstrate the intended shape of a service handler, per spec §4.6's
// "Service-specific channels differ only in the typed message handlers
// they bind".
package mediastatus

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/channel"
	"github.com/aauto/aauto/messenger"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
)

// MessageId values carried as the first two big-endian bytes of a media
// status message's payload.
const (
	MessageIdPlaybackStatus  uint16 = 1
	MessageIdMetadata        uint16 = 2
	MessageIdPlaybackChanged uint16 = 3
)

// EventHandler receives typed media-status events. Implementations handle
// every case explicitly -- the original source's fallthrough between
// CHANNEL_OPEN_REQUEST and the media node cases (Open Question #2) is not
// reproduced here.
type EventHandler interface {
	OnPlaybackStatus(payload []byte)
	OnMetadata(payload []byte)
	OnPlaybackChanged(payload []byte)
	OnUnknownMessage(id uint16, payload []byte)
	OnChannelError(err *aautoerr.Error)
}

// Service is a media-status channel bound to protocol.ChannelMediaStatus.
type Service struct {
	*channel.Channel
}

// New wraps an existing Channel already created for ChannelMediaStatus.
func New(ch *channel.Channel) *Service {
	return &Service{Channel: ch}
}

func (s *Service) log() *log.Entry {
	return log.WithField("component", "mediastatus")
}

// Receive requests the next message on this channel and dispatches it to
// handler via an explicit, exhaustive switch over the message id.
func (s *Service) Receive(handler EventHandler) {
	s.Channel.Receive(func(m *messenger.Message) {
		s.dispatch(m, handler)
	}, handler.OnChannelError)
}

func (s *Service) dispatch(m *messenger.Message, handler EventHandler) {
	if len(m.Payload) < 2 {
		s.log().WithField("channel", m.ChannelId).Warn("message payload too short for a message id")
		handler.OnChannelError(aautoerr.New(aautoerr.ParsePayload, "media status payload shorter than 2 bytes"))
		return
	}

	id := binary.BigEndian.Uint16(m.Payload[:2])
	body := m.Payload[2:]

	switch id {
	case MessageIdPlaybackStatus:
		handler.OnPlaybackStatus(body)
	case MessageIdMetadata:
		handler.OnMetadata(body)
	case MessageIdPlaybackChanged:
		handler.OnPlaybackChanged(body)
	default:
		handler.OnUnknownMessage(id, body)
	}
}

// SendPlaybackStatus builds and sends a PLAYBACK_STATUS message.
func (s *Service) SendPlaybackStatus(body []byte, p *promise.Promise[struct{}]) {
	s.send(MessageIdPlaybackStatus, body, p)
}

func (s *Service) send(id uint16, body []byte, p *promise.Promise[struct{}]) {
	payload := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(payload[:2], id)
	copy(payload[2:], body)

	msg := messenger.New(protocol.ChannelMediaStatus, protocol.Encrypted, protocol.Specific, payload)
	s.Channel.Send(msg, p)
}
