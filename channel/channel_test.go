package channel

import (
	"testing"
	"time"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/cryptor"
	"github.com/aauto/aauto/messenger"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
	"github.com/aauto/aauto/transport"
)

func TestChannelSendAndReceiveRoundTrip(t *testing.T) {
	a, b := transport.NewLoopback()

	mA := messenger.NewMessenger(messenger.NewMessageInStream(a, cryptor.Passthrough{}), messenger.NewMessageOutStream(a, cryptor.Passthrough{}))
	mB := messenger.NewMessenger(messenger.NewMessageInStream(b, cryptor.Passthrough{}), messenger.NewMessageOutStream(b, cryptor.Passthrough{}))

	strandA := promise.NewStrand(4)
	strandB := promise.NewStrand(4)
	defer strandA.Close()
	defer strandB.Close()

	chA := New(strandA, protocol.ChannelMediaStatus, mA)
	chB := New(strandB, protocol.ChannelMediaStatus, mB)

	if chB.Id() != protocol.ChannelMediaStatus {
		t.Fatalf("unexpected channel id: %v", chB.Id())
	}

	recv := make(chan *messenger.Message, 1)
	chB.Receive(func(m *messenger.Message) { recv <- m }, func(e *aautoerr.Error) { t.Fatalf("receive failed: %v", e) })

	msg := messenger.New(protocol.ChannelMediaStatus, protocol.Plain, protocol.Specific, []byte("ping"))
	sendP := promise.New[struct{}](nil)
	sendDone := make(chan struct{})
	sendP.Then(func(struct{}) { close(sendDone) }, func(e *aautoerr.Error) { t.Fatalf("send failed: %v", e) })
	chA.Send(msg, sendP)

	select {
	case <-sendDone:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send")
	}

	select {
	case got := <-recv:
		if string(got.Payload) != "ping" {
			t.Fatalf("expected ping, got %q", got.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for receive")
	}
}
