package transport

import (
	"testing"
	"time"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/promise"
)

func TestLoopbackRoundTripSmallMessage(t *testing.T) {
	a, b := NewLoopback()

	sendDone := make(chan struct{})
	sendP := promise.New[struct{}](nil)
	sendP.Then(func(struct{}) { close(sendDone) }, func(e *aautoerr.Error) { t.Fatalf("send failed: %v", e) })
	a.Send([]byte("hello"), sendP)

	recv := make(chan []byte, 1)
	recvP := promise.New[[]byte](nil)
	recvP.Then(func(data []byte) { recv <- data }, func(e *aautoerr.Error) { t.Fatalf("receive failed: %v", e) })
	b.Receive(5, recvP)

	select {
	case <-sendDone:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send")
	}

	select {
	case data := <-recv:
		if string(data) != "hello" {
			t.Fatalf("expected hello, got %q", data)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for receive")
	}
}

func TestLoopbackReceiveExactCountAcrossMultipleWrites(t *testing.T) {
	a, b := NewLoopback()

	// The loopback is io.Pipe-backed: a send completes only while the peer
	// has a read outstanding, so the receive is queued before the sends.
	recv := make(chan []byte, 1)
	recvP := promise.New[[]byte](nil)
	recvP.Then(func(data []byte) { recv <- data }, func(e *aautoerr.Error) { t.Fatalf("receive failed: %v", e) })
	b.Receive(6, recvP)

	for _, chunk := range []string{"AB", "CD", "EF"} {
		p := promise.New[struct{}](nil)
		done := make(chan struct{})
		p.Then(func(struct{}) { close(done) }, func(e *aautoerr.Error) { t.Fatalf("send failed: %v", e) })
		a.Send([]byte(chunk), p)
		<-done
	}

	select {
	case data := <-recv:
		if string(data) != "ABCDEF" {
			t.Fatalf("expected ABCDEF, got %q", data)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestChunkedLoopbackAssemblesAcrossChunkBoundaries(t *testing.T) {
	a, b := NewChunkedLoopback(4)

	payload := make([]byte, 37)
	for i := range payload {
		payload[i] = byte(i)
	}

	sendP := promise.New[struct{}](nil)
	sendDone := make(chan struct{})
	sendP.Then(func(struct{}) { close(sendDone) }, func(e *aautoerr.Error) { t.Fatalf("send failed: %v", e) })
	a.Send(payload, sendP)

	recv := make(chan []byte, 1)
	recvP := promise.New[[]byte](nil)
	recvP.Then(func(data []byte) { recv <- data }, func(e *aautoerr.Error) { t.Fatalf("receive failed: %v", e) })
	b.Receive(len(payload), recvP)

	select {
	case <-sendDone:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send")
	}

	select {
	case data := <-recv:
		if len(data) != len(payload) {
			t.Fatalf("expected %d bytes, got %d", len(payload), len(data))
		}
		for i := range payload {
			if data[i] != payload[i] {
				t.Fatalf("byte %d mismatch: want %d got %d", i, payload[i], data[i])
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for receive")
	}
}

func TestReceiveZeroBytesResolvesImmediately(t *testing.T) {
	a, _ := NewLoopback()

	p := promise.New[[]byte](nil)
	done := make(chan []byte, 1)
	p.Then(func(data []byte) { done <- data }, func(e *aautoerr.Error) { t.Fatalf("unexpected rejection: %v", e) })
	a.Receive(0, p)

	select {
	case data := <-done:
		if len(data) != 0 {
			t.Fatalf("expected empty data, got %v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestStopRejectsPendingReceiveWithAborted(t *testing.T) {
	a, _ := NewLoopback()

	p := promise.New[[]byte](nil)
	rejected := make(chan *aautoerr.Error, 1)
	p.Then(func([]byte) { t.Fatal("expected rejection, not resolution") }, func(e *aautoerr.Error) { rejected <- e })
	a.Receive(10, p)

	a.Stop()

	select {
	case err := <-rejected:
		if err.Code != aautoerr.OperationAborted {
			t.Fatalf("expected Aborted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for rejection")
	}
}

func TestReceiveAfterStopRejectsImmediately(t *testing.T) {
	a, _ := NewLoopback()
	a.Stop()

	p := promise.New[[]byte](nil)
	rejected := make(chan *aautoerr.Error, 1)
	p.Then(func([]byte) { t.Fatal("expected rejection") }, func(e *aautoerr.Error) { rejected <- e })
	a.Receive(4, p)

	select {
	case err := <-rejected:
		if err.Code != aautoerr.OperationAborted {
			t.Fatalf("expected Aborted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}
