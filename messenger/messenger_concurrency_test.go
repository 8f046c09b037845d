package messenger

import (
	"fmt"
	"testing"
	"time"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/promise"
	"github.com/aauto/aauto/protocol"
)

// TestThreeChannelsMakeIndependentProgress exercises several simulated
// service channels sending and receiving concurrently over one shared link,
// grounded on the original source's documented expectation (Channel.cpp)
// that every channel multiplexed over the link makes independent forward
// progress regardless of what the others are doing.
func TestThreeChannelsMakeIndependentProgress(t *testing.T) {
	a, b := newPair(t)

	channels := []protocol.ChannelId{
		protocol.ChannelNavigation,
		protocol.ChannelMediaStatus,
		protocol.ChannelSensor,
	}
	const messagesPerChannel = 5

	type received struct {
		channel protocol.ChannelId
	}
	results := make(chan received, len(channels)*messagesPerChannel)

	for _, ch := range channels {
		ch := ch
		var watch func(remaining int)
		watch = func(remaining int) {
			if remaining == 0 {
				return
			}
			p := promise.New[*Message](nil)
			p.Then(func(m *Message) {
				results <- received{channel: m.ChannelId}
				watch(remaining - 1)
			}, func(e *aautoerr.Error) {
				t.Errorf("channel %v receive failed: %v", ch, e)
			})
			b.EnqueueReceive(ch, p)
		}
		watch(messagesPerChannel)
	}

	for _, ch := range channels {
		ch := ch
		go func() {
			for i := 0; i < messagesPerChannel; i++ {
				msg := New(ch, protocol.Plain, protocol.Specific, []byte(fmt.Sprintf("%v-%d", ch, i)))
				p := promise.New[struct{}](nil)
				done := make(chan struct{})
				p.Then(func(struct{}) { close(done) }, func(e *aautoerr.Error) {
					t.Errorf("channel %v send failed: %v", ch, e)
				})
				a.EnqueueSend(msg, p)
				<-done
			}
		}()
	}

	counts := make(map[protocol.ChannelId]int)
	for i := 0; i < len(channels)*messagesPerChannel; i++ {
		select {
		case r := <-results:
			counts[r.channel]++
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout waiting for message %d/%d; counts so far: %v", i+1, len(channels)*messagesPerChannel, counts)
		}
	}

	for _, ch := range channels {
		if counts[ch] != messagesPerChannel {
			t.Fatalf("channel %v: expected %d messages, got %d", ch, messagesPerChannel, counts[ch])
		}
	}
}
