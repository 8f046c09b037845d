package promise

import (
	"testing"
	"time"

	"github.com/aauto/aauto/aautoerr"
)

func TestResolveDeliversToThen(t *testing.T) {
	p := New[int](nil)

	var got int
	p.Then(func(v int) { got = v }, func(*aautoerr.Error) { t.Fatal("onReject called") })
	p.Resolve(42)

	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestThenBeforeResolveDeliversLater(t *testing.T) {
	p := New[int](nil)

	done := make(chan int, 1)
	p.Then(func(v int) { done <- v }, func(*aautoerr.Error) { t.Fatal("onReject called") })

	go p.Resolve(7)

	select {
	case v := <-done:
		if v != 7 {
			t.Fatalf("expected 7, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	p := New[int](nil)

	calls := 0
	p.Then(func(int) { calls++ }, func(*aautoerr.Error) { t.Fatal("onReject called") })

	p.Resolve(1)
	p.Resolve(2)
	p.Reject(aautoerr.Aborted)

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
}

func TestRejectIsIdempotent(t *testing.T) {
	p := New[int](nil)

	var got *aautoerr.Error
	p.Then(func(int) { t.Fatal("onResolve called") }, func(e *aautoerr.Error) { got = e })

	p.Reject(aautoerr.Aborted)
	p.Reject(aautoerr.InProgress)

	if got != aautoerr.Aborted {
		t.Fatalf("expected first rejection to win, got %v", got)
	}
}

func TestThenTwicePanics(t *testing.T) {
	p := New[int](nil)
	p.Then(func(int) {}, func(*aautoerr.Error) {})

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic on the second Then call")
		}
	}()
	p.Then(func(int) {}, func(*aautoerr.Error) {})
}

func TestIsSettled(t *testing.T) {
	p := New[int](nil)
	if p.IsSettled() {
		t.Fatal("expected a fresh promise to be unsettled")
	}
	p.Resolve(1)
	if !p.IsSettled() {
		t.Fatal("expected a resolved promise to report settled")
	}
}

func TestCallbacksRunOnStrand(t *testing.T) {
	s := NewStrand(1)
	defer s.Close()

	strandGoroutine := make(chan struct{})
	s.Dispatch(func() { close(strandGoroutine) })
	<-strandGoroutine

	p := New[int](s)
	done := make(chan struct{})
	p.Then(func(int) { close(done) }, nil)

	go p.Resolve(1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for strand-dispatched callback")
	}
}
