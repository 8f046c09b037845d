package ringbuffer

import "testing"

func TestReserveCommitConsume(t *testing.T) {
	s := New()

	tail, start := s.Reserve(4)
	copy(tail, []byte("abcd"))
	s.Commit(start, 4)

	if s.Available() != 4 {
		t.Fatalf("expected 4 available bytes, got %d", s.Available())
	}
	if got := s.Consume(4); string(got) != "abcd" {
		t.Fatalf("expected abcd, got %q", got)
	}
	if s.Available() != 0 {
		t.Fatalf("expected 0 available after consuming everything, got %d", s.Available())
	}
}

func TestCommitPartialFill(t *testing.T) {
	s := New()

	tail, start := s.Reserve(16)
	copy(tail, []byte("xy"))
	s.Commit(start, 2)

	if s.Available() != 2 {
		t.Fatalf("expected 2 available bytes after a short read, got %d", s.Available())
	}
	if got := s.Consume(2); string(got) != "xy" {
		t.Fatalf("expected xy, got %q", got)
	}
}

func TestPartialConsumeLeavesSurplusForNextWaiter(t *testing.T) {
	s := New()

	tail, start := s.Reserve(10)
	copy(tail, []byte("0123456789"))
	s.Commit(start, 10)

	first := s.Consume(4)
	if string(first) != "0123" {
		t.Fatalf("expected 0123, got %q", first)
	}
	if s.Available() != 6 {
		t.Fatalf("expected 6 bytes left over, got %d", s.Available())
	}

	second := s.Consume(6)
	if string(second) != "456789" {
		t.Fatalf("expected 456789, got %q", second)
	}
}

func TestReserveReclaimsFullyConsumedBuffer(t *testing.T) {
	s := New()

	tail, start := s.Reserve(4)
	copy(tail, []byte("data"))
	s.Commit(start, 4)
	s.Consume(4)

	_, start2 := s.Reserve(4)
	if start2 != 0 {
		t.Fatalf("expected Reserve to reclaim the buffer from offset 0, got start=%d", start2)
	}
}

func TestReserveCompactsAfterLargeConsumedPrefix(t *testing.T) {
	s := New()

	// Build up more than 4096 consumed bytes without ever fully draining,
	// so Reserve's compaction path (not the fully-reclaimed path) runs.
	_, start := s.Reserve(5000)
	s.Commit(start, 5000)
	s.Consume(4200)

	remainingBefore := s.Available()

	_, start2 := s.Reserve(8)
	if start2 != remainingBefore {
		t.Fatalf("expected compaction to place the new tail right after the retained bytes, got start=%d want=%d", start2, remainingBefore)
	}
}
