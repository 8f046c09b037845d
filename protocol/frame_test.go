package protocol

import "testing"

func TestFrameHeaderMarshalRoundTrip(t *testing.T) {
	tests := []FrameHeader{
		{ChannelId: ChannelControl, Encryption: Plain, MessageType: ControlMessage, FrameType: FrameBulk, ShortLength: 0},
		{ChannelId: ChannelMediaStatus, Encryption: Encrypted, MessageType: Specific, FrameType: FrameFirst, ShortLength: 4096},
		{ChannelId: ChannelVideo, Encryption: Plain, MessageType: Specific, FrameType: FrameMiddle, ShortLength: 16384},
		{ChannelId: ChannelVideo, Encryption: Encrypted, MessageType: Specific, FrameType: FrameLast, ShortLength: 1000},
	}

	for _, h := range tests {
		buf := h.Marshal()
		if len(buf) != FrameHeaderSize {
			t.Fatalf("expected %d bytes, got %d", FrameHeaderSize, len(buf))
		}

		got, err := UnmarshalFrameHeader(buf)
		if err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if got != h {
			t.Fatalf("round trip mismatch: want %+v, got %+v", h, got)
		}
	}
}

func TestUnmarshalFrameHeaderShortBuffer(t *testing.T) {
	if _, err := UnmarshalFrameHeader([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected an error on a short buffer")
	}
}

func TestExtendedLengthFieldLen(t *testing.T) {
	if got := ExtendedLengthFieldLen(FrameFirst); got != ExtendedLengthSize {
		t.Fatalf("expected FIRST to carry the extended length, got %d", got)
	}
	for _, ft := range []FrameType{FrameMiddle, FrameLast, FrameBulk} {
		if got := ExtendedLengthFieldLen(ft); got != 0 {
			t.Fatalf("expected %v to carry no extended length field, got %d", ft, got)
		}
	}
}

func TestParseExtendedLength(t *testing.T) {
	total, err := ParseExtendedLength(EncodeExtendedLength(17000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 17000 {
		t.Fatalf("expected total=17000, got %d", total)
	}
}

func TestParseExtendedLengthMissing(t *testing.T) {
	if _, err := ParseExtendedLength(nil); err == nil {
		t.Fatal("expected an error when the extended length bytes are missing")
	}
}

func TestFrameTypeTerminalAndInitial(t *testing.T) {
	tests := []struct {
		ft               FrameType
		initial, terminal bool
	}{
		{FrameBulk, true, true},
		{FrameFirst, true, false},
		{FrameMiddle, false, false},
		{FrameLast, false, true},
	}
	for _, tt := range tests {
		if got := tt.ft.IsInitial(); got != tt.initial {
			t.Fatalf("%v.IsInitial() = %v, want %v", tt.ft, got, tt.initial)
		}
		if got := tt.ft.IsTerminal(); got != tt.terminal {
			t.Fatalf("%v.IsTerminal() = %v, want %v", tt.ft, got, tt.terminal)
		}
	}
}
