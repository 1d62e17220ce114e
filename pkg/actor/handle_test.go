package actor

import "testing"

func TestHandleRoundTrip(t *testing.T) {
	h := MakeHandle(3, 0x00ABCDEF)
	if h.NodeID() != 3 {
		t.Fatalf("NodeID() = %d, want 3", h.NodeID())
	}
	if h.LocalID() != 0x00ABCDEF {
		t.Fatalf("LocalID() = %x, want %x", h.LocalID(), 0x00ABCDEF)
	}

	text := h.String()
	got, ok := ParseHandleText(text)
	if !ok {
		t.Fatalf("ParseHandleText(%q) failed", text)
	}
	if got != h {
		t.Fatalf("round trip = %v, want %v", got, h)
	}
}

func TestParseHandleTextRejectsMalformed(t *testing.T) {
	cases := []string{"", ":", ":1234567", ":123456789", "1234567890", ":GGGGGGGG", ".name"}
	for _, c := range cases {
		if _, ok := ParseHandleText(c); ok {
			t.Errorf("ParseHandleText(%q) unexpectedly succeeded", c)
		}
	}
}

func TestIsNameText(t *testing.T) {
	valid := []string{".a", ".service", ".123456789012345"} // 15 chars after the dot, the max allowed
	for _, v := range valid {
		if !IsNameText(v) {
			t.Errorf("IsNameText(%q) = false, want true", v)
		}
	}
	invalid := []string{"", ".", "noleadingdot", ". leading-space", ".has space", ".012345678901234567"}
	for _, v := range invalid {
		if IsNameText(v) {
			t.Errorf("IsNameText(%q) = true, want false", v)
		}
	}
}

func TestIsLocal(t *testing.T) {
	h := MakeHandle(7, 1)
	if !h.IsLocal(7) {
		t.Fatal("expected IsLocal(7) to be true")
	}
	if h.IsLocal(8) {
		t.Fatal("expected IsLocal(8) to be false")
	}
}
