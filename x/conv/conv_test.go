package conv

import "testing"

func TestHex(t *testing.T) {
	var b [2]byte
	if got := string(U8Hex(b[:], 0xA5)); got != "A5" {
		t.Fatalf("U8Hex = %q", got)
	}
	if got := U8Hex(b[:1], 0xA5); len(got) != 0 {
		t.Fatalf("short buffer should yield empty slice, got %q", got)
	}
	if got := Addr(0x08); got != "0x08" {
		t.Fatalf("Addr = %q", got)
	}
	for v, want := range map[uint16]string{0x50: "0x50", 0x150: "0x0150", 0xFFFF: "0xFFFF"} {
		if got := Addr16(v); got != want {
			t.Fatalf("Addr16(%#x) = %q, want %q", v, got, want)
		}
	}
	if got := string(AppendHex([]byte("> "), []byte{0x00, 0x7F, 0xFF})); got != "> 00 7F FF" {
		t.Fatalf("AppendHex = %q", got)
	}
}

func TestItoa(t *testing.T) {
	var b [20]byte
	for n, want := range map[int64]string{0: "0", 7: "7", 256: "256", -42: "-42"} {
		if got := string(Itoa(b[:], n)); got != want {
			t.Fatalf("Itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
