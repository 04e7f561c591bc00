package i2c

import (
	"bytes"
	"testing"

	"devicecode-i2c/errcode"
)

func TestAddrByte(t *testing.T) {
	if AddrByte(0x50, DirWrite) != 0xA0 || AddrByte(0x50, DirRead) != 0xA1 {
		t.Fatal("address byte encoding mismatch")
	}
	a, d := SplitAddrByte(0xD1)
	if a != 0x68 || d != DirRead {
		t.Fatalf("SplitAddrByte(0xD1) = %#x,%d", a, d)
	}
}

func TestLinkShapes(t *testing.T) {
	buf := make([]byte, 3)
	cases := map[string]struct {
		l    *Link
		want string
	}{
		"read with register": {ReadLink(0x50, 0x22, buf), "S A0 22 S A1 R3 P"},
		"read raw":           {ReadLink(0x50, NoRegister, buf), "S A1 R3 P"},
		"read negative reg":  {ReadLink(0x50, -7, buf[:1]), "S A1 R1 P"},
		"write with reg":     {WriteLink(0x68, 0x0E, []byte{0x1C, 0x00}), "S D0 0E 1C 00 P"},
		"write raw":          {WriteLink(0x68, NoRegister, []byte{0xBE}), "S D0 BE P"},
		"probe":              {WriteLink(0x3C, NoRegister, nil), "S 78 P"},
	}
	for name, c := range cases {
		if got := c.l.String(); got != c.want {
			t.Fatalf("%s: got %q, want %q", name, got, c.want)
		}
	}
}

func TestReadLinkUsesLastNACK(t *testing.T) {
	cmds := ReadLink(0x50, 0, make([]byte, 2)).Commands()
	var rd *Command
	for i := range cmds {
		if cmds[i].Op == OpRead {
			rd = &cmds[i]
		}
		if cmds[i].Op == OpWrite && !cmds[i].AckCheck {
			t.Fatalf("write step %d without ACK check", i)
		}
	}
	if rd == nil || !rd.LastNACK {
		t.Fatal("read step must NACK the last byte")
	}
}

func TestLinkTx(t *testing.T) {
	buf := make([]byte, 4)
	addr, w, r, err := ReadLink(0x50, 0x10, buf).Tx()
	if err != nil || addr != 0x50 || !bytes.Equal(w, []byte{0x10}) || len(r) != 4 {
		t.Fatalf("read flatten: addr=%#x w=%x r=%d err=%v", addr, w, len(r), err)
	}
	r[0] = 0xAA
	if buf[0] != 0xAA {
		t.Fatal("flattened read must alias the caller buffer")
	}

	addr, w, r, err = WriteLink(0x68, 0x00, []byte{1, 2, 3}).Tx()
	if err != nil || addr != 0x68 || !bytes.Equal(w, []byte{0, 1, 2, 3}) || r != nil {
		t.Fatalf("write flatten: addr=%#x w=%x r=%v err=%v", addr, w, r, err)
	}

	addr, w, r, err = ReadLink(0x38, NoRegister, buf).Tx()
	if err != nil || addr != 0x38 || len(w) != 0 || len(r) != 4 {
		t.Fatalf("raw read flatten: addr=%#x w=%x r=%d err=%v", addr, w, len(r), err)
	}

	addr, w, r, err = WriteLink(0x3C, NoRegister, nil).Tx()
	if err != nil || addr != 0x3C || len(w) != 0 || len(r) != 0 {
		t.Fatalf("probe flatten: addr=%#x w=%x r=%v err=%v", addr, w, r, err)
	}
}

func TestLinkTxRejectsOtherShapes(t *testing.T) {
	cases := map[string]*Link{
		"no stop":         NewLink().Start().Address(0x50, DirWrite),
		"empty":           NewLink(),
		"two addresses":   NewLink().Start().Address(0x50, DirWrite).Start().Address(0x51, DirRead).Recv(make([]byte, 1), true).Stop(),
		"write after rd":  NewLink().Start().Address(0x50, DirRead).Recv(make([]byte, 1), true).Start().Address(0x50, DirWrite).Stop(),
		"ack last byte":   NewLink().Start().Address(0x50, DirRead).Recv(make([]byte, 1), false).Stop(),
		"data before adr": NewLink().Start().Byte(0x00, true).Stop(),
		"after stop":      NewLink().Start().Address(0x50, DirWrite).Stop().Byte(1, true),
	}
	for name, l := range cases {
		if _, _, _, err := l.Tx(); err != errcode.Unsupported {
			t.Fatalf("%s: expected unsupported, got %v", name, err)
		}
	}
}
