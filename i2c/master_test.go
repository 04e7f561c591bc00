package i2c

import (
	"errors"
	"strings"
	"testing"

	"devicecode-i2c/errcode"
	"devicecode-i2c/x/conv"
)

// recorder is a Master that logs every bus event and answers from a script.
type recorder struct {
	log     []string
	nackOn  map[byte]bool // bytes to NACK
	readVal byte
	failAt  string // event name that returns an error
}

var errLine = errors.New("line stuck")

func (r *recorder) ev(s string) error {
	r.log = append(r.log, s)
	if s == r.failAt {
		return errLine
	}
	return nil
}

func (r *recorder) Start() error { return r.ev("S") }
func (r *recorder) Stop() error  { return r.ev("P") }

func (r *recorder) Send(b byte) error {
	var hb [2]byte
	if err := r.ev(string(conv.U8Hex(hb[:], b))); err != nil {
		return err
	}
	if r.nackOn[b] {
		return errcode.NACK
	}
	return nil
}

func (r *recorder) Recv(ack bool) (byte, error) {
	if ack {
		r.log = append(r.log, "R+")
	} else {
		r.log = append(r.log, "R-")
	}
	r.readVal++
	return r.readVal, nil
}

func TestRunReadSequence(t *testing.T) {
	m := &recorder{}
	buf := make([]byte, 3)
	if err := ReadLink(0x50, 0x22, buf).Run(m); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "S A0 22 S A1 R+ R+ R- P"
	if got := strings.Join(m.log, " "); got != want {
		t.Fatalf("sequence:\n got %s\nwant %s", got, want)
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Fatalf("unexpected data %v", buf)
	}
}

func TestRunAddressNACKIsNoDevice(t *testing.T) {
	m := &recorder{nackOn: map[byte]bool{0xA0: true}}
	err := WriteLink(0x50, 0x00, []byte{1}).Run(m)
	if err != errcode.NoDevice {
		t.Fatalf("expected no_device, got %v", err)
	}
	// The bus is released with a STOP right after the failed address.
	if got := strings.Join(m.log, " "); got != "S A0 P" {
		t.Fatalf("unexpected sequence %q", got)
	}
}

func TestRunDataNACK(t *testing.T) {
	m := &recorder{nackOn: map[byte]bool{0x02: true}}
	err := WriteLink(0x50, 0x00, []byte{1, 2, 3}).Run(m)
	if err != errcode.NACK {
		t.Fatalf("expected nack, got %v", err)
	}
	if got := strings.Join(m.log, " "); got != "S A0 00 01 02 P" {
		t.Fatalf("unexpected sequence %q", got)
	}

	// Without ACK checking the NACK is ignored.
	m = &recorder{nackOn: map[byte]bool{0x02: true}}
	l := NewLink().Start().Address(0x50, DirWrite).Bytes([]byte{1, 2, 3}, false).Stop()
	if err := l.Run(m); err != nil {
		t.Fatalf("unchecked write: %v", err)
	}
}

func TestRunPropagatesDriverErrors(t *testing.T) {
	m := &recorder{failAt: "S"}
	if err := ReadLink(0x50, 0, make([]byte, 1)).Run(m); err != errLine {
		t.Fatalf("expected start error, got %v", err)
	}
	if len(m.log) != 1 {
		t.Fatalf("no STOP expected when START failed, got %v", m.log)
	}
}

func TestMasterBusTx(t *testing.T) {
	m := &recorder{}
	bus := MasterBus(m)

	if err := bus.Tx(0x68, []byte{0x00}, make([]byte, 2)); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if got := strings.Join(m.log, " "); got != "S D0 00 S D1 R+ R- P" {
		t.Fatalf("write+read sequence %q", got)
	}

	m.log = nil
	if err := bus.Tx(0x68, nil, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got := strings.Join(m.log, " "); got != "S D0 P" {
		t.Fatalf("probe sequence %q", got)
	}

	if err := bus.Tx(0x80, nil, nil); err != errcode.InvalidParams {
		t.Fatalf("expected invalid_params for 8-bit address, got %v", err)
	}
}
