// Package console is a line-oriented shell over the I²C HAL, used on the
// host through stdin and on the MCU through the debug UART.
//
//	> init
//	> scan
//	found 0x50 0x68
//	> read 0x50 0x00 4
//	DE AD BE EF
//	> write 0x50 0x00 0x01 0x02   # comments are allowed
package console

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"devicecode-i2c/drivers/aht20"
	"devicecode-i2c/drivers/ds3231"
	"devicecode-i2c/errcode"
	"devicecode-i2c/i2c"
	"devicecode-i2c/x/conv"

	"github.com/google/shlex"
)

const help = `commands:
  init | deinit | status
  read  <addr> <reg|-> <n>
  write <addr> <reg|-> <byte>...
  rb    <addr> <reg>
  wb    <addr> <reg> <byte>
  scan
  rtc [set <RFC3339>]
  aht
`

// Shell executes console commands against one controller.
type Shell struct {
	ctl *i2c.Controller
	out io.Writer
	rtc *ds3231.Device
	aht *aht20.Device
}

func New(ctl *i2c.Controller, out io.Writer) *Shell {
	return &Shell{ctl: ctl, out: out, rtc: ds3231.New(ctl), aht: aht20.New(ctl)}
}

// Run reads lines from in until EOF or ctx is cancelled. Command errors are
// printed and do not stop the loop. Cancellation returns at once even while
// a read is pending; that read's goroutine ends when in delivers or closes.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- sc.Err()
	}()

	s.print("> ")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case line := <-lines:
			if err := s.Exec(line); err != nil {
				s.print("error: " + err.Error() + "\n")
			}
			s.print("> ")
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "parse", Err: err}
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help", "?":
		s.print(help)
		return nil
	case "init":
		return s.ctl.Init()
	case "deinit":
		return s.ctl.Deinit()
	case "status":
		return s.status()
	case "read":
		return s.read(args)
	case "write":
		return s.write(args)
	case "rb":
		return s.readReg(args)
	case "wb":
		return s.writeReg(args)
	case "scan":
		return s.scan()
	case "rtc":
		return s.clock(args)
	case "aht":
		return s.climate()
	}
	return &errcode.E{C: errcode.InvalidParams, Op: cmd, Msg: "unknown command"}
}

func (s *Shell) status() error {
	c := s.ctl.Config()
	var b []byte
	if s.ctl.Initialized() {
		b = append(b, "up"...)
	} else {
		b = append(b, "down"...)
	}
	b = append(b, " port="...)
	b = append(b, c.Port...)
	if c.Device != "" {
		b = append(b, " device="...)
		b = append(b, c.Device...)
	}
	b = append(b, " sda="...)
	b = strconv.AppendInt(b, int64(c.SDA), 10)
	b = append(b, " scl="...)
	b = strconv.AppendInt(b, int64(c.SCL), 10)
	b = append(b, " hz="...)
	b = strconv.AppendUint(b, uint64(c.Frequency), 10)
	b = append(b, " timeout="...)
	b = append(b, c.Timeout.String()...)
	b = append(b, '\n')
	s.print(string(b))
	return nil
}

func (s *Shell) read(args []string) error {
	if len(args) != 3 {
		return usage("read")
	}
	addr, reg, err := addrReg(args[0], args[1])
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(args[2], 0, 8)
	if err != nil || n == 0 {
		return usage("read")
	}
	buf := make([]byte, n)
	if err := s.ctl.Read(addr, reg, buf); err != nil {
		return err
	}
	s.print(string(conv.AppendHex(nil, buf)) + "\n")
	return nil
}

func (s *Shell) write(args []string) error {
	if len(args) < 2 {
		return usage("write")
	}
	addr, reg, err := addrReg(args[0], args[1])
	if err != nil {
		return err
	}
	data := make([]byte, 0, len(args)-2)
	for _, a := range args[2:] {
		v, err := parseByte(a)
		if err != nil {
			return err
		}
		data = append(data, v)
	}
	return s.ctl.Write(addr, reg, data)
}

func (s *Shell) readReg(args []string) error {
	if len(args) != 2 {
		return usage("rb")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	reg, err := parseByte(args[1])
	if err != nil {
		return err
	}
	// ReadReg folds failures into 0; use Read so the shell can report them.
	var v [1]byte
	if err := s.ctl.Read(addr, int(reg), v[:]); err != nil {
		return err
	}
	s.print(conv.Addr(v[0]) + "\n")
	return nil
}

func (s *Shell) writeReg(args []string) error {
	if len(args) != 3 {
		return usage("wb")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	reg, err := parseByte(args[1])
	if err != nil {
		return err
	}
	v, err := parseByte(args[2])
	if err != nil {
		return err
	}
	return s.ctl.WriteReg(addr, reg, v)
}

func (s *Shell) scan() error {
	found, err := s.ctl.Scan()
	if err != nil {
		return err
	}
	if len(found) == 0 {
		s.print("no devices\n")
		return nil
	}
	line := "found"
	for _, a := range found {
		line += " " + conv.Addr(a)
	}
	s.print(line + "\n")
	return nil
}

func (s *Shell) clock(args []string) error {
	switch {
	case len(args) == 0:
		t, err := s.rtc.ReadTime()
		if err != nil {
			return err
		}
		s.print(t.Format(time.RFC3339) + "\n")
		return nil
	case len(args) == 2 && args[0] == "set":
		t, err := time.Parse(time.RFC3339, args[1])
		if err != nil {
			return &errcode.E{C: errcode.InvalidParams, Op: "rtc", Err: err}
		}
		return s.rtc.SetTime(t)
	}
	return usage("rtc")
}

func (s *Shell) climate() error {
	if err := s.aht.Init(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := s.aht.Measure(ctx)
	if err != nil {
		return err
	}
	s.print(deci(m.DeciCelsius()) + "C " + deci(m.DeciRelHumidity()) + "%RH\n")
	return nil
}

// deci renders tenths as "-1.5".
func deci(v int32) string {
	var b []byte
	if v < 0 {
		b = append(b, '-')
		v = -v
	}
	b = strconv.AppendInt(b, int64(v/10), 10)
	b = append(b, '.', byte('0'+v%10))
	return string(b)
}

func (s *Shell) print(str string) { _, _ = io.WriteString(s.out, str) }

func usage(cmd string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: cmd, Msg: "usage, see help"}
}

func addrReg(a, r string) (uint8, int, error) {
	addr, err := parseAddr(a)
	if err != nil {
		return 0, 0, err
	}
	if r == "-" {
		return addr, i2c.NoRegister, nil
	}
	reg, err := parseByte(r)
	if err != nil {
		return 0, 0, err
	}
	return addr, int(reg), nil
}

func parseAddr(s string) (uint8, error) {
	v, err := parseByte(s)
	if err != nil || v > i2c.MaxAddr {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "parse", Msg: "bad address " + s}
	}
	return v, nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "parse", Msg: "bad byte " + s}
	}
	return uint8(v), nil
}
