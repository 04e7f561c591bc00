//go:build rp2040 || rp2350

// Command pico-i2c brings up the board's I²C bus and serves the console on
// UART0.
package main

import (
	"context"
	"machine"
	"time"

	"devicecode-i2c/console"
	"devicecode-i2c/i2c"
	"devicecode-i2c/logging"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// uartReader turns the context-aware receive into an io.Reader and folds
// bare CRs from serial terminals into line ends.
type uartReader struct {
	ctx context.Context
	u   *uartx.UART
}

func (r uartReader) Read(p []byte) (int, error) {
	n, err := r.u.RecvSomeContext(r.ctx, p)
	for i := range p[:n] {
		if p[i] == '\r' {
			p[i] = '\n'
		}
	}
	return n, err
}

func main() {
	time.Sleep(1500 * time.Millisecond)

	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		println("[pico-i2c] uart0 configure failed:", err.Error())
		return
	}
	log := logging.Init(u, "info", "text")

	ctl := i2c.Default()
	if err := ctl.Init(); err != nil {
		log.Error("bus not ready", "err", err)
	}

	ctx := context.Background()
	sh := console.New(ctl, u)
	for {
		if err := sh.Run(ctx, uartReader{ctx: ctx, u: u}); err != nil {
			log.Warn("console stopped", "err", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
