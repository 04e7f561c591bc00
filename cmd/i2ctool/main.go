// Command i2ctool drives an I²C bus from the host.
//
//	i2ctool --device /dev/i2c-1 scan
//	i2ctool --config i2c.yaml read 0x68 0x00 7
//	i2ctool --sim            # interactive shell on a simulated bus
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"devicecode-i2c/config"
	"devicecode-i2c/console"
	"devicecode-i2c/drivers/ds3231"
	"devicecode-i2c/i2c"
	"devicecode-i2c/i2c/i2csim"
	"devicecode-i2c/logging"

	"github.com/spf13/cobra"
)

type options struct {
	config    string
	device    string
	port      string
	sda, scl  int
	freq      uint32
	timeout   time.Duration
	sim       bool
	logLevel  string
	logFormat string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "i2ctool [command...]",
		Short: "Read, write and scan an I²C bus",
		Long: "Run one console command given as arguments, or start an interactive " +
			"shell on stdin when none is given. Type 'help' in the shell for the command list.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, opts)
			if err != nil {
				return err
			}
			log := logging.Init(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

			copts := []i2c.Option{i2c.WithLogger(log.With("component", "i2c"))}
			if opts.sim {
				copts = append(copts, i2c.WithOpener(simBus().Opener()))
			}
			ctl := i2c.New(cfg.I2C, copts...)
			defer ctl.Deinit()

			sh := console.New(ctl, out)
			if len(args) > 0 {
				if err := ctl.Init(); err != nil {
					return err
				}
				return sh.Exec(strings.Join(args, " "))
			}
			// Interactive: a failed Init is reported and can be retried from the shell.
			if err := ctl.Init(); err != nil {
				log.Warn("bus not ready", "err", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return sh.Run(ctx, in)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "YAML configuration file")
	f.StringVarP(&opts.device, "device", "d", "", "i2c-dev node, e.g. /dev/i2c-1")
	f.StringVarP(&opts.port, "port", "p", "", "controller, e.g. i2c1")
	f.IntVar(&opts.sda, "sda", -1, "SDA pin")
	f.IntVar(&opts.scl, "scl", -1, "SCL pin")
	f.Uint32VarP(&opts.freq, "freq", "f", 0, "bus frequency in Hz")
	f.DurationVarP(&opts.timeout, "timeout", "t", 0, "per-transaction timeout")
	f.BoolVar(&opts.sim, "sim", false, "use a simulated bus with an EEPROM at 0x50 and an RTC at 0x68")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", "", "text or json")
	return cmd
}

// resolve layers explicitly set flags over the config file (or defaults).
func resolve(cmd *cobra.Command, o options) (config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	if f.Changed("device") {
		cfg.I2C.Device = o.device
	}
	if f.Changed("port") {
		cfg.I2C.Port = o.port
	}
	if f.Changed("sda") {
		cfg.I2C.SDA = o.sda
	}
	if f.Changed("scl") {
		cfg.I2C.SCL = o.scl
	}
	if f.Changed("freq") {
		cfg.I2C.Frequency = o.freq
	}
	if f.Changed("timeout") {
		cfg.I2C.Timeout = o.timeout
	}
	if f.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if o.sim && !cfg.I2C.Available() {
		cfg.I2C.SDA, cfg.I2C.SCL = 4, 5
	}
	cfg.I2C = cfg.I2C.WithDefaults()
	return cfg, cfg.Validate()
}

func simBus() *i2csim.Bus {
	bus := i2csim.NewBus()
	bus.Attach(0x50, i2csim.NewDevice())
	bus.Attach(ds3231.Address, i2csim.NewDevice())
	return bus
}

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("i2ctool failed", "err", err)
		os.Exit(1)
	}
}
