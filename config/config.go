// Package config loads the I²C tool configuration from YAML.
//
//	i2c:
//	  port: i2c1
//	  device: /dev/i2c-1
//	  sda: 2
//	  scl: 3
//	  frequency: 100000
//	  timeout: 500ms
//	log:
//	  level: info
//	  format: text
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"devicecode-i2c/errcode"
	"devicecode-i2c/internal/platform"
	"devicecode-i2c/logging"
	"devicecode-i2c/types"
	"devicecode-i2c/x/mathx"

	"gopkg.in/yaml.v3"
)

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	I2C types.I2CConfig `yaml:"i2c"`
	Log Log             `yaml:"log"`
}

// Default returns the board defaults with info-level text logging.
func Default() Config {
	return Config{
		I2C: platform.DefaultConfig(),
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes YAML over Default, applies I²C defaults and validates.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &errcode.E{C: errcode.InvalidParams, Op: "config", Err: err}
	}
	cfg.I2C = cfg.I2C.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that WithDefaults cannot repair.
func (c Config) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: msg}
	}
	if !strings.HasPrefix(c.I2C.Port, "i2c") {
		return bad("port must be i2cN")
	}
	if c.I2C.SDA < types.NoPin || c.I2C.SCL < types.NoPin {
		return bad("sda/scl must be a GPIO number or -1")
	}
	if c.I2C.SDA >= 0 && c.I2C.SDA == c.I2C.SCL {
		return bad("sda and scl must differ")
	}
	if !mathx.Between(c.I2C.Frequency, types.MinFrequency, types.MaxFrequency) {
		return bad("frequency out of range")
	}
	if c.I2C.Timeout <= 0 {
		return bad("timeout must be positive")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return bad("unknown log level " + c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return bad("log format must be text or json")
	}
	return nil
}
