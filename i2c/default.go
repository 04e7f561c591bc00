package i2c

import "devicecode-i2c/internal/platform"

// std is the board's primary controller, wired from the build-tag defaults.
var std = New(platform.DefaultConfig())

// Default returns the board's primary controller.
func Default() *Controller { return std }

func Init() error   { return std.Init() }
func Deinit() error { return std.Deinit() }

func Read(addr uint8, reg int, buf []byte) error   { return std.Read(addr, reg, buf) }
func Write(addr uint8, reg int, data []byte) error { return std.Write(addr, reg, data) }
func ReadReg(addr, reg uint8) uint8                { return std.ReadReg(addr, reg) }
func WriteReg(addr, reg, value uint8) error        { return std.WriteReg(addr, reg, value) }
