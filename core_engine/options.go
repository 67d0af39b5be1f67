package core_engine

import (
	"log/slog"
	"os"

	"github.com/dtaco/nand-core/core_engine/devices"
	"github.com/dtaco/nand-core/internal/telemetry"
)

// Config carries the driver's small set of tunables. Unlike the reference
// artefact's compile-time constants, this implementation exposes them as
// functional options on NewDriver, mirroring the teacher's
// constructor-with-dependencies style (NewRTCDevice, NewVCPU) generalized
// to variadic options because this driver has more optional knobs than any
// single teacher constructor took.
type Config struct {
	PreferIRQ    bool
	IRQPortDepth int
	Logger       *slog.Logger
	IRQSource    devices.IRQSource
}

func defaultConfig() Config {
	return Config{
		PreferIRQ:    true,
		IRQPortDepth: 4,
		Logger:       telemetry.New(os.Stderr, slog.LevelInfo),
	}
}

// Option configures a Driver at construction time.
type Option func(*Config)

// WithPolling disables the IRQ-preferred completion path for Page I/O
// commands, which then busy-poll the execute bit instead. Initialize's
// reset command still requests an IRQ and waits on the IRQ port.
func WithPolling() Option {
	return func(c *Config) { c.PreferIRQ = false }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithIRQSource wires a background interrupt source (e.g. hal.UIOIRQSource)
// that Initialize starts and a failed/closed Driver stops again.
func WithIRQSource(src devices.IRQSource) Option {
	return func(c *Config) { c.IRQSource = src }
}

// WithIRQPortDepth overrides the IRQ port's buffer depth; the reference
// depth is 4 and should not normally be changed.
func WithIRQPortDepth(depth int) Option {
	return func(c *Config) { c.IRQPortDepth = depth }
}
