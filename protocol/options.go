package protocol

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/mcu-facade/trace"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to Logger().
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRecorder records every transaction.
func WithRecorder(r trace.Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// WithThroughputLimit pauses for d after each command is transmitted,
// for devices with small receive buffers.
func WithThroughputLimit(d time.Duration) Option {
	return func(e *Engine) { e.throttle = d }
}

// DefaultThroughputPause is the pause used by slow reference hardware.
const DefaultThroughputPause = 50 * time.Millisecond

// WithName labels the engine's channel in logs.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithClock replaces time.Now and time.Sleep, for tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(e *Engine) {
		e.now = now
		e.sleep = sleep
	}
}
