package facade

import (
	"context"
	"time"
)

// Channel is a byte-oriented full-duplex link to a device, typically a
// serial port. Read blocks for at most the channel's read timeout and
// returns fewer bytes (possibly none) when it expires.
type Channel interface {
	Open() error
	Close() error
	IsOpen() bool
	// FlushInput discards any bytes received but not yet read.
	FlushInput() error
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
}

// TimeoutSetter is implemented by channels whose read timeout can be changed.
type TimeoutSetter interface {
	SetReadTimeout(d time.Duration) error
}

// Port performs device memory transactions in the 16-bit protocol
// address space. Implemented by protocol.Engine.
type Port interface {
	// GetData reads length bytes starting at address.
	GetData(ctx context.Context, address uint16, length int) ([]byte, error)
	// SetData writes data starting at address. It reports whether the
	// device accepted the change.
	SetData(ctx context.Context, address uint16, data []byte) (bool, error)
}

// MaxTransfer is the largest payload one GET or SET can carry.
const MaxTransfer = 255
