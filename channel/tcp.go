package channel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	facade "github.com/wippyai/mcu-facade"
)

// ErrClosed is returned by I/O on a closed channel.
var ErrClosed = errors.New("channel closed")

// TCP is a channel over a TCP connection to a serial bridge.
type TCP struct {
	conn        net.Conn
	dial        func(network, address string, timeout time.Duration) (net.Conn, error)
	address     string
	readTimeout time.Duration
	dialTimeout time.Duration
	mu          sync.Mutex
}

// NewTCP returns a closed TCP channel for address (host:port).
func NewTCP(address string, readTimeout time.Duration) *TCP {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &TCP{
		address:     address,
		readTimeout: readTimeout,
		dialTimeout: 5 * time.Second,
		dial:        net.DialTimeout,
	}
}

func (t *TCP) String() string { return "tcp://" + t.address }

func (t *TCP) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}
	c, err := t.dial("tcp", t.address, t.dialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.address, err)
	}
	t.conn = c
	return nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCP) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

func (t *TCP) current() (net.Conn, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, 0, fmt.Errorf("tcp %s: %w", t.address, ErrClosed)
	}
	return t.conn, t.readTimeout, nil
}

// FlushInput drains whatever is already buffered without waiting.
func (t *TCP) FlushInput() error {
	c, _, err := t.current()
	if err != nil {
		return err
	}
	buf := make([]byte, 256)
	for {
		if err := c.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := c.Read(buf)
		if n > 0 {
			continue
		}
		if isTimeout(err) {
			return nil
		}
		return err
	}
}

func (t *TCP) Write(b []byte) (int, error) {
	c, _, err := t.current()
	if err != nil {
		return 0, err
	}
	return c.Write(b)
}

// Read maps a deadline expiry to 0, nil.
func (t *TCP) Read(b []byte) (int, error) {
	c, timeout, err := t.current()
	if err != nil {
		return 0, err
	}
	if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := c.Read(b)
	if n == 0 && isTimeout(err) {
		return 0, nil
	}
	return n, err
}

func (t *TCP) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	t.readTimeout = d
	t.mu.Unlock()
	return nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

var (
	_ facade.Channel       = (*TCP)(nil)
	_ facade.TimeoutSetter = (*TCP)(nil)
)
