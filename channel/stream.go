package channel

import (
	"io"
	"sync"

	facade "github.com/wippyai/mcu-facade"
)

// Stream adapts an io.ReadWriter, such as one end of a pipe, into a
// channel. Open and Close only toggle state unless the stream is an
// io.Closer; FlushInput is a no-op.
type Stream struct {
	rw   io.ReadWriter
	open bool
	mu   sync.Mutex
}

// NewStream returns an open channel over rw.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{rw: rw, open: true}
}

func (s *Stream) Open() error {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Stream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Stream) FlushInput() error { return nil }

func (s *Stream) Write(p []byte) (int, error) {
	if !s.IsOpen() {
		return 0, ErrClosed
	}
	return s.rw.Write(p)
}

// Read maps io.EOF to a timeout.
func (s *Stream) Read(p []byte) (int, error) {
	if !s.IsOpen() {
		return 0, ErrClosed
	}
	n, err := s.rw.Read(p)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

var _ facade.Channel = (*Stream)(nil)
