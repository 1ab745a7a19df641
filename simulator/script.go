package simulator

import (
	"errors"
	"sync"

	facade "github.com/wippyai/mcu-facade"
)

var errClosed = errors.New("simulator: channel closed")

// Script is a channel that answers each Write with the next canned reply
// and records everything written.
type Script struct {
	replies [][]byte
	written [][]byte
	rx      []byte
	// ReadErr, when set, is returned by every Read.
	ReadErr error
	open    bool
	flushes int
	mu      sync.Mutex
}

// NewScript returns an open script replaying replies in order.
func NewScript(replies ...[]byte) *Script {
	return &Script{replies: replies, open: true}
}

// Stale queues bytes as if they arrived before the next command.
func (s *Script) Stale(b ...byte) {
	s.mu.Lock()
	s.rx = append(s.rx, b...)
	s.mu.Unlock()
}

func (s *Script) Open() error {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

func (s *Script) Close() error {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}

func (s *Script) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Script) FlushInput() error {
	s.mu.Lock()
	s.rx = nil
	s.flushes++
	s.mu.Unlock()
	return nil
}

func (s *Script) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, errClosed
	}
	s.written = append(s.written, append([]byte(nil), p...))
	if len(s.replies) > 0 {
		s.rx = append(s.rx, s.replies[0]...)
		s.replies = s.replies[1:]
	}
	return len(p), nil
}

func (s *Script) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return 0, s.ReadErr
	}
	n := copy(p, s.rx)
	s.rx = s.rx[n:]
	return n, nil
}

// Written returns each Write call's bytes.
func (s *Script) Written() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.written...)
}

// Flushes returns how many times FlushInput was called.
func (s *Script) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

var _ facade.Channel = (*Script)(nil)
