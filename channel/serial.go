package channel

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	facade "github.com/wippyai/mcu-facade"
)

// DefaultReadTimeout bounds every read when no timeout is configured.
const DefaultReadTimeout = time.Second

// SerialConfig describes a serial line.
type SerialConfig struct {
	Port        string        `yaml:"port" toml:"port"`
	Parity      string        `yaml:"parity" toml:"parity"` // none, odd, even, mark, space
	BaudRate    int           `yaml:"baud" toml:"baud"`
	DataBits    int           `yaml:"data_bits" toml:"data_bits"`
	StopBits    int           `yaml:"stop_bits" toml:"stop_bits"` // 1 or 2
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`
}

// DefaultSerialConfig returns 115200 baud 8N1 on port.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:        port,
		BaudRate:    115200,
		DataBits:    8,
		Parity:      "none",
		StopBits:    1,
		ReadTimeout: DefaultReadTimeout,
	}
}

func (c SerialConfig) mode() (*serial.Mode, error) {
	m := &serial.Mode{BaudRate: c.BaudRate, DataBits: c.DataBits}
	if m.BaudRate == 0 {
		m.BaudRate = 115200
	}
	if m.DataBits == 0 {
		m.DataBits = 8
	}
	switch strings.ToLower(c.Parity) {
	case "", "none", "n":
		m.Parity = serial.NoParity
	case "odd", "o":
		m.Parity = serial.OddParity
	case "even", "e":
		m.Parity = serial.EvenParity
	case "mark", "m":
		m.Parity = serial.MarkParity
	case "space", "s":
		m.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("unknown parity %q", c.Parity)
	}
	switch c.StopBits {
	case 0, 1:
		m.StopBits = serial.OneStopBit
	case 2:
		m.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", c.StopBits)
	}
	return m, nil
}

// Serial is a serial port channel.
type Serial struct {
	port serial.Port
	cfg  SerialConfig
	mu   sync.Mutex
}

// NewSerial returns a closed serial channel.
func NewSerial(cfg SerialConfig) *Serial {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Serial{cfg: cfg}
}

// OpenSerial creates and opens a serial channel.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	s := NewSerial(cfg)
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *Serial) String() string { return s.cfg.Port }

func (s *Serial) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}
	mode, err := s.cfg.mode()
	if err != nil {
		return fmt.Errorf("serial %s: %w", s.cfg.Port, err)
	}
	p, err := serial.Open(s.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("open serial %s: %w", s.cfg.Port, err)
	}
	if err := p.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return fmt.Errorf("serial %s read timeout: %w", s.cfg.Port, err)
	}
	s.port = p
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return fmt.Errorf("close serial %s: %w", s.cfg.Port, err)
	}
	return nil
}

func (s *Serial) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

func (s *Serial) current() (serial.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, fmt.Errorf("serial %s: %w", s.cfg.Port, ErrClosed)
	}
	return s.port, nil
}

func (s *Serial) FlushInput() error {
	p, err := s.current()
	if err != nil {
		return err
	}
	return p.ResetInputBuffer()
}

func (s *Serial) Write(b []byte) (int, error) {
	p, err := s.current()
	if err != nil {
		return 0, err
	}
	return p.Write(b)
}

// Read returns 0, nil when the read timeout expires.
func (s *Serial) Read(b []byte) (int, error) {
	p, err := s.current()
	if err != nil {
		return 0, err
	}
	return p.Read(b)
}

// SetReadTimeout changes the timeout, applying it at once if open.
func (s *Serial) SetReadTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ReadTimeout = d
	if s.port != nil {
		return s.port.SetReadTimeout(d)
	}
	return nil
}

var (
	_ facade.Channel       = (*Serial)(nil)
	_ facade.TimeoutSetter = (*Serial)(nil)
)
