package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	facade "github.com/wippyai/mcu-facade"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/trace"
)

// Engine performs GET and SET transactions over a byte channel.
// Safe for concurrent use; transactions never interleave.
type Engine struct {
	ch    facade.Channel
	log   *zap.Logger
	rec   trace.Recorder
	now   func() time.Time
	sleep func(time.Duration)
	name  string
	id    uuid.UUID

	throttle time.Duration
	seq      uint64
	buf      [1]byte
	// mu serializes transactions. state guards open and close only, so
	// Close can interrupt a transaction blocked on a read.
	mu    sync.Mutex
	state sync.Mutex
}

// New creates an engine on ch. The channel is not opened.
func New(ch facade.Channel, opts ...Option) *Engine {
	e := &Engine{
		ch:    ch,
		id:    uuid.New(),
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = Logger()
	}
	fields := []zap.Field{zap.String("engine", e.id.String())}
	if e.name != "" {
		fields = append(fields, zap.String("channel", e.name))
	}
	e.log = e.log.With(fields...)
	return e
}

// ID returns the engine instance identifier used in logs and traces.
func (e *Engine) ID() uuid.UUID { return e.id }

// Open opens the channel if it is not already open.
func (e *Engine) Open() error {
	e.state.Lock()
	defer e.state.Unlock()
	if e.ch.IsOpen() {
		return nil
	}
	if err := e.ch.Open(); err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "open channel")
	}
	e.log.Debug("channel opened")
	return nil
}

// Close closes the channel. Closing a closed engine is a no-op. A
// transaction in flight fails with a transport error.
func (e *Engine) Close() error {
	e.state.Lock()
	defer e.state.Unlock()
	if !e.ch.IsOpen() {
		return nil
	}
	if err := e.ch.Close(); err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "close channel")
	}
	e.log.Debug("channel closed")
	return nil
}

// IsOpen reports whether the channel is open.
func (e *Engine) IsOpen() bool {
	return e.ch.IsOpen()
}

// Session opens the engine, runs fn and closes it again on every exit
// path, panics included. A close failure is returned only if fn succeeded.
func (e *Engine) Session(fn func(*Engine) error) (err error) {
	if err := e.Open(); err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(e)
}

// GetData reads length bytes at address. A NACK after the data is an
// error; the data is not returned.
func (e *Engine) GetData(ctx context.Context, address uint16, length int) ([]byte, error) {
	if length < 1 || length > facade.MaxTransfer {
		return nil, errors.New(errors.PhaseProtocol, errors.KindInvalidInput).
			Txn("GET", address, length).
			Detail("length must be in [1, %d]", facade.MaxTransfer).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	data, outcome, err := e.get(ctx, address, length)
	e.record(trace.OpGet, address, length, data, outcome, err, start)
	if err != nil {
		return nil, errors.WithTxn(err, "GET", address, length)
	}
	return data, nil
}

// SetData writes data at address and reports whether the device accepted
// it. A NACK is not an error.
func (e *Engine) SetData(ctx context.Context, address uint16, data []byte) (bool, error) {
	if len(data) < 1 || len(data) > facade.MaxTransfer {
		return false, errors.New(errors.PhaseProtocol, errors.KindInvalidInput).
			Txn("SET", address, len(data)).
			Detail("payload must be 1 to %d bytes", facade.MaxTransfer).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	outcome, err := e.set(ctx, address, data)
	e.record(trace.OpSet, address, len(data), data, outcome, err, start)
	if err != nil {
		return false, errors.WithTxn(err, "SET", address, len(data))
	}
	return outcome == trace.OutcomeAck, nil
}

func (e *Engine) get(ctx context.Context, address uint16, length int) ([]byte, trace.Outcome, error) {
	if err := e.begin(ctx, EncodeGet(address, length)); err != nil {
		return nil, trace.OutcomeError, err
	}

	data := make([]byte, 0, length)
	for len(data) < length {
		b, err := e.readByte()
		if err != nil {
			return data, trace.OutcomeError, err
		}
		switch b {
		case ACK:
			return data, trace.OutcomeError, errors.Framing("ACK after %d of %d data bytes", len(data), length)
		case NACK:
			e.log.Warn("device rejected read",
				zap.Uint16("address", address), zap.Int("received", len(data)), zap.Int("length", length))
			return data, trace.OutcomeNack, errors.DeviceRejected(
				fmt.Sprintf("NACK after %d of %d data bytes", len(data), length))
		case ESC:
			d, err := e.readEscaped()
			if err != nil {
				return data, trace.OutcomeError, err
			}
			data = append(data, d)
		default:
			data = append(data, b)
		}
	}

	b, err := e.readByte()
	if err != nil {
		return data, trace.OutcomeError, err
	}
	switch b {
	case ACK:
		e.log.Debug("rx", zap.Uint16("address", address), zap.Binary("data", data))
		return data, trace.OutcomeAck, nil
	case NACK:
		e.log.Warn("device rejected read", zap.Uint16("address", address), zap.Int("length", length))
		return data, trace.OutcomeNack, errors.DeviceRejected("NACK after data")
	default:
		return data, trace.OutcomeError, errors.Framing("expected ACK or NACK after data, got 0x%02X", b)
	}
}

func (e *Engine) set(ctx context.Context, address uint16, data []byte) (trace.Outcome, error) {
	if err := e.begin(ctx, EncodeSet(address, data)); err != nil {
		return trace.OutcomeError, err
	}
	b, err := e.readByte()
	if err != nil {
		return trace.OutcomeError, err
	}
	switch b {
	case ACK:
		return trace.OutcomeAck, nil
	case NACK:
		e.log.Warn("device rejected write", zap.Uint16("address", address), zap.Int("length", len(data)))
		return trace.OutcomeNack, nil
	default:
		return trace.OutcomeError, errors.Framing("expected ACK or NACK, got 0x%02X", b)
	}
}

// begin flushes stale input and transmits cmd. Called with mu held.
func (e *Engine) begin(ctx context.Context, cmd []byte) error {
	if !e.ch.IsOpen() {
		return errors.Closed(errors.PhaseTransport, "channel")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.ch.FlushInput(); err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "flush input")
	}
	e.log.Debug("tx", zap.Binary("cmd", cmd))
	for len(cmd) > 0 {
		n, err := e.ch.Write(cmd)
		if err != nil {
			return errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "write")
		}
		if n == 0 {
			return errors.New(errors.PhaseTransport, errors.KindIO).Detail("write made no progress").Build()
		}
		cmd = cmd[n:]
	}
	if e.throttle > 0 {
		e.sleep(e.throttle)
	}
	return nil
}

func (e *Engine) readByte() (byte, error) {
	n, err := e.ch.Read(e.buf[:])
	if err != nil {
		if !e.ch.IsOpen() {
			return 0, errors.Wrap(errors.PhaseTransport, errors.KindClosed, err, "channel closed during read")
		}
		return 0, errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "read")
	}
	if n == 0 {
		if !e.ch.IsOpen() {
			return 0, errors.Closed(errors.PhaseTransport, "channel")
		}
		e.log.Warn("timeout waiting for device")
		return 0, errors.Timeout("no byte within read timeout")
	}
	return e.buf[0], nil
}

func (e *Engine) readEscaped() (byte, error) {
	b, err := e.readByte()
	if err != nil {
		return 0, err
	}
	d := UnescapeByte(b)
	if !IsDeviceReserved(d) {
		return 0, errors.Framing("invalid escape sequence 1B %02X", b)
	}
	e.log.Debug("escape", zap.Uint8("byte", d))
	return d, nil
}

func (e *Engine) record(op trace.Op, address uint16, length int, data []byte, outcome trace.Outcome, err error, start time.Time) {
	if e.rec == nil {
		return
	}
	e.seq++
	ev := trace.Event{
		Timestamp: start,
		Engine:    e.id.String(),
		Seq:       e.seq,
		Op:        op,
		Address:   address,
		Length:    length,
		Data:      append([]byte(nil), data...),
		Outcome:   outcome,
		Duration:  e.now().Sub(start),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	e.rec.Record(ev)
}

var _ facade.Port = (*Engine)(nil)
