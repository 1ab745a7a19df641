package simulator

import (
	"sync"

	facade "github.com/wippyai/mcu-facade"
	"github.com/wippyai/mcu-facade/protocol"
)

// Range is an inclusive protocol address range.
type Range struct {
	Lo, Hi uint16
}

func (r Range) overlaps(address uint16, length int) bool {
	if length <= 0 {
		return false
	}
	end := uint32(address) + uint32(length) - 1
	return uint32(r.Lo) <= end && uint32(address) <= uint32(r.Hi)
}

// Stats counts transactions seen by a Device.
type Stats struct {
	Gets   int
	Sets   int
	Nacks  int
	Errors int
}

type parseState uint8

const (
	stateIdle parseState = iota
	stateHeader
	statePayload
)

// Device is an in-memory firmware emulator.
type Device struct {
	mem [1 << 16]byte

	rejectReads  []Range
	rejectWrites []Range
	getsAt       map[uint16]int
	setsAt       map[uint16]int

	out    []byte
	frame  []byte
	stats  Stats
	cmd    byte
	state  parseState
	escape bool
	open   bool
	mute   bool
	mu     sync.Mutex
}

// New returns a closed device with zeroed memory.
func New() *Device {
	return &Device{
		getsAt: make(map[uint16]int),
		setsAt: make(map[uint16]int),
	}
}

func (d *Device) Open() error {
	d.mu.Lock()
	d.open = true
	d.mu.Unlock()
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	d.open = false
	d.reset()
	d.out = nil
	d.mu.Unlock()
	return nil
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Device) FlushInput() error {
	d.mu.Lock()
	d.out = d.out[:0]
	d.mu.Unlock()
	return nil
}

// Write feeds host bytes to the command parser.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, errClosed
	}
	for _, b := range p {
		d.feed(b)
	}
	return len(p), nil
}

// Read returns pending response bytes. With nothing pending it returns
// 0, nil at once, which the engine treats as a timeout.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, errClosed
	}
	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

func (d *Device) reset() {
	d.state = stateIdle
	d.frame = d.frame[:0]
	d.escape = false
}

func (d *Device) feed(b byte) {
	if d.state == stateIdle {
		if b == protocol.GET || b == protocol.SET {
			d.cmd = b
			d.state = stateHeader
			d.frame = d.frame[:0]
		}
		return
	}

	if d.escape {
		d.escape = false
		b = protocol.UnescapeByte(b)
		if !protocol.IsHostReserved(b) {
			d.stats.Errors++
			d.respond(protocol.NACK)
			d.reset()
			return
		}
	} else if b == protocol.ESC {
		d.escape = true
		return
	}

	d.frame = append(d.frame, b)
	if len(d.frame) < 3 {
		return
	}
	address := uint16(d.frame[0]) | uint16(d.frame[1])<<8
	length := int(d.frame[2])

	if d.cmd == protocol.GET {
		d.get(address, length)
		d.reset()
		return
	}
	d.state = statePayload
	if len(d.frame) == 3+length {
		d.set(address, d.frame[3:])
		d.reset()
	}
}

func (d *Device) get(address uint16, length int) {
	d.stats.Gets++
	d.getsAt[address]++
	if d.mute {
		return
	}
	data := d.span(address, length)
	d.out = protocol.EscapeResponse(d.out, data)
	if d.rejected(d.rejectReads, address, length) {
		d.stats.Nacks++
		d.respond(protocol.NACK)
		return
	}
	d.respond(protocol.ACK)
}

func (d *Device) set(address uint16, data []byte) {
	d.stats.Sets++
	d.setsAt[address]++
	if d.mute {
		return
	}
	if d.rejected(d.rejectWrites, address, len(data)) {
		d.stats.Nacks++
		d.respond(protocol.NACK)
		return
	}
	for i, b := range data {
		d.mem[uint16(int(address)+i)] = b
	}
	d.respond(protocol.ACK)
}

func (d *Device) span(address uint16, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = d.mem[uint16(int(address)+i)]
	}
	return out
}

func (d *Device) respond(b byte) {
	if !d.mute {
		d.out = append(d.out, b)
	}
}

func (d *Device) rejected(ranges []Range, address uint16, length int) bool {
	for _, r := range ranges {
		if r.overlaps(address, length) {
			return true
		}
	}
	return false
}

// RejectReads makes GETs touching [lo, hi] end in NACK.
func (d *Device) RejectReads(lo, hi uint16) {
	d.mu.Lock()
	d.rejectReads = append(d.rejectReads, Range{Lo: lo, Hi: hi})
	d.mu.Unlock()
}

// RejectWrites makes SETs touching [lo, hi] end in NACK without
// modifying memory.
func (d *Device) RejectWrites(lo, hi uint16) {
	d.mu.Lock()
	d.rejectWrites = append(d.rejectWrites, Range{Lo: lo, Hi: hi})
	d.mu.Unlock()
}

// ClearRejections removes all rejection ranges.
func (d *Device) ClearRejections() {
	d.mu.Lock()
	d.rejectReads = nil
	d.rejectWrites = nil
	d.mu.Unlock()
}

// SetMute stops the device from answering, so every transaction times out.
func (d *Device) SetMute(mute bool) {
	d.mu.Lock()
	d.mute = mute
	d.mu.Unlock()
}

// Load copies data into memory at a protocol address.
func (d *Device) Load(address uint16, data []byte) {
	d.mu.Lock()
	for i, b := range data {
		d.mem[uint16(int(address)+i)] = b
	}
	d.mu.Unlock()
}

// Peek returns a copy of length bytes at address.
func (d *Device) Peek(address uint16, length int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.span(address, length)
}

// Stats returns the transaction counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// GetsAt returns how many GETs started at address.
func (d *Device) GetsAt(address uint16) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getsAt[address]
}

// SetsAt returns how many SETs started at address.
func (d *Device) SetsAt(address uint16) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setsAt[address]
}

// ResetStats zeroes all counters.
func (d *Device) ResetStats() {
	d.mu.Lock()
	d.stats = Stats{}
	d.getsAt = make(map[uint16]int)
	d.setsAt = make(map[uint16]int)
	d.mu.Unlock()
}

var _ facade.Channel = (*Device)(nil)
