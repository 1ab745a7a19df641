package memlink

import (
	"context"

	"go.uber.org/zap"

	facade "github.com/wippyai/mcu-facade"
	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/errors"
)

// Base yields the address a link's offset is added to.
type Base interface {
	BaseAddress(ctx context.Context) (uint16, error)
}

// Fixed is a constant device address.
type Fixed uint16

func (f Fixed) BaseAddress(context.Context) (uint16, error) { return uint16(f), nil }

// Link locates one value in device memory.
type Link struct {
	env      *Env
	base     Base
	mirror   []byte
	offset   uint16
	kind     addrspace.MemoryKind
	volatile bool
	fresh    bool
}

// Root returns a link at a fixed device address.
func Root(env *Env, address uint16, kind addrspace.MemoryKind, volatile bool) *Link {
	return &Link{env: env, base: Fixed(address), kind: kind, volatile: volatile}
}

// Unallocated returns a link with no device behind it. Reads return the
// mirror, zero until written; writes only update the mirror.
func Unallocated() *Link {
	return &Link{base: Fixed(0), kind: addrspace.Unallocated}
}

// Chain derives a link at offset relative to l.
func (l *Link) Chain(offset uint16) *Link {
	if !l.Allocated() {
		return Unallocated()
	}
	return &Link{env: l.env, base: l, offset: offset, kind: l.kind, volatile: l.volatile}
}

// Target derives the link of the value l points to. l must hold a 2-byte
// little-endian pointer; kind is the memory the pointer designates.
func (l *Link) Target(kind addrspace.MemoryKind) *Link {
	if !l.Allocated() {
		return Unallocated()
	}
	return &Link{
		env:      l.env,
		base:     &pointerBase{pointer: l, kind: kind},
		kind:     kind,
		volatile: l.volatile,
	}
}

// BaseAddress makes a Link usable as the base of another.
func (l *Link) BaseAddress(ctx context.Context) (uint16, error) {
	return l.Address(ctx)
}

// Address returns the absolute device address. For a pointer target this
// reads the pointer.
func (l *Link) Address(ctx context.Context) (uint16, error) {
	b, err := l.base.BaseAddress(ctx)
	if err != nil {
		return 0, err
	}
	sum := uint32(b) + uint32(l.offset)
	if sum > 0xFFFF {
		return 0, errors.New(errors.PhaseTranslate, errors.KindOutOfBounds).
			Value(sum).
			Detail("base 0x%04X plus offset 0x%04X passes 0xFFFF", b, l.offset).
			Build()
	}
	return uint16(sum), nil
}

// checkSpan rejects a transfer of n bytes at address that would wrap
// past the end of protocol space.
func checkSpan(phase errors.Phase, op string, address uint16, n int) error {
	if uint32(address)+uint32(n) > 0x10000 {
		return errors.New(phase, errors.KindOutOfBounds).
			Txn(op, address, n).
			Detail("%d bytes at 0x%04X pass 0xFFFF", n, address).
			Build()
	}
	return nil
}

// ProtocolAddress returns the address in protocol space.
func (l *Link) ProtocolAddress(ctx context.Context) (uint16, error) {
	if !l.Allocated() {
		return 0, errors.UnknownMemoryKind(errors.PhaseRead, l.kind.String())
	}
	addr, err := l.Address(ctx)
	if err != nil {
		return 0, err
	}
	return l.env.Space.ProtocolAddress(l.kind, addr)
}

func (l *Link) Kind() addrspace.MemoryKind { return l.kind }

func (l *Link) Volatile() bool { return l.volatile }

func (l *Link) Offset() uint16 { return l.offset }

// Allocated reports whether the link reaches a device.
func (l *Link) Allocated() bool { return l.env != nil && l.kind != addrspace.Unallocated }

// Fresh reports whether Retrieve will be served from the mirror.
func (l *Link) Fresh() bool { return l.fresh }

// MarkFresh records that the mirror matches the device. Volatile links
// never become fresh.
func (l *Link) MarkFresh() { l.fresh = !l.volatile }

// Invalidate forces the next Retrieve onto the wire.
func (l *Link) Invalidate() { l.fresh = false }

// Mirror returns a copy of the cached canonical bytes.
func (l *Link) Mirror() []byte {
	return append([]byte(nil), l.mirror...)
}

// SetMirror replaces the cached bytes without touching the device or the
// freshness flag.
func (l *Link) SetMirror(b []byte) {
	l.mirror = append(l.mirror[:0], b...)
}

func (l *Link) zeroMirror(n int) []byte {
	if len(l.mirror) != n {
		l.mirror = make([]byte, n)
	}
	return l.Mirror()
}

// Retrieve returns n canonical bytes, from the mirror while fresh and
// from the device otherwise.
func (l *Link) Retrieve(ctx context.Context, n int) ([]byte, error) {
	if !l.Allocated() {
		return l.zeroMirror(n), nil
	}
	if l.fresh && len(l.mirror) == n {
		Logger().Debug("mirror hit", zap.Stringer("kind", l.kind), zap.Int("length", n))
		return l.Mirror(), nil
	}

	address, err := l.ProtocolAddress(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkSpan(errors.PhaseRead, "GET", address, n); err != nil {
		return nil, err
	}
	data := make([]byte, 0, n)
	for off := 0; off < n; off += facade.MaxTransfer {
		size := min(facade.MaxTransfer, n-off)
		chunk, err := l.env.Port.GetData(ctx, address+uint16(off), size)
		if err != nil {
			l.fresh = false
			return nil, err
		}
		data = append(data, chunk...)
	}
	l.mirror = data
	l.MarkFresh()
	return l.Mirror(), nil
}

// Store writes data to the device. A rejected chunk fails with a remote
// write rejection; earlier chunks stay written.
func (l *Link) Store(ctx context.Context, data []byte) error {
	if !l.Allocated() {
		l.SetMirror(data)
		return nil
	}

	address, err := l.ProtocolAddress(ctx)
	if err != nil {
		return err
	}
	if err := checkSpan(errors.PhaseWrite, "SET", address, len(data)); err != nil {
		return err
	}
	for off := 0; off < len(data); off += facade.MaxTransfer {
		end := min(off+facade.MaxTransfer, len(data))
		chunkAddr := address + uint16(off)
		ok, err := l.env.Port.SetData(ctx, chunkAddr, data[off:end])
		if err != nil {
			l.fresh = false
			return err
		}
		if !ok {
			l.fresh = false
			return errors.RemoteWriteRejected(nil, chunkAddr, end-off)
		}
	}
	l.SetMirror(data)
	l.MarkFresh()
	return nil
}

type pointerBase struct {
	pointer *Link
	kind    addrspace.MemoryKind
}

func (p *pointerBase) BaseAddress(ctx context.Context) (uint16, error) {
	raw, err := p.pointer.Retrieve(ctx, 2)
	if err != nil {
		return 0, err
	}
	value := uint16(raw[0]) | uint16(raw[1])<<8
	addr, err := p.pointer.env.Translator.ToDeviceAddress(value, p.kind)
	if err != nil {
		return 0, err
	}
	Logger().Debug("pointer resolved",
		zap.Uint16("raw", value), zap.Stringer("kind", p.kind), zap.Uint16("address", addr))
	return addr, nil
}
