package ctype

import (
	"context"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/memlink"
)

// Pointer is a bound pointer. Its own 2-byte value designates the target,
// which is bound on a link that re-reads the pointer to find its address.
type Pointer struct {
	t      *Type
	link   *memlink.Link
	target Value
	path   []string
}

func newPointer(t *Type, link *memlink.Link, path []string) *Pointer {
	targetType, kind := t.Target()
	return &Pointer{
		t:      t,
		link:   link,
		path:   path,
		target: bind(targetType, link.Target(kind), childPath(path, "*")),
	}
}

func (p *Pointer) Type() *Type { return p.t }
func (p *Pointer) Link() *memlink.Link { return p.link }
func (p *Pointer) Path() []string { return p.path }
func (p *Pointer) Len() int { return p.t.size }
func (p *Pointer) Mirror() []byte { return padMirror(p.link, p.t.size) }

// Target returns the pointed-to value.
func (p *Pointer) Target() Value { return p.target }

// TargetKind returns the memory kind the pointer designates.
func (p *Pointer) TargetKind() addrspace.MemoryKind {
	_, k := p.t.Target()
	return k
}

// Address returns the pointer's own raw value.
func (p *Pointer) Address(ctx context.Context) (uint16, error) {
	b, err := p.link.Retrieve(ctx, p.t.size)
	if err != nil {
		return 0, errors.WithPath(err, p.path)
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// SetAddress stores a new raw pointer value. The target's mirror is no
// longer trusted afterwards.
func (p *Pointer) SetAddress(ctx context.Context, raw uint16) error {
	if err := p.link.Store(ctx, []byte{byte(raw), byte(raw >> 8)}); err != nil {
		return errors.WithPath(err, p.path)
	}
	p.target.invalidate()
	return nil
}

// TargetAddress resolves the device address the pointer currently
// designates.
func (p *Pointer) TargetAddress(ctx context.Context) (uint16, error) {
	addr, err := p.target.Link().Address(ctx)
	if err != nil {
		return 0, errors.WithPath(err, p.path)
	}
	return addr, nil
}

// Read dereferences the pointer. A primitive target is read and decoded;
// a composite target is returned as its bound Value once the address
// resolves.
func (p *Pointer) Read(ctx context.Context) (any, error) {
	if p.target.Type().Kind().IsComposite() {
		if _, err := p.TargetAddress(ctx); err != nil {
			return nil, err
		}
		return p.target, nil
	}
	return p.target.Read(ctx)
}

// Write stores v through the pointer into the target.
func (p *Pointer) Write(ctx context.Context, v any) error {
	return p.target.Write(ctx, v)
}

// member yields the raw pointer value inside composites, so a read can be
// written back unchanged.
func (p *Pointer) member(ctx context.Context) (any, error) {
	a, err := p.Address(ctx)
	if err != nil {
		return nil, err
	}
	return uint64(a), nil
}

func (p *Pointer) encode(ctx context.Context, v any) ([]byte, error) {
	v, err := resolveOperand(ctx, v)
	if err != nil {
		return nil, err
	}
	vals, err := operands(v, 1, p.path)
	if err != nil {
		return nil, err
	}
	b, err := p.t.codec.ToCanonical(vals[0])
	if err != nil {
		return nil, errors.WithPath(err, p.path)
	}
	return b, nil
}

func (p *Pointer) absorb(b []byte) {
	p.link.SetMirror(b)
	p.link.MarkFresh()
	p.target.invalidate()
}

func (p *Pointer) invalidate() {
	p.link.Invalidate()
	p.target.invalidate()
}

func (p *Pointer) String() string {
	return renderPrimitive(p.t.codec, p.Mirror())
}
