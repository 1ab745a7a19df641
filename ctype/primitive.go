package ctype

import (
	"context"
	"fmt"

	"github.com/wippyai/mcu-facade/codec"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/memlink"
)

// Primitive is a bound integer, float or character buffer.
type Primitive struct {
	t    *Type
	link *memlink.Link
	path []string
}

func (p *Primitive) Type() *Type { return p.t }
func (p *Primitive) Link() *memlink.Link { return p.link }
func (p *Primitive) Path() []string { return p.path }
func (p *Primitive) Len() int { return p.t.size }
func (p *Primitive) Mirror() []byte { return padMirror(p.link, p.t.size) }
func (p *Primitive) invalidate() { p.link.Invalidate() }
func (p *Primitive) member(ctx context.Context) (any, error) { return p.Read(ctx) }

// Read returns uint64, int64, float64 or string by kind.
func (p *Primitive) Read(ctx context.Context) (any, error) {
	b, err := p.link.Retrieve(ctx, p.t.size)
	if err != nil {
		return nil, errors.WithPath(err, p.path)
	}
	v, err := p.t.codec.ToCustom(b)
	if err != nil {
		return nil, errors.WithPath(err, p.path)
	}
	return v, nil
}

// Write stores one value. A one-element slice is accepted.
func (p *Primitive) Write(ctx context.Context, v any) error {
	b, err := p.encode(ctx, v)
	if err != nil {
		return err
	}
	if err := p.link.Store(ctx, b); err != nil {
		return errors.WithPath(err, p.path)
	}
	return nil
}

func (p *Primitive) encode(ctx context.Context, v any) ([]byte, error) {
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

func (p *Primitive) absorb(b []byte) {
	p.link.SetMirror(b)
	p.link.MarkFresh()
}

// String renders the mirror as value[0xhex] without touching the device.
func (p *Primitive) String() string {
	return renderPrimitive(p.t.codec, p.Mirror())
}

func renderPrimitive(c codec.Codec, mirror []byte) string {
	v, err := c.ToCustom(mirror)
	if err != nil {
		return fmt.Sprintf("?[0x%x]", mirror)
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q[0x%x]", codec.TrimNul(s), mirror)
	}
	return fmt.Sprintf("%v[0x%x]", v, mirror)
}

func padMirror(l *memlink.Link, size int) []byte {
	m := l.Mirror()
	if len(m) == size {
		return m
	}
	out := make([]byte, size)
	copy(out, m)
	return out
}
