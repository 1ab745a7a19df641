package ctype

import (
	"context"
	"strconv"
	"strings"

	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/memlink"
)

// composite is the part shared by structs and arrays.
type composite struct {
	t        *Type
	link     *memlink.Link
	path     []string
	children []Value
}

func newComposite(t *Type, link *memlink.Link, path []string, segs []string, types []*Type) composite {
	offsets := defaultCalculator.Calculate(t).Offsets
	c := composite{t: t, link: link, path: path, children: make([]Value, len(types))}
	for i, ct := range types {
		c.children[i] = bind(ct, link.Chain(uint16(offsets[i])), childPath(path, segs[i]))
	}
	return c
}

func (c *composite) Type() *Type { return c.t }
func (c *composite) Link() *memlink.Link { return c.link }
func (c *composite) Path() []string { return c.path }
func (c *composite) Len() int { return c.t.size }

// Mirror concatenates the children's mirrors.
func (c *composite) Mirror() []byte {
	out := make([]byte, 0, c.t.size)
	for _, ch := range c.children {
		out = append(out, ch.Mirror()...)
	}
	return out
}

func (c *composite) readChildren(ctx context.Context) ([]any, error) {
	vals := make([]any, len(c.children))
	for i, ch := range c.children {
		v, err := ch.member(ctx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// Write checks and encodes the whole tree, then stores it in one transfer.
func (c *composite) Write(ctx context.Context, v any) error {
	b, err := c.encode(ctx, v)
	if err != nil {
		return err
	}
	if err := c.link.Store(ctx, b); err != nil {
		for _, ch := range c.children {
			ch.invalidate()
		}
		return errors.WithPath(err, c.path)
	}
	c.absorb(b)
	return nil
}

func (c *composite) encode(ctx context.Context, v any) ([]byte, error) {
	v, err := resolveOperand(ctx, v)
	if err != nil {
		return nil, err
	}
	vals, err := operands(v, len(c.children), c.path)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, c.t.size)
	for i, ch := range c.children {
		b, err := ch.encode(ctx, vals[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c *composite) absorb(b []byte) {
	c.link.SetMirror(b)
	c.link.MarkFresh()
	off := 0
	for _, ch := range c.children {
		n := ch.Len()
		ch.absorb(b[off : off+n])
		off += n
	}
}

func (c *composite) invalidate() {
	c.link.Invalidate()
	for _, ch := range c.children {
		ch.invalidate()
	}
}

// Struct is a bound struct.
type Struct struct {
	composite
}

func newStruct(t *Type, link *memlink.Link, path []string) *Struct {
	names := make([]string, len(t.fields))
	types := make([]*Type, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
		types[i] = f.Type
	}
	return &Struct{newComposite(t, link, path, names, types)}
}

// Field returns the named field, or nil.
func (s *Struct) Field(name string) Value {
	i, ok := s.t.FieldIndex(name)
	if !ok {
		return nil
	}
	return s.children[i]
}

// Fields returns the fields in declaration order.
func (s *Struct) Fields() []Value {
	return append([]Value(nil), s.children...)
}

// Read reads every field in declaration order.
func (s *Struct) Read(ctx context.Context) (any, error) {
	return s.member(ctx)
}

func (s *Struct) member(ctx context.Context) (any, error) {
	vals, err := s.readChildren(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(s.t.fields))
	for i, f := range s.t.fields {
		names[i] = f.Name
	}
	return Record{Name: RecordName(s.t.name), Fields: names, Values: vals}, nil
}

// String renders the mirrors without touching the device.
func (s *Struct) String() string {
	var b strings.Builder
	b.WriteString(RecordName(s.t.name))
	b.WriteByte('(')
	for i, f := range s.t.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(s.children[i].String())
	}
	b.WriteByte(')')
	return b.String()
}

// Array is a bound array.
type Array struct {
	composite
}

func newArray(t *Type, link *memlink.Link, path []string) *Array {
	segs := make([]string, t.count)
	types := make([]*Type, t.count)
	for i := range segs {
		segs[i] = "[" + strconv.Itoa(i) + "]"
		types[i] = t.elem
	}
	return &Array{newComposite(t, link, path, segs, types)}
}

// Index returns element i, or nil when out of range.
func (a *Array) Index(i int) Value {
	if i < 0 || i >= len(a.children) {
		return nil
	}
	return a.children[i]
}

// Elements returns the elements in order.
func (a *Array) Elements() []Value {
	return append([]Value(nil), a.children...)
}

// Read reads every element into a []any.
func (a *Array) Read(ctx context.Context) (any, error) {
	return a.member(ctx)
}

func (a *Array) member(ctx context.Context) (any, error) {
	vals, err := a.readChildren(ctx)
	if err != nil {
		return nil, err
	}
	return vals, nil
}

func (a *Array) String() string {
	parts := make([]string, len(a.children))
	for i, ch := range a.children {
		parts[i] = ch.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var (
	_ Value = (*Primitive)(nil)
	_ Value = (*Pointer)(nil)
	_ Value = (*Struct)(nil)
	_ Value = (*Array)(nil)
)
