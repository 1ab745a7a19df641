package ctype

import (
	"context"
	"reflect"

	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/memlink"
)

// Value is a declaration bound to a memory link.
type Value interface {
	Type() *Type
	Link() *memlink.Link
	// Path is the field path from the root value, for error reporting.
	Path() []string
	// Len returns the canonical size in bytes.
	Len() int
	Read(ctx context.Context) (any, error)
	Write(ctx context.Context, v any) error
	// Mirror returns the cached canonical bytes of the whole value.
	Mirror() []byte
	String() string

	// member reads the value as part of an enclosing composite.
	member(ctx context.Context) (any, error)
	// encode converts v to canonical bytes, checking arity and
	// conversions before any store.
	encode(ctx context.Context, v any) ([]byte, error)
	// absorb installs bytes just stored by an enclosing composite.
	absorb(b []byte)
	invalidate()
}

// Bind instantiates t on link.
func Bind(t *Type, link *memlink.Link) Value {
	return bind(t, link, nil)
}

// BindAs is Bind with a root name used in error paths.
func BindAs(name string, t *Type, link *memlink.Link) Value {
	var path []string
	if name != "" {
		path = []string{name}
	}
	return bind(t, link, path)
}

// New instantiates t without a device, for local emulation.
func New(t *Type) Value {
	return Bind(t, memlink.Unallocated())
}

func bind(t *Type, link *memlink.Link, path []string) Value {
	switch t.kind {
	case KindStruct:
		return newStruct(t, link, path)
	case KindArray:
		return newArray(t, link, path)
	case KindPointer:
		return newPointer(t, link, path)
	default:
		return &Primitive{t: t, link: link, path: path}
	}
}

func childPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

// operands splits a write operand into exactly want values.
func operands(v any, want int, path []string) ([]any, error) {
	var vals []any
	switch x := v.(type) {
	case Record:
		vals = x.Values
	case []any:
		vals = x
	case []byte, string, nil:
		vals = []any{v}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			vals = make([]any, rv.Len())
			for i := range vals {
				vals[i] = rv.Index(i).Interface()
			}
		} else {
			vals = []any{v}
		}
	}
	if len(vals) != want {
		return nil, errors.Arity(errors.PhaseWrite, path, want, len(vals))
	}
	return vals, nil
}

// resolveOperand replaces a bound value operand with what it reads.
func resolveOperand(ctx context.Context, v any) (any, error) {
	for {
		src, ok := v.(Value)
		if !ok {
			return v, nil
		}
		r, err := src.Read(ctx)
		if err != nil {
			return nil, err
		}
		v = r
	}
}
