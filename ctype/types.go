package ctype

import (
	"fmt"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/codec"
	"github.com/wippyai/mcu-facade/errors"
)

// AnonTag names structs declared without a tag.
const AnonTag = "_anon_structure"

// PointerBits is the width of a device pointer.
const PointerBits = 16

// Field is one named member of a struct.
type Field struct {
	Type *Type
	Name string
}

// F declares a struct field.
func F(name string, t *Type) Field {
	return Field{Name: name, Type: t}
}

// Type is an immutable layout declaration.
type Type struct {
	codec      codec.Codec
	elem       *Type
	target     *Type
	index      map[string]int
	name       string
	fields     []Field
	size       int
	count      int
	kind       Kind
	targetKind addrspace.MemoryKind
}

func (t *Type) Kind() Kind { return t.kind }

// Name returns the C spelling: "uint16", "char[8]", "ab_t", "uint8[4]",
// "uint8*".
func (t *Type) Name() string { return t.name }

// Size returns the packed size in bytes.
func (t *Type) Size() int { return t.size }

// Codec returns the primitive codec, nil for composites.
func (t *Type) Codec() codec.Codec { return t.codec }

// Fields returns a copy of a struct's fields.
func (t *Type) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

// FieldIndex returns the position of a named struct field.
func (t *Type) FieldIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Elem returns an array's element type.
func (t *Type) Elem() *Type { return t.elem }

// Count returns the number of children: fields, elements, or 1 for a
// primitive.
func (t *Type) Count() int {
	switch t.kind {
	case KindStruct:
		return len(t.fields)
	case KindArray:
		return t.count
	default:
		return 1
	}
}

// Target returns the pointed-to type and its memory kind.
func (t *Type) Target() (*Type, addrspace.MemoryKind) { return t.target, t.targetKind }

func (t *Type) String() string { return t.name }

func primitive(kind Kind, c codec.Codec) *Type {
	return &Type{kind: kind, codec: c, name: c.Name(), size: c.Len()}
}

// Uint declares an unsigned integer. It panics if bits is outside [1, 64].
func Uint(bits int) *Type { return primitive(KindUnsigned, codec.NewUnsigned(bits)) }

// Int declares a two's complement integer. It panics if bits is outside
// [1, 64].
func Int(bits int) *Type { return primitive(KindSigned, codec.NewSigned(bits)) }

// Predeclared primitives.
var (
	Uint8  = Uint(8)
	Uint16 = Uint(16)
	Uint24 = Uint(24)
	Uint32 = Uint(32)
	Uint35 = Uint(35)
	Uint40 = Uint(40)

	Int8  = Int(8)
	Int16 = Int(16)
	Int24 = Int(24)
	Int32 = Int(32)
	Int35 = Int(35)
	Int40 = Int(40)

	Float24 = primitive(KindFloat24, codec.Float24{})
)

// CharArray declares a char[n] buffer.
func CharArray(n int) *Type {
	if n < 1 {
		panic(fmt.Sprintf("ctype: char array length %d", n))
	}
	return primitive(KindChars, codec.Chars{Length: n})
}

// PointerTo declares a pointer to target stored in memory kind.
func PointerTo(target *Type, kind addrspace.MemoryKind) *Type {
	return &Type{
		kind:       KindPointer,
		codec:      codec.NewUnsigned(PointerBits),
		name:       target.name + "*",
		size:       codec.ByteLen(PointerBits),
		target:     target,
		targetKind: kind,
	}
}

// NewStruct declares a struct. Field names must be unique and non-empty.
func NewStruct(tag string, fields ...Field) (*Type, error) {
	if tag == "" {
		tag = AnonTag
	}
	if len(fields) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLayout, "struct %s has no fields", tag)
	}
	t := &Type{
		kind:   KindStruct,
		name:   tag,
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseLayout, "struct %s: field %d has no name", tag, i)
		}
		if f.Type == nil {
			return nil, errors.InvalidInput(errors.PhaseLayout, "struct %s: field %s has no type", tag, f.Name)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, errors.InvalidInput(errors.PhaseLayout, "struct %s: duplicate field %s", tag, f.Name)
		}
		t.index[f.Name] = i
		t.size += f.Type.size
	}
	return t, nil
}

// StructOf is NewStruct that panics on error, for package-level declarations.
func StructOf(tag string, fields ...Field) *Type {
	t, err := NewStruct(tag, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// AnonStruct declares a struct without a tag.
func AnonStruct(fields ...Field) *Type {
	return StructOf("", fields...)
}

// NewArray declares an array of n elements.
func NewArray(elem *Type, n int) (*Type, error) {
	if elem == nil {
		return nil, errors.InvalidInput(errors.PhaseLayout, "array has no element type")
	}
	if n < 1 {
		return nil, errors.InvalidInput(errors.PhaseLayout, "array of %s has length %d", elem.name, n)
	}
	return &Type{
		kind:  KindArray,
		name:  fmt.Sprintf("%s[%d]", elem.name, n),
		elem:  elem,
		count: n,
		size:  elem.size * n,
	}, nil
}

// ArrayOf is NewArray that panics on error.
func ArrayOf(elem *Type, n int) *Type {
	t, err := NewArray(elem, n)
	if err != nil {
		panic(err)
	}
	return t
}
