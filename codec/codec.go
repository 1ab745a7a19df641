package codec

import (
	"fmt"

	"github.com/wippyai/mcu-facade/errors"
)

// MaxBits is the widest integer a codec can represent.
const MaxBits = 64

// Codec converts one primitive between its native and canonical forms.
type Codec interface {
	// Len returns the canonical width in bytes.
	Len() int
	ToCanonical(value any) ([]byte, error)
	ToCustom(canonical []byte) (any, error)
	// Name returns the C spelling of the type, e.g. "uint16" or "char[8]".
	Name() string
}

// ByteLen returns the number of bytes needed for bits.
func ByteLen(bits int) int {
	return (bits + 7) / 8
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

func checkBits(bits int) {
	if bits < 1 || bits > MaxBits {
		panic(fmt.Sprintf("codec: bit width %d out of range [1, %d]", bits, MaxBits))
	}
}

func checkLen(c Codec, canonical []byte) error {
	if len(canonical) != c.Len() {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			CType(c.Name()).
			Detail("canonical form has %d bytes, want %d", len(canonical), c.Len()).
			Build()
	}
	return nil
}

func putLE(dst []byte, v uint64) {
	for i := range dst {
		dst[i] = byte(v)
		v >>= 8
	}
}

func getLE(src []byte) uint64 {
	var v uint64
	for i := len(src) - 1; i >= 0; i-- {
		v = v<<8 | uint64(src[i])
	}
	return v
}

// Unsigned is an unsigned integer of Bits width.
type Unsigned struct {
	Bits int
}

// NewUnsigned returns an unsigned codec. It panics if bits is outside [1, 64].
func NewUnsigned(bits int) Unsigned {
	checkBits(bits)
	return Unsigned{Bits: bits}
}

func (u Unsigned) Len() int { return ByteLen(u.Bits) }

func (u Unsigned) Name() string { return fmt.Sprintf("uint%d", u.Bits) }

func (u Unsigned) ToCanonical(value any) ([]byte, error) {
	v, ok := CoerceToUint64(value)
	if !ok {
		return nil, errors.Conversion(nil, value, u.Name(),
			fmt.Sprintf("cannot convert %s to an unsigned integer", TypeName(value)))
	}
	if v&^mask(u.Bits) != 0 {
		return nil, errors.Conversion(nil, value, u.Name(),
			fmt.Sprintf("value %d overflows %d bits", v, u.Bits))
	}
	out := make([]byte, u.Len())
	putLE(out, v)
	return out, nil
}

func (u Unsigned) ToCustom(canonical []byte) (any, error) {
	if err := checkLen(u, canonical); err != nil {
		return nil, err
	}
	return getLE(canonical) & mask(u.Bits), nil
}

// Signed is a two's complement integer of Bits width.
type Signed struct {
	Bits int
}

// NewSigned returns a signed codec. It panics if bits is outside [1, 64].
func NewSigned(bits int) Signed {
	checkBits(bits)
	return Signed{Bits: bits}
}

func (s Signed) Len() int { return ByteLen(s.Bits) }

func (s Signed) Name() string { return fmt.Sprintf("int%d", s.Bits) }

func (s Signed) bounds() (lo, hi int64) {
	if s.Bits >= 64 {
		return -1 << 63, 1<<63 - 1
	}
	return -(int64(1) << (s.Bits - 1)), int64(1)<<(s.Bits-1) - 1
}

func (s Signed) ToCanonical(value any) ([]byte, error) {
	v, ok := CoerceToInt64(value)
	if !ok {
		return nil, errors.Conversion(nil, value, s.Name(),
			fmt.Sprintf("cannot convert %s to a signed integer", TypeName(value)))
	}
	lo, hi := s.bounds()
	if v < lo || v > hi {
		return nil, errors.Conversion(nil, value, s.Name(),
			fmt.Sprintf("value %d outside [%d, %d]", v, lo, hi))
	}
	// Masking the two's complement pattern is the same as adding
	// 2^bits to a negative value.
	out := make([]byte, s.Len())
	putLE(out, uint64(v)&mask(s.Bits))
	return out, nil
}

func (s Signed) ToCustom(canonical []byte) (any, error) {
	if err := checkLen(s, canonical); err != nil {
		return nil, err
	}
	u := getLE(canonical) & mask(s.Bits)
	if s.Bits >= 64 {
		return int64(u), nil
	}
	if u >= uint64(1)<<(s.Bits-1) {
		return int64(u) - int64(1)<<s.Bits, nil
	}
	return int64(u), nil
}

// Compile-time interface satisfaction checks.
var (
	_ Codec = Unsigned{}
	_ Codec = Signed{}
	_ Codec = Float24{}
	_ Codec = Chars{}
)
