// Package codec converts between native Go values and the canonical byte
// form of C primitives as stored in device memory.
//
// Canonical forms are little-endian and fixed width:
//
//	Codec       Width                 Native type
//	──────────────────────────────────────────────
//	Unsigned    ceil(bits/8) bytes    uint64
//	Signed      ceil(bits/8) bytes    int64 (two's complement over bits)
//	Float24     3 bytes               float64 (truncated IEEE-754 single)
//	Chars       n bytes               string (zero padded, not trimmed)
//
// Bit widths need not be multiples of 8. Only the low bits are
// significant; decoding masks the unused high bits of the last byte.
//
// ToCanonical accepts any Go numeric type, bool, or numeric strings for the
// number codecs and converts them explicitly. Values that cannot be
// converted or do not fit fail with an errors.KindConversion error.
package codec
