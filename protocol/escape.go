package protocol

import (
	"github.com/wippyai/mcu-facade/errors"
)

// Control bytes.
const (
	ESC  byte = 0x1B
	EXIT byte = 'X'
	GET  byte = 'G'
	SET  byte = 'S'
	ACK  byte = 0x17
	NACK byte = 0x15
)

const escXor = ESC ^ 0x55

// IsHostReserved reports whether the host must escape b.
func IsHostReserved(b byte) bool {
	return b == ESC || b == EXIT || b == GET || b == SET
}

// IsDeviceReserved reports whether the device must escape b.
func IsDeviceReserved(b byte) bool {
	return b == ESC || b == ACK || b == NACK
}

// EscapeByte returns the second byte of the escape sequence for b.
func EscapeByte(b byte) byte { return b ^ escXor }

// UnescapeByte reverses EscapeByte.
func UnescapeByte(b byte) byte { return b ^ escXor }

func escapeWith(dst, src []byte, reserved func(byte) bool) []byte {
	for _, b := range src {
		if reserved(b) {
			dst = append(dst, ESC, EscapeByte(b))
		} else {
			dst = append(dst, b)
		}
	}
	return dst
}

func unescapeWith(src []byte, reserved func(byte) bool) ([]byte, error) {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		b := src[i]
		if b != ESC {
			out = append(out, b)
			continue
		}
		i++
		if i == len(src) {
			return out, errors.Framing("escape at end of data")
		}
		d := UnescapeByte(src[i])
		if !reserved(d) {
			return out, errors.Framing("invalid escape sequence 1B %02X", src[i])
		}
		out = append(out, d)
	}
	return out, nil
}

// Escape appends the host encoding of src to dst.
func Escape(dst, src []byte) []byte {
	return escapeWith(dst, src, IsHostReserved)
}

// Unescape decodes host encoded data.
func Unescape(src []byte) ([]byte, error) {
	return unescapeWith(src, IsHostReserved)
}

// EscapeResponse appends the device encoding of src to dst.
func EscapeResponse(dst, src []byte) []byte {
	return escapeWith(dst, src, IsDeviceReserved)
}

// UnescapeResponse decodes device encoded data.
func UnescapeResponse(src []byte) ([]byte, error) {
	return unescapeWith(src, IsDeviceReserved)
}

// EncodeGet builds a GET command.
func EncodeGet(address uint16, length int) []byte {
	out := make([]byte, 0, 7)
	out = append(out, GET)
	return Escape(out, []byte{byte(address), byte(address >> 8), byte(length)})
}

// EncodeSet builds a SET command.
func EncodeSet(address uint16, data []byte) []byte {
	out := make([]byte, 0, 1+2*(3+len(data)))
	out = append(out, SET)
	out = Escape(out, []byte{byte(address), byte(address >> 8), byte(len(data))})
	return Escape(out, data)
}
