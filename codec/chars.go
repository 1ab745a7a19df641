package codec

import (
	"fmt"
	"strings"

	"github.com/wippyai/mcu-facade/errors"
)

// Chars is a fixed-length character buffer (C char[Length]).
type Chars struct {
	Length int
}

func (c Chars) Len() int { return c.Length }

func (c Chars) Name() string { return fmt.Sprintf("char[%d]", c.Length) }

// ToCanonical truncates overlong input and right-pads with zero bytes.
func (c Chars) ToCanonical(value any) ([]byte, error) {
	var src []byte
	switch v := value.(type) {
	case string:
		src = []byte(v)
	case []byte:
		src = v
	case fmt.Stringer:
		src = []byte(v.String())
	default:
		return nil, errors.Conversion(nil, value, c.Name(),
			fmt.Sprintf("cannot convert %s to characters", TypeName(value)))
	}
	out := make([]byte, c.Length)
	copy(out, src)
	return out, nil
}

// ToCustom returns the whole buffer, trailing zeros included.
func (c Chars) ToCustom(canonical []byte) (any, error) {
	if err := checkLen(c, canonical); err != nil {
		return nil, err
	}
	return string(canonical), nil
}

// TrimNul cuts s at its first zero byte.
func TrimNul(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
