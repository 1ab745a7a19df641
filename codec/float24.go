package codec

import (
	"fmt"
	"math"

	"github.com/wippyai/mcu-facade/errors"
)

// Float24 is the 24-bit float used by the firmware: the upper three bytes
// of a little-endian IEEE-754 single. Encoding drops the low mantissa byte
// and decoding zero-fills it, so round trips are exact only for values
// whose low 8 mantissa bits are zero.
type Float24 struct{}

func (Float24) Len() int { return 3 }

func (Float24) Name() string { return "float24" }

func (f Float24) ToCanonical(value any) ([]byte, error) {
	v, ok := CoerceToFloat64(value)
	if !ok {
		return nil, errors.Conversion(nil, value, f.Name(),
			fmt.Sprintf("cannot convert %s to a float", TypeName(value)))
	}
	bits := math.Float32bits(float32(v))
	return []byte{byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}, nil
}

func (f Float24) ToCustom(canonical []byte) (any, error) {
	if err := checkLen(f, canonical); err != nil {
		return nil, err
	}
	bits := uint32(canonical[0])<<8 | uint32(canonical[1])<<16 | uint32(canonical[2])<<24
	return float64(math.Float32frombits(bits)), nil
}
