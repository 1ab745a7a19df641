package addrspace

import (
	"strings"

	"github.com/wippyai/mcu-facade/errors"
)

// MemoryKind tags the memory a value lives in.
type MemoryKind uint8

const (
	Unallocated MemoryKind = iota
	Flash
	Ram
	LinearRam
	Eeprom
)

var kindNames = [...]string{
	Unallocated: "unallocated",
	Flash:       "flash",
	Ram:         "ram",
	LinearRam:   "linear_ram",
	Eeprom:      "eeprom",
}

// Kinds lists the allocatable memory kinds in declaration order.
var Kinds = []MemoryKind{Flash, Ram, LinearRam, Eeprom}

func (k MemoryKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind accepts the names returned by String in any case. "linear-ram"
// and "linearram" are accepted for LinearRam.
func ParseKind(s string) (MemoryKind, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, "-", "_")
	if n == "linearram" {
		n = "linear_ram"
	}
	for k, name := range kindNames {
		if name == n {
			return MemoryKind(k), nil
		}
	}
	return Unallocated, errors.UnknownMemoryKind(errors.PhaseConfig, s)
}

func (k MemoryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MemoryKind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
