package addrspace

import (
	"fmt"
	"sort"

	"github.com/wippyai/mcu-facade/errors"
)

// MemoryConfig is one memory kind's slice of the protocol address space.
type MemoryConfig struct {
	// Offset is where the slice begins in protocol space.
	Offset uint16 `yaml:"offset" toml:"offset"`
	// Start and Final bound the device addresses mapped into the slice.
	Start uint16 `yaml:"start" toml:"start"`
	Final uint16 `yaml:"final" toml:"final"`
}

// Contains reports whether devAddr lies in [Start, Final].
func (c MemoryConfig) Contains(devAddr uint16) bool {
	return devAddr >= c.Start && devAddr <= c.Final
}

func (c MemoryConfig) String() string {
	return fmt.Sprintf("offset=0x%04X start=0x%04X final=0x%04X", c.Offset, c.Start, c.Final)
}

// DefaultLinearRam is the linear RAM window of the reference firmware. It
// is not part of Default because its protocol range overlaps Flash.
var DefaultLinearRam = MemoryConfig{Offset: 0x0000, Start: 0x0000, Final: 0x7FFF}

// DefaultEmulatedEepromBase is where the reference firmware places its
// emulated EEPROM inside flash.
const DefaultEmulatedEepromBase uint16 = 0x1F00

// Space is the full protocol address space layout.
type Space struct {
	Configs            map[MemoryKind]MemoryConfig
	EmulatedEepromBase uint16
}

// Default returns the reference firmware layout.
func Default() Space {
	return Space{
		Configs: map[MemoryKind]MemoryConfig{
			Flash:  {Offset: 0x0000, Start: 0x0000, Final: 0x1DFF},
			Ram:    {Offset: 0xE000, Start: 0x0000, Final: 0x0FFF},
			Eeprom: {Offset: 0xF000, Start: 0x0000, Final: 0x0FFF},
		},
		EmulatedEepromBase: DefaultEmulatedEepromBase,
	}
}

// With returns a copy of s with kind configured as cfg.
func (s Space) With(kind MemoryKind, cfg MemoryConfig) Space {
	out := Space{
		Configs:            make(map[MemoryKind]MemoryConfig, len(s.Configs)+1),
		EmulatedEepromBase: s.EmulatedEepromBase,
	}
	for k, c := range s.Configs {
		out.Configs[k] = c
	}
	out.Configs[kind] = cfg
	return out
}

// Config returns the configuration of kind.
func (s Space) Config(kind MemoryKind) (MemoryConfig, error) {
	if kind == Unallocated {
		return MemoryConfig{}, errors.UnknownMemoryKind(errors.PhaseConfig, kind.String())
	}
	c, ok := s.Configs[kind]
	if !ok {
		return MemoryConfig{}, errors.UnknownMemoryKind(errors.PhaseConfig, kind.String())
	}
	return c, nil
}

// ProtocolAddress maps a device address of kind into protocol space.
func (s Space) ProtocolAddress(kind MemoryKind, devAddr uint16) (uint16, error) {
	c, err := s.Config(kind)
	if err != nil {
		return 0, err
	}
	sum := uint32(c.Offset) + uint32(devAddr)
	if sum > 0xFFFF {
		return 0, errors.New(errors.PhaseTranslate, errors.KindOutOfBounds).
			CType(kind.String()).Value(devAddr).
			Detail("device address 0x%04X plus offset 0x%04X passes 0xFFFF", devAddr, c.Offset).
			Build()
	}
	return uint16(sum), nil
}

type protoRange struct {
	kind   MemoryKind
	lo, hi uint32
}

// Validate checks every configuration for Start <= Final, that it fits in
// 16 bits, and that no two kinds share protocol addresses.
func (s Space) Validate() error {
	ranges := make([]protoRange, 0, len(s.Configs))
	for kind, c := range s.Configs {
		if kind == Unallocated {
			return errors.InvalidInput(errors.PhaseConfig, "unallocated memory cannot be configured")
		}
		if c.Start > c.Final {
			return errors.InvalidInput(errors.PhaseConfig,
				"%s: start 0x%04X above final 0x%04X", kind, c.Start, c.Final)
		}
		lo := uint32(c.Offset) + uint32(c.Start)
		hi := uint32(c.Offset) + uint32(c.Final)
		if hi > 0xFFFF {
			return errors.InvalidInput(errors.PhaseConfig,
				"%s: protocol range ends at 0x%X, beyond 0xFFFF", kind, hi)
		}
		ranges = append(ranges, protoRange{kind: kind, lo: lo, hi: hi})
	}

	// EEPROM pointers carry bit 15 plus the emulated base.
	if c, ok := s.Configs[Eeprom]; ok {
		top := uint32(highHalf) + uint32(s.EmulatedEepromBase) + uint32(c.Final)
		if top > 0xFFFF {
			return errors.InvalidInput(errors.PhaseConfig,
				"emulated EEPROM base 0x%04X puts eeprom pointers at 0x%X, beyond 0xFFFF",
				s.EmulatedEepromBase, top)
		}
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].lo != ranges[j].lo {
			return ranges[i].lo < ranges[j].lo
		}
		return ranges[i].kind < ranges[j].kind
	})
	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		if cur.lo <= prev.hi {
			return errors.InvalidInput(errors.PhaseConfig,
				"%s protocol range 0x%04X-0x%04X overlaps %s 0x%04X-0x%04X",
				cur.kind, cur.lo, cur.hi, prev.kind, prev.lo, prev.hi)
		}
	}
	return nil
}
