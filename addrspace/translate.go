package addrspace

import (
	"fmt"

	"github.com/wippyai/mcu-facade/errors"
)

// Translator converts a raw pointer value read from the device into the
// device address it designates in the given memory kind.
type Translator interface {
	Name() string
	ToDeviceAddress(raw uint16, kind MemoryKind) (uint16, error)
}

// Region is the half of the pointer value range a kind is addressed in.
type Region uint8

const (
	RegionAny  Region = iota
	RegionLow         // raw < 0x8000
	RegionHigh        // raw >= 0x8000
)

const highHalf = 0x8000

// Rule translates pointers for one memory kind: the raw value must lie in
// Region, Base is subtracted from it, and the result is bound-checked
// against the kind's MemoryConfig.
type Rule struct {
	Region Region
	Base   uint16
}

// RuleTranslator applies a per-kind Rule table.
type RuleTranslator struct {
	rules map[MemoryKind]Rule
	space Space
	name  string
}

// NewRuleTranslator builds a translator from rules. Kinds without a rule
// fail with an unknown memory kind error.
func NewRuleTranslator(name string, space Space, rules map[MemoryKind]Rule) *RuleTranslator {
	r := make(map[MemoryKind]Rule, len(rules))
	for k, v := range rules {
		r[k] = v
	}
	return &RuleTranslator{name: name, space: space, rules: r}
}

func (t *RuleTranslator) Name() string { return t.name }

func (t *RuleTranslator) ToDeviceAddress(raw uint16, kind MemoryKind) (uint16, error) {
	rule, ok := t.rules[kind]
	if !ok {
		return 0, errors.UnknownMemoryKind(errors.PhaseTranslate, kind.String())
	}
	cfg, ok := t.space.Configs[kind]
	if !ok {
		return 0, errors.UnknownMemoryKind(errors.PhaseTranslate, kind.String())
	}

	switch rule.Region {
	case RegionLow:
		if raw >= highHalf {
			return 0, errors.AddressTranslation(raw, kind.String(), "expected a value below 0x8000")
		}
	case RegionHigh:
		if raw < highHalf {
			return 0, errors.AddressTranslation(raw, kind.String(), "expected a value at or above 0x8000")
		}
	}
	if raw < rule.Base {
		return 0, errors.AddressTranslation(raw, kind.String(),
			fmt.Sprintf("below region base 0x%04X", rule.Base))
	}
	addr := raw - rule.Base
	if !cfg.Contains(addr) {
		return 0, errors.AddressTranslation(raw, kind.String(),
			fmt.Sprintf("device address 0x%04X outside %s", addr, cfg))
	}
	return addr, nil
}

// NewXC8 returns the Microchip XC8 rules: RAM pointers are plain data
// addresses, program memory pointers have bit 15 set, and the emulated
// EEPROM sits at EmulatedEepromBase inside program memory.
func NewXC8(space Space) *RuleTranslator {
	return NewRuleTranslator("xc8", space, map[MemoryKind]Rule{
		Ram:       {Region: RegionLow},
		LinearRam: {Region: RegionLow},
		Flash:     {Region: RegionHigh, Base: highHalf},
		Eeprom:    {Region: RegionHigh, Base: highHalf + space.EmulatedEepromBase},
	})
}

// NewFlat returns a translator for toolchains whose pointers hold device
// addresses unchanged. Only the range check applies.
func NewFlat(space Space) *RuleTranslator {
	return NewRuleTranslator("flat", space, map[MemoryKind]Rule{
		Ram:       {},
		LinearRam: {},
		Flash:     {},
		Eeprom:    {},
	})
}
