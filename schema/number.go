package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is an unsigned integer written in decimal or 0x hex.
type Number uint64

func parseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return Number(n), nil
}

// UnmarshalYAML accepts a plain or quoted scalar.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	v, err := parseNumber(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = v
	return nil
}

// UnmarshalTOML accepts a TOML integer or string.
func (n *Number) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("invalid number %d", v)
		}
		*n = Number(v)
		return nil
	case string:
		p, err := parseNumber(v)
		if err != nil {
			return err
		}
		*n = p
		return nil
	default:
		return fmt.Errorf("expected a number, got %T", data)
	}
}

// UnmarshalText parses decimal or 0x hex.
func (n *Number) UnmarshalText(text []byte) error {
	v, err := parseNumber(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (n Number) String() string {
	return fmt.Sprintf("0x%X", uint64(n))
}

// Uint16 returns n if it fits in 16 bits.
func (n Number) Uint16() (uint16, error) {
	if n > 0xFFFF {
		return 0, fmt.Errorf("%s does not fit in 16 bits", n)
	}
	return uint16(n), nil
}
