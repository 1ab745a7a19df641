package schema

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/channel"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/device"
	"github.com/wippyai/mcu-facade/errors"
)

// Format is a schema file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.InvalidInput(errors.PhaseLayout, "%s: unknown schema extension", path)
	}
}

// Schema is the decoded content of a layout file.
type Schema struct {
	Spaces             map[string]SpaceEntry `yaml:"spaces" toml:"spaces"`
	EmulatedEepromBase *Number               `yaml:"emulated_eeprom_base" toml:"emulated_eeprom_base"`
	Serial             *channel.SerialConfig `yaml:"serial" toml:"serial"`
	Backend            string                `yaml:"backend" toml:"backend"`
	Types              []TypeDecl            `yaml:"types" toml:"types"`
	Variables          []VariableDecl        `yaml:"variables" toml:"variables"`
}

// SpaceEntry overrides one memory kind's protocol sub-range.
type SpaceEntry struct {
	Offset Number `yaml:"offset" toml:"offset"`
	Start  Number `yaml:"start" toml:"start"`
	Final  Number `yaml:"final" toml:"final"`
}

// TypeDecl declares a struct.
type TypeDecl struct {
	Name   string      `yaml:"name" toml:"name"`
	Fields []FieldDecl `yaml:"fields" toml:"fields"`
}

// FieldDecl is one struct member.
type FieldDecl struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// VariableDecl binds a type at a device address.
type VariableDecl struct {
	Volatile *bool  `yaml:"volatile" toml:"volatile"`
	Name     string `yaml:"name" toml:"name"`
	Type     string `yaml:"type" toml:"type"`
	Memory   string `yaml:"memory" toml:"memory"`
	Address  Number `yaml:"address" toml:"address"`
}

// Load reads a schema file. The format follows the extension.
func Load(path string) (*Schema, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLayout, errors.KindIO, err, "read "+path)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	Logger().Debug("schema loaded",
		zap.String("path", path),
		zap.Int("types", len(s.Types)),
		zap.Int("variables", len(s.Variables)))
	return s, nil
}

// Parse decodes data. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Schema, error) {
	var s Schema
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(errors.PhaseLayout, errors.KindInvalidInput, err, "parse yaml")
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLayout, errors.KindInvalidInput, err, "parse toml")
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, errors.InvalidInput(errors.PhaseLayout, "unknown key %s", undecoded[0])
		}
	default:
		return nil, errors.InvalidInput(errors.PhaseLayout, "unknown schema format %q", format)
	}
	return &s, nil
}

// Space applies the overrides to the default address space.
func (s *Schema) Space() (addrspace.Space, error) {
	space := addrspace.Default()
	for name, e := range s.Spaces {
		kind, err := addrspace.ParseKind(name)
		if err != nil {
			return addrspace.Space{}, err
		}
		var cfg addrspace.MemoryConfig
		for _, p := range []struct {
			dst *uint16
			n   Number
		}{{&cfg.Offset, e.Offset}, {&cfg.Start, e.Start}, {&cfg.Final, e.Final}} {
			v, err := p.n.Uint16()
			if err != nil {
				return addrspace.Space{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "space "+name)
			}
			*p.dst = v
		}
		space = space.With(kind, cfg)
	}
	if s.EmulatedEepromBase != nil {
		v, err := s.EmulatedEepromBase.Uint16()
		if err != nil {
			return addrspace.Space{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "emulated_eeprom_base")
		}
		space.EmulatedEepromBase = v
	}
	if err := space.Validate(); err != nil {
		return addrspace.Space{}, err
	}
	return space, nil
}

// DeviceConfig returns the device configuration the schema describes.
func (s *Schema) DeviceConfig() (device.Config, error) {
	space, err := s.Space()
	if err != nil {
		return device.Config{}, err
	}
	cfg := device.DefaultConfig()
	cfg.Space = space
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	return cfg, nil
}

// SerialConfig overlays the schema's serial section on the defaults for
// port. An empty port keeps the schema's.
func (s *Schema) SerialConfig(port string) channel.SerialConfig {
	if s.Serial != nil && port == "" {
		port = s.Serial.Port
	}
	cfg := channel.DefaultSerialConfig(port)
	if s.Serial == nil {
		return cfg
	}
	if s.Serial.BaudRate != 0 {
		cfg.BaudRate = s.Serial.BaudRate
	}
	if s.Serial.DataBits != 0 {
		cfg.DataBits = s.Serial.DataBits
	}
	if s.Serial.Parity != "" {
		cfg.Parity = s.Serial.Parity
	}
	if s.Serial.StopBits != 0 {
		cfg.StopBits = s.Serial.StopBits
	}
	if s.Serial.ReadTimeout != 0 {
		cfg.ReadTimeout = s.Serial.ReadTimeout
	}
	return cfg
}

// Compile builds every declared type, keyed by name.
func (s *Schema) Compile() (map[string]*ctype.Type, error) {
	r, err := newResolver(s.Types)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ctype.Type, len(s.Types))
	for _, d := range s.Types {
		t, err := r.named(d.Name)
		if err != nil {
			return nil, err
		}
		out[d.Name] = t
	}
	return out, nil
}

// TypeOf parses a type expression against the schema's declarations.
func (s *Schema) TypeOf(expr string) (*ctype.Type, error) {
	r, err := newResolver(s.Types)
	if err != nil {
		return nil, err
	}
	return r.expr(expr)
}

// Bind declares every variable on dev. Variables are volatile unless they
// say otherwise.
func (s *Schema) Bind(dev *device.Device) error {
	r, err := newResolver(s.Types)
	if err != nil {
		return err
	}
	for _, v := range s.Variables {
		if v.Name == "" {
			return errors.InvalidInput(errors.PhaseLayout, "variable without a name")
		}
		t, err := r.expr(v.Type)
		if err != nil {
			return errors.WithPath(err, []string{v.Name})
		}
		kind := addrspace.Ram
		if v.Memory != "" {
			if kind, err = addrspace.ParseKind(v.Memory); err != nil {
				return errors.WithPath(err, []string{v.Name})
			}
		}
		addr, err := v.Address.Uint16()
		if err != nil {
			return errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				Path(v.Name).Cause(err).Detail("bad address").Build()
		}
		opts := []device.DeclareOption{device.Name(v.Name)}
		if v.Volatile != nil {
			opts = append(opts, device.Volatile(*v.Volatile))
		}
		if _, err := dev.Declare(t, kind, addr, opts...); err != nil {
			return errors.WithPath(err, []string{v.Name})
		}
	}
	return nil
}
