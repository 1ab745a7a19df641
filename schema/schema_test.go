package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/device"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/protocol"
	"github.com/wippyai/mcu-facade/simulator"
)

func TestLoadFormats(t *testing.T) {
	for _, path := range []string{"testdata/pump.yaml", "testdata/pump.toml"} {
		t.Run(path, func(t *testing.T) {
			s, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "xc8", s.Backend)
			require.Len(t, s.Types, 2)
			require.Len(t, s.Variables, 2)
			assert.Equal(t, Number(0x0200), s.Variables[1].Address)
			assert.Nil(t, s.Variables[1].Volatile)

			space, err := s.Space()
			require.NoError(t, err)
			eeprom, err := space.Config(addrspace.Eeprom)
			require.NoError(t, err)
			assert.Equal(t, addrspace.MemoryConfig{Offset: 0xF000, Start: 0, Final: 0x03FF}, eeprom)
			assert.Equal(t, uint16(0x1F00), space.EmulatedEepromBase)

			serial := s.SerialConfig("")
			assert.Equal(t, "/dev/ttyUSB0", serial.Port)
			assert.Equal(t, 57600, serial.BaudRate)
			assert.Equal(t, 8, serial.DataBits)
			assert.Equal(t, 250*time.Millisecond, serial.ReadTimeout)
			assert.Equal(t, "/dev/ttyACM1", s.SerialConfig("/dev/ttyACM1").Port)

			types, err := s.Compile()
			require.NoError(t, err)
			pump := types["pump_t"]
			require.NotNil(t, pump)
			assert.Equal(t, 1+3*3+8+2, pump.Size())
			assert.Equal(t, []int{0, 1, 10, 18}, ctype.Offsets(pump))
		})
	}
}

func TestBind(t *testing.T) {
	s, err := Load("testdata/pump.yaml")
	require.NoError(t, err)
	cfg, err := s.DeviceConfig()
	require.NoError(t, err)

	sim := simulator.New()
	eng := protocol.New(sim)
	require.NoError(t, eng.Open())
	defer eng.Close()
	dev, err := device.New(eng, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Bind(dev))
	assert.Equal(t, []string{"pump", "ticks"}, dev.Variables())

	ctx := context.Background()
	require.NoError(t, dev.Write(ctx, "pump.stages[1].speed", 1200))
	assert.Equal(t, []byte{0xB0, 0x04}, sim.Peek(0xF000+0x10+1+3, 2))

	sim.Load(0xE200, []byte{1, 2, 3})
	got, err := dev.Read(ctx, "ticks")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x030201), got)
}

func TestTypeExpressions(t *testing.T) {
	s := &Schema{Types: []TypeDecl{{
		Name:   "ab_t",
		Fields: []FieldDecl{{Name: "a", Type: "uint8"}, {Name: "b", Type: "uint16"}},
	}}}

	tests := []struct {
		expr string
		name string
		size int
	}{
		{"uint8", "uint8", 1},
		{"int35", "int35", 5},
		{"uint12", "uint12", 2},
		{"float24", "float24", 3},
		{"char[8]", "char[8]", 8},
		{"char[4][2]", "char[4][2]", 8},
		{"uint16[4]", "uint16[4]", 8},
		{"ab_t[0x2]", "ab_t[2]", 6},
		{"ab_t[2][3]", "ab_t[2][3]", 18},
		{"*ab_t@eeprom", "ab_t*", 2},
		{" *uint8[4]@flash ", "uint8[4]*", 2},
	}
	for _, tt := range tests {
		typ, err := s.TypeOf(tt.expr)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.name, typ.Name(), tt.expr)
		assert.Equal(t, tt.size, typ.Size(), tt.expr)
	}

	p, err := s.TypeOf("*ab_t@eeprom")
	require.NoError(t, err)
	_, kind := p.Target()
	assert.Equal(t, addrspace.Eeprom, kind)

	for _, bad := range []string{"", "char", "uint65", "int0", "ab_t[", "ab_t[0]", "ab_t[2]x", "*ab_t", "*ab_t@rom", "cd_t"} {
		_, err := s.TypeOf(bad)
		assert.Error(t, err, bad)
	}
}

func TestDeclarationErrors(t *testing.T) {
	self := &Schema{Types: []TypeDecl{{Name: "loop_t", Fields: []FieldDecl{{Name: "next", Type: "*loop_t@ram"}}}}}
	_, err := self.Compile()
	assert.Error(t, err)

	dup := &Schema{Types: []TypeDecl{
		{Name: "a_t", Fields: []FieldDecl{{Name: "x", Type: "uint8"}}},
		{Name: "a_t", Fields: []FieldDecl{{Name: "x", Type: "uint8"}}},
	}}
	_, err = dup.Compile()
	assert.Error(t, err)

	shadow := &Schema{Types: []TypeDecl{{Name: "uint8", Fields: []FieldDecl{{Name: "x", Type: "uint8"}}}}}
	_, err = shadow.Compile()
	assert.Error(t, err)

	missing := &Schema{Types: []TypeDecl{{Name: "a_t", Fields: []FieldDecl{{Name: "x", Type: "b_t"}}}}}
	_, err = missing.Compile()
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"a_t", "x"}, e.Path)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("backend: xc8\nbogus: 1\n"), FormatYAML)
	assert.Error(t, err, "unknown yaml key")

	_, err = Parse([]byte("backend = \"xc8\"\nbogus = 1\n"), FormatTOML)
	assert.Error(t, err, "unknown toml key")

	_, err = Parse([]byte("variables:\n  - {name: x, type: uint8, address: 0xZZ}\n"), FormatYAML)
	assert.Error(t, err)

	s, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, s.Variables)

	_, err = Parse(nil, Format("json"))
	assert.Error(t, err)

	_, err = FormatOf("layout.json")
	assert.Error(t, err)

	bad := &Schema{Spaces: map[string]SpaceEntry{"rom": {}}}
	_, err = bad.Space()
	assert.ErrorIs(t, err, errors.ErrUnknownMemoryKind)

	wide := &Schema{Spaces: map[string]SpaceEntry{"ram": {Offset: 0x10000}}}
	_, err = wide.Space()
	assert.Error(t, err)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want Number
		ok   bool
	}{
		{"0", 0, true},
		{"4096", 4096, true},
		{"0x1F00", 0x1F00, true},
		{" 0xe000 ", 0xE000, true},
		{"-1", 0, false},
		{"ten", 0, false},
	}
	for _, tt := range tests {
		var n Number
		err := n.UnmarshalText([]byte(tt.in))
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, n)
		} else {
			assert.Error(t, err, tt.in)
		}
	}

	var n Number
	assert.Error(t, n.UnmarshalTOML(int64(-5)))
	assert.Error(t, n.UnmarshalTOML(1.5))
	require.NoError(t, n.UnmarshalTOML(int64(7)))
	assert.Equal(t, Number(7), n)

	_, err := Number(0x10000).Uint16()
	assert.Error(t, err)
	assert.Equal(t, "0x1F00", Number(0x1F00).String())
}
