package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/device"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/protocol"
	"github.com/wippyai/mcu-facade/simulator"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"8, 1000", []string{"8", "1000"}},
		{"{8,1000}", []string{"8", "1000"}},
		{"{1, {2, 3}, \"a,b\"}", []string{"1", "{2, 3}", "\"a,b\""}},
		{"", nil},
		{"{}", nil},
		{"5", []string{"5"}},
		{"1,", []string{"1", ""}},
	}
	for _, tt := range tests {
		got, err := splitList(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"{1,2", "1,{2", "\"open", "1}"} {
		_, err := splitList(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseOperand(t *testing.T) {
	inner := ctype.StructOf("in_t", ctype.F("x", ctype.Int8), ctype.F("y", ctype.Float24))
	outer := ctype.StructOf("out_t",
		ctype.F("id", ctype.Uint16),
		ctype.F("in", inner),
		ctype.F("name", ctype.CharArray(6)),
		ctype.F("list", ctype.ArrayOf(ctype.Uint8, 2)),
	)

	got, err := parseOperand(`{0x10, {-2, 1.5}, "a, b", {1, 2}}`, outer)
	require.NoError(t, err)
	assert.Equal(t, []any{
		uint64(16),
		[]any{int64(-2), 1.5},
		"a, b",
		[]any{uint64(1), uint64(2)},
	}, got)

	_, err = parseOperand("{1, 2}", outer)
	assert.ErrorIs(t, err, errors.ErrArity)

	_, err = parseOperand("x", ctype.Uint8)
	assert.Error(t, err)

	raw, err := parseOperand("pump", ctype.CharArray(4))
	require.NoError(t, err)
	assert.Equal(t, "pump", raw)
}

func TestWriteValue(t *testing.T) {
	sim := simulator.New()
	eng := protocol.New(sim)
	require.NoError(t, eng.Open())
	defer eng.Close()
	dev, err := device.New(eng, device.DefaultConfig())
	require.NoError(t, err)

	abT := ctype.StructOf("ab_t", ctype.F("a", ctype.Uint8), ctype.F("b", ctype.Uint16))
	_, err = dev.Declare(abT, addrspace.Ram, 0x0100, device.Name("ab"))
	require.NoError(t, err)
	_, err = dev.Declare(ctype.PointerTo(ctype.Uint8, addrspace.Ram), addrspace.Ram, 0x0200, device.Name("p"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, writeValue(ctx, dev, "ab", "{8, 1000}"))
	assert.Equal(t, []byte{0x08, 0xE8, 0x03}, sim.Peek(0xE100, 3))

	require.NoError(t, writeValue(ctx, dev, "ab.b", "0x0102"))
	assert.Equal(t, []byte{0x02, 0x01}, sim.Peek(0xE101, 2))

	sim.Load(0xE200, []byte{0x00, 0x03})
	require.NoError(t, writeValue(ctx, dev, "p", "7"))
	assert.Equal(t, []byte{7}, sim.Peek(0xE300, 1))

	got, err := dev.Read(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(t, "ab_t(a=8, b=258)", formatRead(got))
}
