package snapshot

import (
	"context"
	"path/filepath"
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

var tuneT = ctype.StructOf("tune_t",
	ctype.F("kp", ctype.Int16),
	ctype.F("ki", ctype.Int16),
	ctype.F("name", ctype.CharArray(4)),
)

func setup(t *testing.T) (*device.Device, *simulator.Device) {
	t.Helper()
	sim := simulator.New()
	eng := protocol.New(sim)
	require.NoError(t, eng.Open())
	t.Cleanup(func() { _ = eng.Close() })
	dev, err := device.New(eng, device.DefaultConfig())
	require.NoError(t, err)
	_, err = dev.Declare(tuneT, addrspace.Eeprom, 0x0100, device.Name("tune"))
	require.NoError(t, err)
	_, err = dev.Declare(ctype.Uint8, addrspace.Ram, 0x0010, device.Name("flag"))
	require.NoError(t, err)
	return dev, sim
}

func TestCaptureRestore(t *testing.T) {
	ctx := context.Background()
	dev, sim := setup(t)
	sim.Load(0xF100, []byte{0x10, 0x00, 0xFE, 0xFF, 'p', 'i', 'd', 0})
	sim.Load(0xE010, []byte{1})

	snaps, err := CaptureAll(ctx, dev)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "tune", snaps[0].Name)
	assert.Equal(t, "tune_t", snaps[0].Type)
	assert.Equal(t, addrspace.Eeprom, snaps[0].Kind)
	assert.Equal(t, uint16(0x0100), snaps[0].Address)
	assert.Equal(t, []byte{0x10, 0x00, 0xFE, 0xFF, 'p', 'i', 'd', 0}, snaps[0].Data)
	assert.Equal(t, 1, sim.GetsAt(0xF100), "one transfer for the whole struct")

	path := filepath.Join(t.TempDir(), "backup.cbor")
	require.NoError(t, Save(path, snaps))

	require.NoError(t, dev.Write(ctx, "tune.kp", 99))
	require.NoError(t, dev.Write(ctx, "flag", 0))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, snaps[0].Taken.Equal(loaded[0].Taken))
	require.NoError(t, RestoreAll(ctx, dev, loaded))

	assert.Equal(t, []byte{0x10, 0x00, 0xFE, 0xFF, 'p', 'i', 'd', 0}, sim.Peek(0xF100, 8))
	assert.Equal(t, []byte{1}, sim.Peek(0xE010, 1))

	kp, err := dev.Read(ctx, "tune.kp")
	require.NoError(t, err)
	assert.Equal(t, int64(16), kp)
}

func TestRestoreMismatch(t *testing.T) {
	ctx := context.Background()
	dev, sim := setup(t)
	v, _ := dev.Variable("tune")

	err := Restore(ctx, v, Snapshot{Type: "other_t", Data: make([]byte, 8)})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	err = Restore(ctx, v, Snapshot{Type: "tune_t", Data: []byte{1}})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	err = RestoreAll(ctx, dev, []Snapshot{{Name: "ghost", Type: "uint8", Data: []byte{0}}})
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	assert.Zero(t, sim.Stats().Sets)
}

func TestRestoreRejected(t *testing.T) {
	ctx := context.Background()
	dev, sim := setup(t)
	v, _ := dev.Variable("tune")
	sim.RejectWrites(0xF100, 0xF107)

	err := Restore(ctx, v, Snapshot{Type: "tune_t", Data: make([]byte, 8)})
	assert.ErrorIs(t, err, errors.ErrRemoteWriteRejected)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := Unmarshal([]byte{0xFF})
	assert.Error(t, err)

	data, err := encMode.Marshal(File{Version: 99})
	require.NoError(t, err)
	_, err = Unmarshal(data)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))

	_, err = Load(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)
}
