package snapshot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/device"
	"github.com/wippyai/mcu-facade/errors"
)

// FormatVersion is written into every file.
const FormatVersion = 1

// Snapshot is one captured value.
type Snapshot struct {
	Taken   time.Time            `cbor:"1,keyasint"`
	Name    string               `cbor:"2,keyasint,omitempty"`
	Type    string               `cbor:"3,keyasint"`
	Kind    addrspace.MemoryKind `cbor:"4,keyasint"`
	Address uint16               `cbor:"5,keyasint"`
	Data    []byte               `cbor:"6,keyasint"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s %s @%s:0x%04X (%d bytes)", s.Name, s.Type, s.Kind, s.Address, len(s.Data))
}

// File is the on-disk container.
type File struct {
	Version   int        `cbor:"1,keyasint"`
	Snapshots []Snapshot `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR decoder mode: %v", err))
	}
}

// Capture reads v from the device in one pass.
func Capture(ctx context.Context, v ctype.Value) (Snapshot, error) {
	link := v.Link()
	s := Snapshot{Taken: time.Now().UTC(), Type: v.Type().Name(), Kind: link.Kind()}
	if p := v.Path(); len(p) > 0 {
		s.Name = errors.JoinPath(p)
	}
	if link.Allocated() {
		addr, err := link.Address(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		s.Address = addr
	}
	data, err := ctype.ReadCanonical(ctx, v)
	if err != nil {
		return Snapshot{}, err
	}
	s.Data = data
	return s, nil
}

// Restore writes s back into v. The type name and size must match.
func Restore(ctx context.Context, v ctype.Value, s Snapshot) error {
	if s.Type != v.Type().Name() {
		return errors.New(errors.PhaseWrite, errors.KindInvalidInput).
			Path(v.Path()...).CType(v.Type().Name()).
			Detail("snapshot holds %s", s.Type).Build()
	}
	return ctype.WriteCanonical(ctx, v, s.Data)
}

// CaptureAll captures every named variable of dev in declaration order.
func CaptureAll(ctx context.Context, dev *device.Device) ([]Snapshot, error) {
	names := dev.Variables()
	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		v, _ := dev.Variable(name)
		s, err := Capture(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// RestoreAll writes each snapshot into the variable of the same name.
// Snapshots without a matching variable are an error; nothing is written
// after the first failure.
func RestoreAll(ctx context.Context, dev *device.Device, snaps []Snapshot) error {
	for _, s := range snaps {
		v, ok := dev.Variable(s.Name)
		if !ok {
			return errors.NotFound(errors.PhaseWrite, "variable", s.Name)
		}
		if err := Restore(ctx, v, s); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes snapshots as a CBOR file body.
func Marshal(snaps []Snapshot) ([]byte, error) {
	return encMode.Marshal(File{Version: FormatVersion, Snapshots: snaps})
}

// Unmarshal decodes a file body.
func Unmarshal(data []byte) ([]Snapshot, error) {
	var f File
	if err := decMode.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "decode snapshot")
	}
	if f.Version != FormatVersion {
		return nil, errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("snapshot format version %d", f.Version))
	}
	return f.Snapshots, nil
}

// Save writes snapshots to path.
func Save(path string, snaps []Snapshot) error {
	data, err := Marshal(snaps)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads snapshots from path.
func Load(path string) ([]Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return Unmarshal(data)
}
