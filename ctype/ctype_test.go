package ctype

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/memlink"
	"github.com/wippyai/mcu-facade/protocol"
	"github.com/wippyai/mcu-facade/simulator"
	"github.com/wippyai/mcu-facade/trace"
)

var ctx = context.Background()

type rig struct {
	env *memlink.Env
	dev *simulator.Device
	rec *trace.MemoryRecorder
}

func newRig(t *testing.T) *rig {
	t.Helper()
	dev := simulator.New()
	rec := &trace.MemoryRecorder{}
	eng := protocol.New(dev, protocol.WithRecorder(rec))
	require.NoError(t, eng.Open())
	t.Cleanup(func() { _ = eng.Close() })
	space := addrspace.Default()
	env, err := memlink.NewEnv(eng, space, addrspace.NewXC8(space))
	require.NoError(t, err)
	return &rig{env: env, dev: dev, rec: rec}
}

func (r *rig) bind(t *Type, kind addrspace.MemoryKind, addr uint16, volatile bool) Value {
	return BindAs("v", t, memlink.Root(r.env, addr, kind, volatile))
}

var abT = StructOf("ab_t", F("a", Uint8), F("b", Uint16))

func TestStructOffsets(t *testing.T) {
	s := StructOf("x_t", F("p", Uint8), F("q", Uint16), F("r", Uint32))
	assert.Equal(t, []int{0, 1, 3}, Offsets(s))
	assert.Equal(t, 7, s.Size())

	// Names do not matter.
	s2 := StructOf("y_t", F("zz", Uint8), F("aa", Int16), F("mm", Float24), F("bb", Uint8))
	assert.Equal(t, []int{0, 1, 3, 6}, Offsets(s2))

	arr := ArrayOf(Uint24, 4)
	assert.Equal(t, []int{0, 3, 6, 9}, Offsets(arr))
	assert.Equal(t, 12, arr.Size())
	assert.Nil(t, Offsets(Uint8))
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "uint35", Uint35.Name())
	assert.Equal(t, 5, Uint35.Size())
	assert.Equal(t, 5, Int40.Size())
	assert.Equal(t, 3, Uint24.Size())
	assert.Equal(t, "char[8]", CharArray(8).Name())
	assert.Equal(t, "uint8[4]", ArrayOf(Uint8, 4).Name())
	assert.Equal(t, "ab_t*", PointerTo(abT, addrspace.Ram).Name())
	assert.Equal(t, 2, PointerTo(abT, addrspace.Ram).Size())
	assert.Equal(t, AnonTag, AnonStruct(F("x", Uint8)).Name())
	assert.Equal(t, 2, abT.Count())
	assert.Equal(t, 4, ArrayOf(Uint8, 4).Count())
	assert.Equal(t, 1, Uint8.Count())
}

func TestDeclarationErrors(t *testing.T) {
	_, err := NewStruct("dup_t", F("a", Uint8), F("a", Uint8))
	assert.Error(t, err)
	_, err = NewStruct("empty_t")
	assert.Error(t, err)
	_, err = NewStruct("nil_t", F("a", nil))
	assert.Error(t, err)
	_, err = NewArray(Uint8, 0)
	assert.Error(t, err)
	assert.Panics(t, func() { CharArray(0) })
	assert.Panics(t, func() { Uint(65) })
}

func TestRecordName(t *testing.T) {
	assert.Equal(t, "uint8_4", RecordName("uint8[4]"))
	assert.Equal(t, "ab_t_ptr", RecordName("ab_t*"))
	assert.Equal(t, "_anon_structure", RecordName(AnonTag))
	assert.Equal(t, "Facade_ab_t", RecordName("Facade<ab_t>"))
}

func TestEndToEndStructWrite(t *testing.T) {
	r := newRig(t)
	v := r.bind(abT, addrspace.Ram, 0x0100, false).(*Struct)

	require.NoError(t, v.Write(ctx, []any{8, 1000}))

	events := r.rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, trace.OpSet, events[0].Op)
	assert.Equal(t, uint16(0xE000+0x0100), events[0].Address)
	assert.Equal(t, 3, events[0].Length)
	assert.Equal(t, []byte{0x08, 0xE8, 0x03}, events[0].Data)

	a, err := v.Field("a").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), a)
	assert.Len(t, r.rec.Events(), 1, "non-volatile read after write stays off the wire")
}

func TestEndToEndVolatileReadBack(t *testing.T) {
	r := newRig(t)
	v := r.bind(abT, addrspace.Ram, 0x0100, true).(*Struct)

	require.NoError(t, v.Write(ctx, []any{8, 1000}))
	a, err := v.Field("a").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), a)

	events := r.rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, trace.OpGet, events[1].Op)
	assert.Equal(t, uint16(0xE100), events[1].Address)
	assert.Equal(t, 1, events[1].Length)
}

func TestStructRead(t *testing.T) {
	r := newRig(t)
	r.dev.Load(0xE200, []byte{0x07, 0x34, 0x12})
	v := r.bind(abT, addrspace.Ram, 0x0200, true)

	got, err := v.Read(ctx)
	require.NoError(t, err)
	rec, ok := got.(Record)
	require.True(t, ok)
	assert.Equal(t, "ab_t", rec.Name)
	assert.Equal(t, []string{"a", "b"}, rec.Fields)
	assert.Equal(t, []any{uint64(7), uint64(0x1234)}, rec.Values)
	assert.Equal(t, "ab_t(a=7, b=4660)", rec.String())
	assert.Equal(t, map[string]any{"a": uint64(7), "b": uint64(0x1234)}, rec.Map())
	assert.Equal(t, []byte{0x07, 0x34, 0x12}, v.Mirror())
	assert.Equal(t, "ab_t(a=7[0x07], b=4660[0x3412])", v.String())
}

func TestArity(t *testing.T) {
	r := newRig(t)
	three := StructOf("t3", F("a", Uint8), F("b", Uint8), F("c", Uint8))
	v := r.bind(three, addrspace.Ram, 0x0000, true)

	err := v.Write(ctx, []any{1, 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrArity)
	assert.Empty(t, r.rec.Events(), "no I/O on arity failure")

	one := StructOf("t1", F("a", Uint8))
	require.NoError(t, r.bind(one, addrspace.Ram, 0x0010, true).Write(ctx, 5))
	assert.Equal(t, []byte{5}, r.dev.Peek(0xE010, 1))

	err = r.bind(Uint8, addrspace.Ram, 0, true).Write(ctx, []int{1, 2})
	assert.ErrorIs(t, err, errors.ErrArity)
	require.NoError(t, r.bind(Uint8, addrspace.Ram, 0x20, true).Write(ctx, []int{9}))
}

func TestNestedArityBeforeIO(t *testing.T) {
	r := newRig(t)
	outer := StructOf("outer_t", F("x", Uint8), F("in", abT))
	v := r.bind(outer, addrspace.Ram, 0, true)

	err := v.Write(ctx, []any{1, []any{2}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrArity)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "v.in", errors.JoinPath(e.Path))

	err = v.Write(ctx, []any{1, []any{2, "nope"}})
	assert.ErrorIs(t, err, errors.ErrConversion)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "v.in.b", errors.JoinPath(e.Path))
	assert.Empty(t, r.rec.Events())
}

func TestVolatility(t *testing.T) {
	for _, volatile := range []bool{false, true} {
		r := newRig(t)
		v := r.bind(Uint16, addrspace.Ram, 0x0300, volatile)
		for i := 0; i < 2; i++ {
			_, err := v.Read(ctx)
			require.NoError(t, err)
		}
		want := 1
		if volatile {
			want = 2
		}
		assert.Equal(t, want, r.dev.GetsAt(0xE300), "volatile=%v", volatile)
	}
}

func TestReadWriteRejected(t *testing.T) {
	r := newRig(t)
	r.dev.RejectWrites(0xE000, 0xEFFF)
	v := r.bind(abT, addrspace.Ram, 0, false)
	err := v.Write(ctx, []any{1, 2})
	assert.ErrorIs(t, err, errors.ErrRemoteWriteRejected)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"v"}, e.Path)

	r.dev.RejectReads(0xE000, 0xE000)
	_, err = v.(*Struct).Field("a").Read(ctx)
	assert.ErrorIs(t, err, errors.ErrDeviceRejected)
}

func TestSignedAndFloat(t *testing.T) {
	r := newRig(t)
	s := StructOf("mix_t", F("i", Int35), F("f", Float24), F("name", CharArray(6)))
	v := r.bind(s, addrspace.Eeprom, 0x0040, true)

	require.NoError(t, v.Write(ctx, []any{-5, 1.5, "pump"}))
	got, err := v.Read(ctx)
	require.NoError(t, err)
	rec := got.(Record)
	assert.Equal(t, int64(-5), rec.Values[0])
	assert.Equal(t, 1.5, rec.Values[1])
	assert.Equal(t, "pump\x00\x00", rec.Values[2])
}

func TestArray(t *testing.T) {
	r := newRig(t)
	v := r.bind(ArrayOf(Uint16, 3), addrspace.Ram, 0x0400, false).(*Array)

	require.NoError(t, v.Write(ctx, []uint16{1, 2, 0x0303}))
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 3}, r.dev.Peek(0xE400, 6))

	got, err := v.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(1), uint64(2), uint64(0x0303)}, got)
	assert.Zero(t, r.dev.Stats().Gets)

	require.NoError(t, v.Index(2).Write(ctx, 9))
	assert.Equal(t, []byte{9, 0}, r.dev.Peek(0xE404, 2))
	assert.Nil(t, v.Index(3))
	assert.Len(t, v.Elements(), 3)
	assert.Equal(t, "[1[0x0100], 2[0x0200], 9[0x0900]]", v.String())
}

func TestCopyBetweenValues(t *testing.T) {
	r := newRig(t)
	r.dev.Load(0xE000, []byte{3, 4, 0})
	src := r.bind(abT, addrspace.Ram, 0x0000, true)
	dst := r.bind(abT, addrspace.Ram, 0x0010, true)

	require.NoError(t, dst.Write(ctx, src))
	assert.Equal(t, []byte{3, 4, 0}, r.dev.Peek(0xE010, 3))

	rec, err := src.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, dst.Write(ctx, rec))
}

func TestPointerToPrimitive(t *testing.T) {
	r := newRig(t)
	// RAM pointer at 0x0050 pointing to EEPROM device address 0x0010.
	r.dev.Load(0xE050, []byte{0x10, 0x9F})
	r.dev.Load(0xF010, []byte{0x34, 0x12})
	p := r.bind(PointerTo(Uint16, addrspace.Eeprom), addrspace.Ram, 0x0050, true).(*Pointer)

	got, err := p.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), got)

	raw, err := p.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x9F10), raw)

	require.NoError(t, p.Write(ctx, 0xBEEF))
	assert.Equal(t, []byte{0xEF, 0xBE}, r.dev.Peek(0xF010, 2))

	require.NoError(t, p.SetAddress(ctx, 0x9F20))
	addr, err := p.TargetAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0020), addr)
	assert.Equal(t, addrspace.Eeprom, p.TargetKind())

	require.NoError(t, p.SetAddress(ctx, 0x0010))
	_, err = p.Read(ctx)
	assert.ErrorIs(t, err, errors.ErrAddressTranslation)
}

func TestPointerToStruct(t *testing.T) {
	r := newRig(t)
	r.dev.Load(0xE060, []byte{0x00, 0x02}) // RAM pointer to 0x0200
	r.dev.Load(0xE200, []byte{0x01, 0x02, 0x00})
	p := r.bind(PointerTo(abT, addrspace.Ram), addrspace.Ram, 0x0060, true).(*Pointer)

	got, err := p.Read(ctx)
	require.NoError(t, err)
	target, ok := got.(*Struct)
	require.True(t, ok)
	b, err := target.Field("b").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), b)

	// Repointing moves the target.
	r.dev.Load(0xE060, []byte{0x00, 0x03})
	r.dev.Load(0xE301, []byte{0x07, 0x00})
	b, err = target.Field("b").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), b)
}

func TestStructWithPointerField(t *testing.T) {
	r := newRig(t)
	node := StructOf("node_t", F("id", Uint8), F("next", PointerTo(Uint8, addrspace.Ram)))
	v := r.bind(node, addrspace.Ram, 0x0070, false).(*Struct)

	require.NoError(t, v.Write(ctx, []any{1, 0x0080}))
	got, err := v.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(1), uint64(0x0080)}, got.(Record).Values)

	r.dev.Load(0xE080, []byte{42})
	deref, err := v.Field("next").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), deref)
}

func TestUnbound(t *testing.T) {
	v := New(abT).(*Struct)
	got, err := v.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(0), uint64(0)}, got.(Record).Values)

	require.NoError(t, v.Write(ctx, []any{8, 1000}))
	assert.Equal(t, []byte{0x08, 0xE8, 0x03}, v.Mirror())
	b, err := v.Field("b").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), b)

	assert.ErrorIs(t, v.Write(ctx, []any{1}), errors.ErrArity)

	p := New(PointerTo(Uint8, addrspace.Ram)).(*Pointer)
	require.NoError(t, p.SetAddress(ctx, 0x10))
	got, err = p.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestResolve(t *testing.T) {
	r := newRig(t)
	cfg := StructOf("cfg_t",
		F("mode", Uint8),
		F("table", ArrayOf(abT, 3)),
		F("ext", PointerTo(abT, addrspace.Ram)),
	)
	v := r.bind(cfg, addrspace.Ram, 0x0000, true)

	b, err := Resolve(v, "table[2].b")
	require.NoError(t, err)
	off, err := b.Link().Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1+2*3+1), off)
	assert.Equal(t, "v.table[2].b", errors.JoinPath(b.Path()))

	// ext sits at offset 10 and points to 0x0500.
	r.dev.Load(0xE00A, []byte{0x00, 0x05})
	a, err := Resolve(v, "ext.a")
	require.NoError(t, err)
	addr, err := a.Link().Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0500), addr)

	_, err = Resolve(v, "table[3]")
	assert.Equal(t, errors.KindOutOfBounds, errors.KindOf(err))
	_, err = Resolve(v, "nope")
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	_, err = Resolve(v, "mode.x")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
	_, err = Resolve(v, "[0]")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
	_, err = Resolve(v, "table.x")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestParsePath(t *testing.T) {
	segs, err := ParsePath("cfg.table[0x2][1].gain")
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Name: "cfg"},
		{Name: "table"},
		{Index: 2, IsIndex: true},
		{Index: 1, IsIndex: true},
		{Name: "gain"},
	}, segs)

	for _, bad := range []string{"", ".a", "a.", "a..b", "a[", "a[x]", "a[-1]", "a[1]b", "a.[1]"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestCanonical(t *testing.T) {
	r := newRig(t)
	r.dev.Load(0xE500, []byte{0x11, 0x22, 0x33})
	v := r.bind(abT, addrspace.Ram, 0x0500, false).(*Struct)

	b, err := ReadCanonical(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22, 0x33}, b)
	assert.Equal(t, 1, r.dev.Stats().Gets)

	got, err := v.Field("b").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x3322), got)
	assert.Equal(t, 1, r.dev.Stats().Gets, "children refreshed from the whole read")

	require.NoError(t, WriteCanonical(ctx, v, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, r.dev.Peek(0xE500, 3))
	assert.Equal(t, []byte{1, 2, 3}, v.Mirror())

	err = WriteCanonical(ctx, v, []byte{1})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}
