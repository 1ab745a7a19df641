package trace

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []Event {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	return []Event{
		{Timestamp: now, Engine: "e1", Seq: 1, Op: OpGet, Address: 0xE000, Length: 2, Data: []byte{0x1B, 0x17}, Duration: 3 * time.Millisecond},
		{Timestamp: now.Add(time.Second), Engine: "e1", Seq: 2, Op: OpSet, Address: 0xF000, Length: 1, Data: []byte{9}, Outcome: OutcomeNack},
		{Timestamp: now.Add(2 * time.Second), Engine: "e2", Seq: 1, Op: OpGet, Address: 0x0100, Length: 4, Outcome: OutcomeError, Error: "timeout"},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	e := sampleEvents()[0]
	b, err := EncodeEvent(e)
	require.NoError(t, err)
	got, err := DecodeEvent(b)
	require.NoError(t, err)
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
	got.Timestamp = e.Timestamp
	assert.Equal(t, e, got)
}

func TestFileRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wire.ftrace")
	rec, err := NewFileRecorder(path)
	require.NoError(t, err)
	for _, e := range sampleEvents() {
		rec.Record(e)
	}
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Err())

	// Ignored after close.
	rec.Record(Event{Seq: 99})
	require.NoError(t, rec.Close())

	events, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Equal(t, OutcomeNack, events[1].Outcome)
	assert.Equal(t, "timeout", events[2].Error)
}

func TestFileRecorderAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wire.ftrace")
	for i := 0; i < 2; i++ {
		rec, err := NewFileRecorder(path)
		require.NoError(t, err)
		rec.Record(Event{Seq: uint64(i + 1), Op: OpGet})
		require.NoError(t, rec.Close())
	}
	events, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wire.ftrace")
	rec, err := NewFileRecorder(path)
	require.NoError(t, err)
	for _, e := range sampleEvents() {
		rec.Record(e)
	}
	require.NoError(t, rec.Close())

	get := OpGet
	r, err := NewFilteredReader(path, Filter{Op: &get, Engine: "e1"})
	require.NoError(t, err)
	defer r.Close()
	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.Seq)
	_, err = r.Next()
	assert.Error(t, err)

	addr := uint16(0x0102)
	r2, err := NewFilteredReader(path, Filter{Address: &addr})
	require.NoError(t, err)
	defer r2.Close()
	e, err = r2.Next()
	require.NoError(t, err)
	assert.Equal(t, "e2", e.Engine)
}

func TestMemoryAndMulti(t *testing.T) {
	var a, b MemoryRecorder
	var n int
	m := Multi{&a, &b, RecorderFunc(func(Event) { n++ })}
	m.Record(Event{Seq: 1})
	m.Record(Event{Seq: 2})
	assert.Len(t, a.Events(), 2)
	assert.Len(t, b.Events(), 2)
	assert.Equal(t, 2, n)
	a.Reset()
	assert.Empty(t, a.Events())
}

func TestEventString(t *testing.T) {
	e := Event{Seq: 4, Op: OpSet, Address: 0xE100, Length: 2, Data: []byte{0x08, 0xE8}}
	assert.Equal(t, "#4 SET 0xE100/2 ACK 08 E8", e.String())
}
