package protocol

import (
	"bytes"
	"testing"

	"github.com/wippyai/mcu-facade/errors"
)

func allBytes() []byte {
	out := make([]byte, 256)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x00},
		{ESC},
		{EXIT, GET, SET, ESC, ACK, NACK},
		{ESC, ESC, ESC},
		allBytes(),
	}
	for _, in := range inputs {
		enc := Escape(nil, in)
		got, err := Unescape(enc)
		if err != nil {
			t.Fatalf("Unescape(% X): %v", enc, err)
		}
		if !bytes.Equal(got, in) && !(len(got) == 0 && len(in) == 0) {
			t.Errorf("round trip of % X = % X", in, got)
		}

		enc = EscapeResponse(nil, in)
		got, err = UnescapeResponse(enc)
		if err != nil {
			t.Fatalf("UnescapeResponse(% X): %v", enc, err)
		}
		if !bytes.Equal(got, in) && !(len(got) == 0 && len(in) == 0) {
			t.Errorf("response round trip of % X = % X", in, got)
		}
	}
}

func TestEscapeReservedSets(t *testing.T) {
	enc := Escape(nil, allBytes())
	if len(enc) != 256+4 {
		t.Errorf("host escaping grew 256 bytes to %d, want 260", len(enc))
	}
	for _, b := range enc {
		if b == EXIT || b == GET || b == SET {
			t.Fatalf("reserved byte 0x%02X left unescaped", b)
		}
	}

	enc = EscapeResponse(nil, allBytes())
	if len(enc) != 256+3 {
		t.Errorf("device escaping grew 256 bytes to %d, want 259", len(enc))
	}
	for _, b := range enc {
		if b == ACK || b == NACK {
			t.Fatalf("reserved byte 0x%02X left unescaped", b)
		}
	}
}

func TestEscapeSequence(t *testing.T) {
	tests := []struct {
		in   byte
		want byte
	}{
		{ESC, 0x55},
		{GET, 0x09},
		{SET, 0x1D},
		{EXIT, 0x16},
		{ACK, 0x59},
		{NACK, 0x5B},
	}
	for _, tt := range tests {
		if got := EscapeByte(tt.in); got != tt.want {
			t.Errorf("EscapeByte(0x%02X) = 0x%02X, want 0x%02X", tt.in, got, tt.want)
		}
		if got := UnescapeByte(tt.want); got != tt.in {
			t.Errorf("UnescapeByte(0x%02X) = 0x%02X, want 0x%02X", tt.want, got, tt.in)
		}
	}
}

func TestUnescapeErrors(t *testing.T) {
	if _, err := Unescape([]byte{0x01, ESC}); !errors.Is(err, errors.ErrFraming) {
		t.Errorf("dangling escape: got %v", err)
	}
	// ACK is not a host reserved byte.
	if _, err := Unescape([]byte{ESC, EscapeByte(ACK)}); !errors.Is(err, errors.ErrFraming) {
		t.Errorf("host escape of ACK: got %v", err)
	}
	if _, err := UnescapeResponse([]byte{ESC, EscapeByte(GET)}); !errors.Is(err, errors.ErrFraming) {
		t.Errorf("device escape of GET: got %v", err)
	}
}

func TestEncodeCommands(t *testing.T) {
	got := EncodeGet(0xE100, 3)
	want := []byte{GET, 0x00, 0xE1, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeGet = % X, want % X", got, want)
	}

	// 0x471B: address and length bytes are all reserved.
	got = EncodeGet(0x471B, 0x53)
	want = []byte{GET, ESC, 0x55, ESC, 0x09, ESC, 0x1D}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeGet escaped = % X, want % X", got, want)
	}

	got = EncodeSet(0xF000, []byte{0x08, 0xE8, 0x03})
	want = []byte{SET, 0x00, 0xF0, 0x03, 0x08, 0xE8, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeSet = % X, want % X", got, want)
	}

	got = EncodeSet(0x0001, []byte{'X'})
	want = []byte{SET, 0x01, 0x00, 0x01, ESC, 0x16}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeSet escaped = % X, want % X", got, want)
	}
}
