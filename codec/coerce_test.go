package codec

import (
	"math"
	"testing"
)

func TestCoerceToUint64(t *testing.T) {
	tests := []struct {
		input  any
		name   string
		want   uint64
		wantOK bool
	}{
		{uint64(math.MaxUint64), "uint64 max", math.MaxUint64, true},
		{uint8(255), "uint8 max", 255, true},
		{int(1000), "int positive", 1000, true},
		{int(-1), "int negative", 0, false},
		{int64(-5), "int64 negative", 0, false},
		{float64(42), "float64 integral", 42, true},
		{float64(3.99), "float64 truncates", 3, true},
		{float64(-0.5), "float64 small negative truncates to zero", 0, true},
		{float64(-1), "float64 negative", 0, false},
		{float32(100), "float32", 100, true},
		{true, "bool true", 1, true},
		{false, "bool false", 0, true},
		{"42", "decimal string", 42, true},
		{" 0x2A ", "hex string", 42, true},
		{"4.2", "fractional string", 0, false},
		{"hello", "text", 0, false},
		{nil, "nil", 0, false},
		{[]byte{1}, "bytes", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceToUint64(tt.input)
			if ok != tt.wantOK {
				t.Errorf("CoerceToUint64(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("CoerceToUint64(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceToInt64(t *testing.T) {
	tests := []struct {
		input  any
		name   string
		want   int64
		wantOK bool
	}{
		{int64(math.MinInt64), "int64 min", math.MinInt64, true},
		{int8(-128), "int8 min", -128, true},
		{uint64(math.MaxUint64), "uint64 too large", 0, false},
		{uint(7), "uint", 7, true},
		{float64(-3.7), "float64 truncates toward zero", -3, true},
		{math.Inf(1), "inf", 0, false},
		{"-17", "negative string", -17, true},
		{"-0x10", "negative hex string", -16, true},
		{"x", "text", 0, false},
		{struct{}{}, "struct", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceToInt64(tt.input)
			if ok != tt.wantOK {
				t.Errorf("CoerceToInt64(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("CoerceToInt64(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceToFloat64(t *testing.T) {
	tests := []struct {
		input  any
		name   string
		want   float64
		wantOK bool
	}{
		{float32(1.5), "float32", 1.5, true},
		{int(-2), "int", -2, true},
		{uint64(math.MaxUint64), "uint64 max", float64(math.MaxUint64), true},
		{"2.25", "string", 2.25, true},
		{true, "bool", 0, false},
		{"abc", "text", 0, false},
		{nil, "nil", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceToFloat64(tt.input)
			if ok != tt.wantOK {
				t.Errorf("CoerceToFloat64(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("CoerceToFloat64(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	if TypeName(nil) != "nil" {
		t.Error("TypeName(nil) should be nil")
	}
	if TypeName(uint8(1)) != "uint8" {
		t.Errorf("TypeName(uint8) = %s", TypeName(uint8(1)))
	}
}
