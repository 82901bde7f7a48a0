package tensor

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestNormalizeFloat32ZeroBuffer(t *testing.T) {
	t.Parallel()
	// One batch of a 3x224x224 image input, all zero.
	const count = 1 * 3 * 224 * 224
	raw := make([]byte, count*4)

	values, err := Normalize(raw, TypeFloat32, count)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(values) != 150528 {
		t.Fatalf("expected 150528 values, got %d", len(values))
	}
	for i, v := range values {
		if v.Type() != TypeFloat32 {
			t.Fatalf("value %d has type %s, want float32", i, v.Type())
		}
		if v.Float32() != 0 {
			t.Fatalf("value %d is %v, want 0", i, v.Float32())
		}
	}
}

func TestNormalizeFloat32RoundTrip(t *testing.T) {
	t.Parallel()
	want := []float32{0, 1.5, -2.25, float32(math.Pi)}
	raw := make([]byte, len(want)*4)
	for i, v := range want {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	values, err := Normalize(raw, TypeFloat32, len(want))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for i, v := range values {
		if v.Float32() != want[i] {
			t.Fatalf("value %d: got %v, want %v", i, v.Float32(), want[i])
		}
	}
}

func TestNormalizeInt64(t *testing.T) {
	t.Parallel()
	want := []int64{-1, 0, 42, math.MaxInt64}
	raw := make([]byte, len(want)*8)
	for i, v := range want {
		binary.LittleEndian.PutUint64(raw[i*8:], uint64(v))
	}

	values, err := Normalize(raw, TypeInt64, len(want))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for i, v := range values {
		if v.Type() != TypeInt64 {
			t.Fatalf("value %d has type %s, want int64", i, v.Type())
		}
		if v.Int64() != want[i] {
			t.Fatalf("value %d: got %d, want %d", i, v.Int64(), want[i])
		}
	}
}

func TestNormalizeUnsupportedDTypeIsTypedError(t *testing.T) {
	t.Parallel()
	_, err := Normalize(make([]byte, 8), TypeInvalid, 2)
	if !errors.Is(err, ErrUnsupportedDType) {
		t.Fatalf("expected ErrUnsupportedDType, got %v", err)
	}
	var dtypeErr *UnsupportedDTypeError
	if !errors.As(err, &dtypeErr) {
		t.Fatalf("expected UnsupportedDTypeError, got %v", err)
	}
}

func TestNormalizeShortBuffer(t *testing.T) {
	t.Parallel()
	if _, err := Normalize(make([]byte, 7), TypeFloat32, 2); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestElementAccessors(t *testing.T) {
	t.Parallel()
	if v := Float32Element(1.25); v.Float32() != 1.25 || v.Type() != TypeFloat32 {
		t.Fatalf("float32 element broken: %v", v.Value())
	}
	if v := Int32Element(-7); v.Int32() != -7 || v.Type() != TypeInt32 {
		t.Fatalf("int32 element broken: %v", v.Value())
	}
	if v := Int64Element(-9); v.Int64() != -9 || v.Type() != TypeInt64 {
		t.Fatalf("int64 element broken: %v", v.Value())
	}
	if v := Uint8Element(255); v.Uint8() != 255 || v.Type() != TypeUint8 {
		t.Fatalf("uint8 element broken: %v", v.Value())
	}
}

func TestParseElementTypeRoundTrip(t *testing.T) {
	t.Parallel()
	for _, dtype := range []ElementType{TypeFloat32, TypeInt32, TypeInt64, TypeUint8} {
		parsed, err := ParseElementType(dtype.String())
		if err != nil {
			t.Fatalf("parse %s: %v", dtype, err)
		}
		if parsed != dtype {
			t.Fatalf("round trip %s: got %s", dtype, parsed)
		}
	}
	if _, err := ParseElementType("complex128"); err == nil {
		t.Fatal("expected error for unknown type name")
	}
}
