package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedDType marks a native buffer whose element type has no generic
// variant. The call that produced the buffer fails; nothing is truncated or
// reinterpreted, and nothing terminates the process.
var ErrUnsupportedDType = errors.New("unsupported_dtype")

// UnsupportedDTypeError reports the runtime's type string so the caller can
// tell which backend/model combination is unsupported.
type UnsupportedDTypeError struct {
	DType string
}

func (e *UnsupportedDTypeError) Error() string {
	return fmt.Sprintf("unsupported tensor element type %q", e.DType)
}

func (e *UnsupportedDTypeError) Unwrap() error {
	return ErrUnsupportedDType
}

// Normalize decodes count elements of the given type from a little-endian raw
// buffer into a homogeneous element sequence.
func Normalize(raw []byte, dtype ElementType, count int) ([]Element, error) {
	if count < 0 {
		return nil, fmt.Errorf("negative element count %d", count)
	}
	size := dtype.Size()
	if size == 0 {
		return nil, &UnsupportedDTypeError{DType: dtype.String()}
	}
	if need := count * size; len(raw) < need {
		return nil, fmt.Errorf("buffer too short for %d %s elements: have %d bytes, need %d",
			count, dtype, len(raw), need)
	}

	out := make([]Element, count)
	switch dtype {
	case TypeFloat32:
		for i := 0; i < count; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = Float32Element(math.Float32frombits(bits))
		}
	case TypeInt32:
		for i := 0; i < count; i++ {
			out[i] = Int32Element(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case TypeInt64:
		for i := 0; i < count; i++ {
			out[i] = Int64Element(int64(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	case TypeUint8:
		for i := 0; i < count; i++ {
			out[i] = Uint8Element(raw[i])
		}
	default:
		return nil, &UnsupportedDTypeError{DType: dtype.String()}
	}
	return out, nil
}

// NormalizeFloat32 converts an already-typed float32 slice. Backends whose
// runtime hands back typed slices use this instead of round-tripping through
// raw bytes.
func NormalizeFloat32(data []float32) []Element {
	out := make([]Element, len(data))
	for i, v := range data {
		out[i] = Float32Element(v)
	}
	return out
}

// NormalizeInt64 is the int64 counterpart of NormalizeFloat32.
func NormalizeInt64(data []int64) []Element {
	out := make([]Element, len(data))
	for i, v := range data {
		out[i] = Int64Element(v)
	}
	return out
}
