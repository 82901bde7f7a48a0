package tensor

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/samcharles93/inferd/internal/shape"
)

func float32Tensor(dims []int64, fill float32) *RawTensor {
	count := int(shape.NumElements(dims))
	data := make([]byte, count*4)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(fill))
	}
	return NewRawTensor(dims, TypeFloat32, data)
}

func int64Tensor(dims []int64, fill int64) *RawTensor {
	count := int(shape.NumElements(dims))
	data := make([]byte, count*8)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint64(data[i*8:], uint64(fill))
	}
	return NewRawTensor(dims, TypeInt64, data)
}

func TestFlattenSingleTensor(t *testing.T) {
	t.Parallel()
	out, err := Flatten(Single(float32Tensor([]int64{1, 1000}, 0.5)), nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(out.Values) != 1 || len(out.Shapes) != 1 {
		t.Fatalf("expected one output pair, got %d/%d", len(out.Values), len(out.Shapes))
	}
	if len(out.Values[0]) != 1000 {
		t.Fatalf("expected 1000 elements, got %d", len(out.Values[0]))
	}
	if out.Values[0][0].Float32() != 0.5 {
		t.Fatalf("unexpected element value %v", out.Values[0][0].Float32())
	}
}

func TestFlattenTupleSkipsNonTensorElements(t *testing.T) {
	t.Parallel()
	// Three-element tuple where element 2 is not tensor-typed: the result
	// keeps elements 0 and 1 and skips element 2 without error.
	res := Tuple(
		float32Tensor([]int64{1, 4}, 1),
		int64Tensor([]int64{1, 2}, 7),
		nil,
	)
	out, err := Flatten(res, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(out.Values) != 2 {
		t.Fatalf("expected 2 normalized tensors, got %d", len(out.Values))
	}
	if out.Values[0][0].Type() != TypeFloat32 || out.Values[1][0].Type() != TypeInt64 {
		t.Fatalf("unexpected element types %s/%s", out.Values[0][0].Type(), out.Values[1][0].Type())
	}
}

func TestFlattenList(t *testing.T) {
	t.Parallel()
	res := List(
		float32Tensor([]int64{2, 3}, 0),
		float32Tensor([]int64{2, 5}, 0),
		float32Tensor([]int64{2, 7}, 0),
	)
	out, err := Flatten(res, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(out.Values) != 3 {
		t.Fatalf("expected 3 tensors, got %d", len(out.Values))
	}
}

func TestFlattenElementCountMatchesShapeProduct(t *testing.T) {
	t.Parallel()
	res := Tuple(
		float32Tensor([]int64{2, 3, 4}, 0),
		int64Tensor([]int64{5}, 0),
	)
	out, err := Flatten(res, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	for i := range out.Values {
		want := shape.NumElements(out.Shapes[i])
		if int64(len(out.Values[i])) != want {
			t.Fatalf("tensor %d: %d elements, shape %v implies %d",
				i, len(out.Values[i]), out.Shapes[i], want)
		}
	}
}

func TestFlattenUnrecognizedKindFails(t *testing.T) {
	t.Parallel()
	_, err := Flatten(Unrecognized("Dict[str, Tensor]"), nil)
	if !errors.Is(err, ErrUnrecognizedOutput) {
		t.Fatalf("expected ErrUnrecognizedOutput, got %v", err)
	}
	var topoErr *TopologyError
	if !errors.As(err, &topoErr) {
		t.Fatalf("expected TopologyError, got %v", err)
	}
	if topoErr.TypeName != "Dict[str, Tensor]" {
		t.Fatalf("expected runtime type name in error, got %q", topoErr.TypeName)
	}
}

func TestFlattenCopiesShapes(t *testing.T) {
	t.Parallel()
	dims := []int64{1, 4}
	out, err := Flatten(Single(float32Tensor(dims, 0)), nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	dims[1] = 99
	if out.Shapes[0][1] != 4 {
		t.Fatalf("output shape aliases the native shape: %v", out.Shapes[0])
	}
}
