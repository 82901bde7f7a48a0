// Package model describes a loaded model's input/output topology. The
// metadata registry is populated once during load, after shape resolution,
// and is read-only for the lifetime of the owning engine; it is safe to
// share across goroutines without locking.
package model

import (
	"github.com/samcharles93/inferd/internal/shape"
	"github.com/samcharles93/inferd/internal/tensor"
)

// Descriptor records one named tensor of a loaded model. Shape is never
// empty; after resolution it contains no dynamic markers and, for batched
// tensors, Shape[0] equals BatchSize. Output descriptors for
// runtime-determined list outputs are provisional: their placeholder shapes
// are superseded by the real shapes of the first inference result.
type Descriptor struct {
	Name      string
	Shape     []int64
	BatchSize int64
	DType     tensor.ElementType
}

// Elements returns the number of elements implied by the shape, skipping
// unresolved placeholder dimensions.
func (d Descriptor) Elements() int64 {
	return shape.NumElements(d.Shape)
}

// ByteSize returns the raw buffer length a caller must supply (inputs) or
// expect (outputs) for this tensor.
func (d Descriptor) ByteSize() int64 {
	return d.Elements() * int64(d.DType.Size())
}

// Metadata owns the insertion-ordered input and output descriptors of one
// loaded model. There is no removal or mutation operation: a shape change
// requires constructing a new Metadata. Validation happens in the shape
// engine before descriptors are appended, so appends never fail.
type Metadata struct {
	inputs  []Descriptor
	outputs []Descriptor
}

func (m *Metadata) AddInput(name string, dims []int64, batchSize int64, dtype tensor.ElementType) {
	m.inputs = append(m.inputs, newDescriptor(name, dims, batchSize, dtype))
}

func (m *Metadata) AddOutput(name string, dims []int64, batchSize int64, dtype tensor.ElementType) {
	m.outputs = append(m.outputs, newDescriptor(name, dims, batchSize, dtype))
}

// Inputs returns the ordered input descriptors. The returned slice is a
// read-only view; callers must not modify it.
func (m *Metadata) Inputs() []Descriptor { return m.inputs }

// Outputs returns the ordered output descriptors, same contract as Inputs.
func (m *Metadata) Outputs() []Descriptor { return m.outputs }

func newDescriptor(name string, dims []int64, batchSize int64, dtype tensor.ElementType) Descriptor {
	return Descriptor{
		Name:      name,
		Shape:     append([]int64(nil), dims...),
		BatchSize: batchSize,
		DType:     dtype,
	}
}
