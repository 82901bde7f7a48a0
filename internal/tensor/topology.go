package tensor

import (
	"errors"
	"fmt"

	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/shape"
)

// Kind classifies one native inference result. The three recognized
// topologies are terminal states: a result is exactly one of them.
type Kind int

const (
	KindUnknown Kind = iota
	KindTensor       // one tensor
	KindTuple        // fixed-arity ordered collection of tensors
	KindList         // variable-length, runtime-determined collection
)

func (k Kind) String() string {
	switch k {
	case KindTensor:
		return "tensor"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// NativeTensor is the view of one leaf tensor a backend exposes to the
// topology adapter: a concrete shape, an element type, and the raw
// little-endian buffer the native runtime produced.
type NativeTensor interface {
	Shape() []int64
	DType() ElementType
	Data() []byte
}

// NativeResult is the whole result of one native execution. Backends adapt
// their runtime's value into this surface; the adapter never sees native
// types. Tensor reports false for elements that are not tensor-typed.
type NativeResult interface {
	Kind() Kind
	TypeName() string
	Len() int
	Tensor(i int) (NativeTensor, bool)
}

// ErrUnrecognizedOutput marks a native result that is neither a tensor, a
// tuple, nor a list. The inference call fails; the loaded model and its
// metadata are unaffected.
var ErrUnrecognizedOutput = errors.New("unrecognized_output_kind")

// TopologyError carries the runtime-reported type string for diagnostics.
type TopologyError struct {
	TypeName string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("output is neither a tensor, tuple, nor list: %q", e.TypeName)
}

func (e *TopologyError) Unwrap() error {
	return ErrUnrecognizedOutput
}

// Flatten classifies a native result and normalizes each constituent tensor
// into a flat ordered Output. Non-tensor elements inside a tuple or list are
// skipped with a warning; an unrecognized result kind is a hard error for
// the call.
func Flatten(res NativeResult, log logger.Logger) (*Output, error) {
	if log == nil {
		log = logger.Default()
	}

	out := &Output{}
	switch res.Kind() {
	case KindTensor:
		t, ok := res.Tensor(0)
		if !ok {
			return nil, &TopologyError{TypeName: res.TypeName()}
		}
		if err := appendTensor(out, t); err != nil {
			return nil, err
		}
	case KindTuple, KindList:
		for i := 0; i < res.Len(); i++ {
			t, ok := res.Tensor(i)
			if !ok {
				log.Warn("output element is not a tensor, skipping",
					"kind", res.Kind().String(), "index", i)
				continue
			}
			if err := appendTensor(out, t); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
	default:
		return nil, &TopologyError{TypeName: res.TypeName()}
	}
	return out, nil
}

func appendTensor(out *Output, t NativeTensor) error {
	dims := t.Shape()
	count := shape.NumElements(dims)
	values, err := Normalize(t.Data(), t.DType(), int(count))
	if err != nil {
		return err
	}
	out.Values = append(out.Values, values)
	out.Shapes = append(out.Shapes, append([]int64(nil), dims...))
	return nil
}

// RawTensor is a NativeTensor backed by a raw buffer. Backends that already
// hold contiguous little-endian data wrap it directly.
type RawTensor struct {
	dims  []int64
	dtype ElementType
	data  []byte
}

func NewRawTensor(dims []int64, dtype ElementType, data []byte) *RawTensor {
	return &RawTensor{dims: dims, dtype: dtype, data: data}
}

func (t *RawTensor) Shape() []int64     { return t.dims }
func (t *RawTensor) DType() ElementType { return t.dtype }
func (t *RawTensor) Data() []byte       { return t.data }

// nativeResult is the common NativeResult implementation the constructors
// below return. A nil entry in elems is a non-tensor element.
type nativeResult struct {
	kind     Kind
	typeName string
	elems    []NativeTensor
}

func (r *nativeResult) Kind() Kind       { return r.kind }
func (r *nativeResult) TypeName() string { return r.typeName }
func (r *nativeResult) Len() int         { return len(r.elems) }

func (r *nativeResult) Tensor(i int) (NativeTensor, bool) {
	if i < 0 || i >= len(r.elems) || r.elems[i] == nil {
		return nil, false
	}
	return r.elems[i], true
}

// Single wraps one tensor as a single-tensor result.
func Single(t NativeTensor) NativeResult {
	return &nativeResult{kind: KindTensor, typeName: "Tensor", elems: []NativeTensor{t}}
}

// Tuple wraps a fixed-arity result. Nil entries mark non-tensor elements.
func Tuple(elems ...NativeTensor) NativeResult {
	return &nativeResult{
		kind:     KindTuple,
		typeName: fmt.Sprintf("Tuple[%d]", len(elems)),
		elems:    elems,
	}
}

// List wraps a runtime-determined variable-length result.
func List(elems ...NativeTensor) NativeResult {
	return &nativeResult{kind: KindList, typeName: "List[Tensor]", elems: elems}
}

// Unrecognized represents a native result of a kind the adapter cannot
// classify; Flatten turns it into a TopologyError naming typeName.
func Unrecognized(typeName string) NativeResult {
	return &nativeResult{kind: KindUnknown, typeName: typeName}
}
