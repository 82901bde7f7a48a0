// Package tensor holds the generic tensor representation shared by every
// backend: a tagged element value, the normalizer that decodes raw native
// buffers into element sequences, and the output-topology adapter that
// flattens heterogeneous native results into one Output.
package tensor

import (
	"fmt"
	"math"
)

// ElementType identifies the numeric variant carried by an Element.
type ElementType uint8

const (
	TypeInvalid ElementType = iota
	TypeFloat32
	TypeInt32
	TypeInt64
	TypeUint8
)

// String returns the wire name used in API payloads ("float32", "int64", ...).
func (t ElementType) String() string {
	switch t {
	case TypeFloat32:
		return "float32"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUint8:
		return "uint8"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(t))
	}
}

// Size returns the element size in bytes, or 0 for an invalid type.
func (t ElementType) Size() int {
	switch t {
	case TypeFloat32, TypeInt32:
		return 4
	case TypeInt64:
		return 8
	case TypeUint8:
		return 1
	default:
		return 0
	}
}

// ParseElementType is the inverse of ElementType.String.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "float32", "float":
		return TypeFloat32, nil
	case "int32":
		return TypeInt32, nil
	case "int64":
		return TypeInt64, nil
	case "uint8":
		return TypeUint8, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown element type %q", s)
	}
}

// Element is one generic tensor value: a type tag plus the raw bits of the
// underlying number. Accessors return the typed value; a sequence produced by
// the normalizer is always homogeneously tagged.
type Element struct {
	dtype ElementType
	bits  uint64
}

func Float32Element(v float32) Element {
	return Element{dtype: TypeFloat32, bits: uint64(math.Float32bits(v))}
}

func Int32Element(v int32) Element {
	return Element{dtype: TypeInt32, bits: uint64(uint32(v))}
}

func Int64Element(v int64) Element {
	return Element{dtype: TypeInt64, bits: uint64(v)}
}

func Uint8Element(v uint8) Element {
	return Element{dtype: TypeUint8, bits: uint64(v)}
}

func (e Element) Type() ElementType { return e.dtype }

func (e Element) Float32() float32 { return math.Float32frombits(uint32(e.bits)) }
func (e Element) Int32() int32     { return int32(uint32(e.bits)) }
func (e Element) Int64() int64     { return int64(e.bits) }
func (e Element) Uint8() uint8     { return uint8(e.bits) }

// Value returns the element as its native Go type. Callers that care about
// the concrete variant should switch on Type instead.
func (e Element) Value() any {
	switch e.dtype {
	case TypeFloat32:
		return e.Float32()
	case TypeInt32:
		return e.Int32()
	case TypeInt64:
		return e.Int64()
	case TypeUint8:
		return e.Uint8()
	default:
		return nil
	}
}

// Output is the normalized result of one inference call: parallel sequences
// where Values[i] holds the elements of output tensor i and Shapes[i] its
// concrete shape. len(Values[i]) always equals the product of Shapes[i].
// An Output is created fresh per call and owned by the caller.
type Output struct {
	Values [][]Element
	Shapes [][]int64
}
