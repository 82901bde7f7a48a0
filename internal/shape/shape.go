// Package shape implements the shape-resolution algorithm every backend
// shares: turning a runtime-reported shape, which may contain dynamic
// markers, into a fully concrete shape using at most one caller-supplied
// override. Backends differ only in how they obtain the runtime shape,
// never in how it is resolved.
package shape

import (
	"errors"
	"fmt"
)

// Dynamic is the marker for a dimension whose concrete size is unknown until
// runtime or until the caller supplies an override.
const Dynamic int64 = -1

var (
	// ErrMissingOverride marks a shape with dynamic non-batch dimensions
	// and no override to fill them.
	ErrMissingOverride = errors.New("missing_override_for_dynamic_shape")

	// ErrDimensionCount marks an override whose length does not match the
	// slots it must fill.
	ErrDimensionCount = errors.New("dimension_count_mismatch")
)

// ResolutionError reports why a tensor's shape could not be resolved,
// including expected vs. actual override lengths where that applies.
type ResolutionError struct {
	Tensor string
	Want   int
	Got    int
	reason error
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.reason, ErrDimensionCount) {
		return fmt.Sprintf("tensor %q: override must supply %d dimension(s), got %d",
			e.Tensor, e.Want, e.Got)
	}
	return fmt.Sprintf("tensor %q: shape has dynamic dimensions but no override was provided",
		e.Tensor)
}

func (e *ResolutionError) Unwrap() error { return e.reason }

// IsDynamic reports whether a single dimension is unresolved. Dimensions of
// zero are treated as dynamic too: several runtimes signal dynamism
// inconsistently and report 0 where they mean "unknown".
func IsDynamic(dim int64) bool {
	return dim <= 0
}

// FullyDynamic reports whether every dimension of a shape is unresolved.
// A shape whose every static dimension is <= 0 is equivalent to fully
// dynamic even when no explicit marker is present.
func FullyDynamic(dims []int64) bool {
	for _, d := range dims {
		if !IsDynamic(d) {
			return false
		}
	}
	return true
}

// NumElements returns the product of the concrete dimensions, skipping
// dynamic markers so placeholder shapes still yield a usable element count.
func NumElements(dims []int64) int64 {
	n := int64(1)
	for _, d := range dims {
		if IsDynamic(d) {
			continue
		}
		n *= d
	}
	return n
}

// Placeholder builds the load-time stand-in shape for a tensor whose true
// shape is unknowable before the first execution: batch first, every other
// dimension dynamic. An undeterminable rank produces the minimal form
// [batchSize, -1].
func Placeholder(rank int, batchSize int64) []int64 {
	if rank < 2 {
		return []int64{batchSize, Dynamic}
	}
	dims := make([]int64, rank)
	dims[0] = batchSize
	for i := 1; i < rank; i++ {
		dims[i] = Dynamic
	}
	return dims
}

// Resolve produces a fully concrete shape from a runtime-reported one.
//
// The batch dimension is resolved first and independently: it is always
// forced to batchSize, because batch is caller-controlled regardless of what
// the runtime reported. Dynamic non-batch dimensions must be covered by an
// override with exactly one value per dynamic slot, filled left to right;
// the engine never guesses which dynamic dimension an override value is
// meant for beyond positional order. An override against an already-concrete
// shape must instead cover every non-batch dimension and replaces them
// positionally.
//
// Postcondition: the returned shape has no dynamic markers and its first
// dimension equals batchSize.
func Resolve(name string, runtimeShape []int64, batchSize int64, override []int64) ([]int64, error) {
	if len(runtimeShape) == 0 {
		return nil, fmt.Errorf("tensor %q: empty shape", name)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("tensor %q: batch size must be positive, got %d", name, batchSize)
	}

	resolved := append([]int64(nil), runtimeShape...)
	resolved[0] = batchSize

	dynamic := 0
	for _, d := range resolved[1:] {
		if IsDynamic(d) {
			dynamic++
		}
	}

	if override == nil {
		if dynamic > 0 {
			return nil, &ResolutionError{Tensor: name, reason: ErrMissingOverride}
		}
		return resolved, nil
	}

	for i, d := range override {
		if d < 1 {
			return nil, fmt.Errorf("tensor %q: override dimension %d must be positive, got %d", name, i, d)
		}
	}

	if dynamic > 0 {
		// Fill dynamic slots left to right.
		if len(override) != dynamic {
			return nil, &ResolutionError{
				Tensor: name, Want: dynamic, Got: len(override), reason: ErrDimensionCount,
			}
		}
		next := 0
		for i := 1; i < len(resolved); i++ {
			if IsDynamic(resolved[i]) {
				resolved[i] = override[next]
				next++
			}
		}
		return resolved, nil
	}

	// Concrete shape, explicit override: replace every non-batch dimension.
	if len(override) != len(resolved)-1 {
		return nil, &ResolutionError{
			Tensor: name, Want: len(resolved) - 1, Got: len(override), reason: ErrDimensionCount,
		}
	}
	copy(resolved[1:], override)
	return resolved, nil
}
