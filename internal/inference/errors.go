package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrInputCount marks a Run call whose buffer count does not match the
	// metadata input count.
	ErrInputCount = errors.New("input_count_mismatch")

	// ErrInputSize marks a buffer whose byte length does not match its
	// input descriptor. Buffers are never silently truncated or padded.
	ErrInputSize = errors.New("input_size_mismatch")
)

// ModelLoadError wraps a native runtime's failure to load or parse a model.
// Fatal for the construction attempt; the process keeps running.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model loading failed for %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InputContractError reports which Run precondition a caller violated.
type InputContractError struct {
	Index int // input position, -1 for a count mismatch
	Want  int64
	Got   int64
	kind  error
}

func (e *InputContractError) Error() string {
	if errors.Is(e.kind, ErrInputCount) {
		return fmt.Sprintf("expected %d input buffer(s), got %d", e.Want, e.Got)
	}
	return fmt.Sprintf("input %d: expected %d bytes, got %d", e.Index, e.Want, e.Got)
}

func (e *InputContractError) Unwrap() error { return e.kind }

func countMismatch(want, got int) error {
	return &InputContractError{Index: -1, Want: int64(want), Got: int64(got), kind: ErrInputCount}
}

func sizeMismatch(index int, want, got int64) error {
	return &InputContractError{Index: index, Want: want, Got: got, kind: ErrInputSize}
}
