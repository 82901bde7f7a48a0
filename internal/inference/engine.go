// Package inference defines the contract every backend adapter implements:
// load a model, expose its metadata, and turn raw input buffers into
// normalized output tensors. The heavy lifting (shape resolution, the
// metadata registry, output normalization) lives in the shape, model, and
// tensor packages; backends supply only their runtime's shape source and
// execution call.
package inference

import (
	"context"

	"github.com/samcharles93/inferd/internal/model"
	"github.com/samcharles93/inferd/internal/tensor"
)

// Engine is the backend-agnostic inference contract.
//
// Run blocks the calling goroutine for the duration of native execution and
// performs no internal parallelism. The engine itself imposes no
// serialization across concurrent Run calls; whether concurrent calls on one
// loaded session are safe is a property of the native runtime and is
// documented per backend.
type Engine interface {
	// Run executes one inference. raw must contain exactly one buffer per
	// metadata input, in registry order, each of the exact byte length the
	// input descriptor implies. The returned output is owned by the caller.
	Run(ctx context.Context, raw [][]byte) (*tensor.Output, error)

	// Metadata returns the registry populated at load time. Read-only.
	Metadata() *model.Metadata

	Close() error
}

// Options is the construction contract shared by all backends.
type Options struct {
	// ModelPath locates the model. The remote backend reads it as a
	// host:port server address instead.
	ModelPath string

	// UseGPU requests GPU execution; backends fall back to CPU with a log
	// line when the device is unavailable.
	UseGPU bool

	// BatchSize is the caller-controlled batch dimension, forced onto
	// every resolved shape. Defaults to 1 when zero.
	BatchSize int64

	// InputSizes holds at most one shape override per model input, in
	// input order. A nil entry leaves that input's runtime shape alone.
	InputSizes [][]int64
}

// Normalized returns a copy with defaults applied.
func (o Options) Normalized() Options {
	if o.BatchSize < 1 {
		o.BatchSize = 1
	}
	return o
}

// Override returns the shape override for input i, or nil.
func (o Options) Override(i int) []int64 {
	if i < 0 || i >= len(o.InputSizes) {
		return nil
	}
	return o.InputSizes[i]
}
