// Package mock is a deterministic in-memory backend used by tests and by
// `inferd serve --backend mock`. It exercises the full load path (shape
// resolution, registry population, topology flattening) without a native
// runtime behind it.
package mock

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/samcharles93/inferd/internal/backend"
	"github.com/samcharles93/inferd/internal/inference"
	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/model"
	"github.com/samcharles93/inferd/internal/shape"
	"github.com/samcharles93/inferd/internal/tensor"
)

func init() {
	backend.Register(backend.Mock, func(ctx context.Context, opts inference.Options) (inference.Engine, error) {
		return Open(ctx, opts)
	})
}

// Engine serves canned results. Concurrent Run calls are safe; results are
// cycled under a mutex.
type Engine struct {
	opts    inference.Options
	md      *model.Metadata
	log     logger.Logger
	tracker inference.Tracker

	mu      sync.Mutex
	results []tensor.NativeResult
	next    int
}

// Open builds a mock engine shaped like a ResNet classifier: one float32
// input with a dynamic batch dimension, one [batch, 1000] output. The input
// shape goes through the shared resolution engine exactly as a real
// backend's runtime-reported shape would.
func Open(ctx context.Context, opts inference.Options) (*Engine, error) {
	opts = opts.Normalized()
	log := logger.FromContext(ctx).With("backend", backend.Mock)

	runtimeShape := []int64{shape.Dynamic, 3, 224, 224}
	resolved, err := shape.Resolve("input", runtimeShape, opts.BatchSize, opts.Override(0))
	if err != nil {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
	}

	md := &model.Metadata{}
	md.AddInput("input", resolved, opts.BatchSize, tensor.TypeFloat32)
	md.AddOutput("output", []int64{opts.BatchSize, 1000}, opts.BatchSize, tensor.TypeFloat32)

	e := &Engine{opts: opts, md: md, log: log}
	e.results = []tensor.NativeResult{tensor.Single(classificationTensor(opts.BatchSize))}
	return e, nil
}

// New builds a mock engine with explicit metadata and a fixed cycle of
// native results, for tests that need particular topologies.
func New(md *model.Metadata, results ...tensor.NativeResult) *Engine {
	return &Engine{md: md, log: logger.Default(), results: results}
}

func (e *Engine) Run(ctx context.Context, raw [][]byte) (*tensor.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := inference.ValidateInputs(e.md, raw); err != nil {
		return nil, err
	}

	e.mu.Lock()
	res := e.results[e.next%len(e.results)]
	e.next++
	e.mu.Unlock()

	start := time.Now()
	out, err := tensor.Flatten(res, e.log)
	if err != nil {
		return nil, err
	}
	e.tracker.Record(time.Since(start))
	return out, nil
}

func (e *Engine) Metadata() *model.Metadata { return e.md }

func (e *Engine) Stats() inference.Stats { return e.tracker.Snapshot() }

func (e *Engine) Close() error { return nil }

// classificationTensor fabricates a [batch, 1000] float32 tensor with small
// distinct probabilities, mirroring a classifier head.
func classificationTensor(batch int64) tensor.NativeTensor {
	count := int(batch) * 1000
	data := make([]byte, count*4)
	for i := 0; i < count; i++ {
		v := float32(0.001) + float32(i%10)*0.0001
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return tensor.NewRawTensor([]int64{batch, 1000}, tensor.TypeFloat32, data)
}
