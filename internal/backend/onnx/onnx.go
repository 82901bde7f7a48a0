// Package onnx adapts ONNX Runtime (via yalue/onnxruntime_go) to the
// inference contract. The adapter supplies only the runtime-reported shapes,
// the execution call, and the result wrapping; resolution and normalization
// are the shared engines.
//
// Runtime requirement: the onnxruntime shared library must be loadable.
// Set ONNXRUNTIME_SHARED_LIBRARY_PATH to point at it when it is not on the
// default search path.
//
// Concurrency: ONNX Runtime sessions are safe for concurrent Run calls; the
// adapter adds no serialization of its own.
package onnx

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/samcharles93/inferd/internal/backend"
	"github.com/samcharles93/inferd/internal/inference"
	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/model"
	"github.com/samcharles93/inferd/internal/shape"
	"github.com/samcharles93/inferd/internal/tensor"
	ort "github.com/yalue/onnxruntime_go"
)

func init() {
	backend.Register(backend.ONNX, func(ctx context.Context, opts inference.Options) (inference.Engine, error) {
		return Open(ctx, opts)
	})
}

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

func ensureRuntime() error {
	runtimeOnce.Do(func() {
		if lib := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if !ort.IsInitialized() {
			runtimeErr = ort.InitializeEnvironment()
		}
	})
	return runtimeErr
}

// Engine owns one loaded ONNX session and its metadata registry.
type Engine struct {
	session     *ort.DynamicAdvancedSession
	md          *model.Metadata
	inputNames  []string
	outputNames []string
	gpu         bool
	opts        inference.Options
	log         logger.Logger
	tracker     inference.Tracker
}

// Open loads a model, resolves every reported input shape against the
// caller's batch size and overrides, and populates the registry once.
func Open(ctx context.Context, opts inference.Options) (*Engine, error) {
	opts = opts.Normalized()
	log := logger.FromContext(ctx).With("backend", backend.ONNX)

	if err := ensureRuntime(); err != nil {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
	}

	md := &model.Metadata{}
	e := &Engine{md: md, opts: opts, log: log}

	for i, info := range inputs {
		if info.OrtValueType != ort.ONNXTypeTensor {
			log.Warn("input is not a tensor, skipping", "name", info.Name)
			continue
		}
		dtype, ok := elementType(info.DataType)
		if !ok {
			return nil, &inference.ModelLoadError{
				Path: opts.ModelPath,
				Err:  &tensor.UnsupportedDTypeError{DType: info.DataType.String()},
			}
		}
		resolved, err := shape.Resolve(info.Name, []int64(info.Dimensions), opts.BatchSize, opts.Override(i))
		if err != nil {
			return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
		}
		log.Info("model input", "name", info.Name, "shape", resolved, "type", dtype.String())
		md.AddInput(info.Name, resolved, opts.BatchSize, dtype)
		e.inputNames = append(e.inputNames, info.Name)
	}
	if len(e.inputNames) == 0 {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: fmt.Errorf("model reports no tensor inputs")}
	}

	for _, info := range outputs {
		if info.OrtValueType != ort.ONNXTypeTensor {
			log.Warn("output is not a tensor, skipping", "name", info.Name)
			continue
		}
		dtype, _ := elementType(info.DataType)
		dims := outputShape([]int64(info.Dimensions), opts.BatchSize)
		log.Info("model output", "name", info.Name, "shape", dims, "type", dtype.String())
		md.AddOutput(info.Name, dims, opts.BatchSize, dtype)
		e.outputNames = append(e.outputNames, info.Name)
	}

	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
	}
	defer sessionOptions.Destroy()

	if opts.UseGPU {
		if err := appendCUDA(sessionOptions); err != nil {
			log.Warn("CUDA provider unavailable, falling back to CPU", "error", err)
		} else {
			log.Info("using CUDA execution provider")
			e.gpu = true
		}
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath, e.inputNames, e.outputNames, sessionOptions)
	if err != nil {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
	}
	e.session = session
	return e, nil
}

func appendCUDA(o *ort.SessionOptions) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()
	return o.AppendExecutionProviderCUDA(cudaOpts)
}

// outputShape keeps runtime-reported output dims provisional: batch is
// forced, remaining dynamic dims stay as markers until the first inference
// reports real shapes. A rank-less or fully-dynamic report gets the minimal
// placeholder.
func outputShape(dims []int64, batchSize int64) []int64 {
	if len(dims) == 0 || shape.FullyDynamic(dims) {
		return shape.Placeholder(len(dims), batchSize)
	}
	out := append([]int64(nil), dims...)
	out[0] = batchSize
	return out
}

func (e *Engine) Run(ctx context.Context, raw [][]byte) (*tensor.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := inference.ValidateInputs(e.md, raw); err != nil {
		return nil, err
	}

	descriptors := e.md.Inputs()
	inputValues := make([]ort.Value, 0, len(descriptors))
	defer func() {
		for _, v := range inputValues {
			v.Destroy()
		}
	}()
	for i, d := range descriptors {
		v, err := ort.NewCustomDataTensor(ort.NewShape(d.Shape...), raw[i], ortDataType(d.DType))
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", d.Name, err)
		}
		inputValues = append(inputValues, v)
	}

	outputValues := make([]ort.Value, len(e.outputNames))
	start := time.Now()
	if err := e.session.Run(inputValues, outputValues); err != nil {
		return nil, fmt.Errorf("inference execution failed: %w", err)
	}
	elapsed := time.Since(start)
	defer func() {
		for _, v := range outputValues {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	result, err := wrapOutputs(outputValues)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Flatten(result, e.log)
	if err != nil {
		return nil, err
	}
	e.tracker.Record(elapsed)
	return out, nil
}

// wrapOutputs adapts a session's result vector to the topology surface: a
// single output is a single tensor, several outputs form a fixed tuple.
// An output of an unsupported element type fails the call; nothing is
// reinterpreted.
func wrapOutputs(values []ort.Value) (tensor.NativeResult, error) {
	wrapped := make([]tensor.NativeTensor, len(values))
	for i, v := range values {
		t := wrapValue(v)
		if t == nil {
			return nil, &tensor.UnsupportedDTypeError{DType: fmt.Sprintf("%T", v)}
		}
		wrapped[i] = t
	}
	if len(wrapped) == 1 {
		return tensor.Single(wrapped[0]), nil
	}
	return tensor.Tuple(wrapped...), nil
}

func wrapValue(v ort.Value) tensor.NativeTensor {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		return tensor.NewRawTensor(t.GetShape(), tensor.TypeFloat32, float32Bytes(t.GetData()))
	case *ort.Tensor[int32]:
		return tensor.NewRawTensor(t.GetShape(), tensor.TypeInt32, int32Bytes(t.GetData()))
	case *ort.Tensor[int64]:
		return tensor.NewRawTensor(t.GetShape(), tensor.TypeInt64, int64Bytes(t.GetData()))
	case *ort.Tensor[uint8]:
		return tensor.NewRawTensor(t.GetShape(), tensor.TypeUint8, t.GetData())
	default:
		return nil
	}
}

func (e *Engine) Metadata() *model.Metadata { return e.md }

func (e *Engine) Stats() inference.Stats { return e.tracker.Snapshot() }

// GPUAvailable reports whether the CUDA provider was attached at load.
func (e *Engine) GPUAvailable() bool { return e.gpu }

func (e *Engine) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

func elementType(t ort.TensorElementDataType) (tensor.ElementType, bool) {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return tensor.TypeFloat32, true
	case ort.TensorElementDataTypeInt32:
		return tensor.TypeInt32, true
	case ort.TensorElementDataTypeInt64:
		return tensor.TypeInt64, true
	case ort.TensorElementDataTypeUint8:
		return tensor.TypeUint8, true
	default:
		return tensor.TypeInvalid, false
	}
}

func ortDataType(t tensor.ElementType) ort.TensorElementDataType {
	switch t {
	case tensor.TypeInt32:
		return ort.TensorElementDataTypeInt32
	case tensor.TypeInt64:
		return ort.TensorElementDataTypeInt64
	case tensor.TypeUint8:
		return ort.TensorElementDataTypeUint8
	default:
		return ort.TensorElementDataTypeFloat
	}
}

func float32Bytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func int32Bytes(data []int32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

func int64Bytes(data []int64) []byte {
	out := make([]byte, len(data)*8)
	for i, v := range data {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
	}
	return out
}
