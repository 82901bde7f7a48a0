package api

import (
	"encoding/base64"
	"fmt"

	"github.com/samcharles93/inferd/internal/model"
	"github.com/samcharles93/inferd/internal/tensor"
)

// InferRequest carries one raw buffer per model input, in registry order.
type InferRequest struct {
	Inputs []InputBlob `json:"inputs"`
}

// InputBlob is a base64-encoded little-endian buffer. Shape is informational;
// the registry's resolved shape is authoritative and byte length is validated
// against it.
type InputBlob struct {
	Data  string  `json:"data"`
	Shape []int64 `json:"shape,omitempty"`
}

// RawInputs decodes the request buffers.
func (r *InferRequest) RawInputs() ([][]byte, error) {
	raw := make([][]byte, len(r.Inputs))
	for i, in := range r.Inputs {
		buf, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: invalid base64: %w", i, err)
		}
		raw[i] = buf
	}
	return raw, nil
}

// OutputTensor serializes one normalized output: a homogeneous data array,
// its concrete shape, and the element type name.
type OutputTensor struct {
	Data  any     `json:"data"`
	Shape []int64 `json:"shape"`
	Type  string  `json:"type"`
}

type InferResponse struct {
	Outputs         []OutputTensor `json:"outputs"`
	InferenceTimeMS float64        `json:"inference_time_ms"`
	TotalTimeMS     float64        `json:"total_time_ms"`
}

// marshalOutput converts a normalized output into wire tensors. Each value
// sequence is homogeneously tagged, so the element type is taken from the
// first element; an empty tensor defaults to float32.
func marshalOutput(out *tensor.Output) []OutputTensor {
	tensors := make([]OutputTensor, len(out.Values))
	for i, values := range out.Values {
		wire := OutputTensor{Shape: out.Shapes[i], Type: tensor.TypeFloat32.String()}
		if len(values) == 0 {
			wire.Data = []float32{}
			tensors[i] = wire
			continue
		}
		dtype := values[0].Type()
		wire.Type = dtype.String()
		switch dtype {
		case tensor.TypeFloat32:
			data := make([]float32, len(values))
			for j, v := range values {
				data[j] = v.Float32()
			}
			wire.Data = data
		case tensor.TypeInt32:
			data := make([]int32, len(values))
			for j, v := range values {
				data[j] = v.Int32()
			}
			wire.Data = data
		case tensor.TypeInt64:
			data := make([]int64, len(values))
			for j, v := range values {
				data[j] = v.Int64()
			}
			wire.Data = data
		case tensor.TypeUint8:
			// []uint8 would marshal as base64; keep the wire numeric.
			data := make([]uint16, len(values))
			for j, v := range values {
				data[j] = uint16(v.Uint8())
			}
			wire.Data = data
		}
		tensors[i] = wire
	}
	return tensors
}

// TensorInfo is the wire form of one metadata descriptor.
type TensorInfo struct {
	Name      string  `json:"name"`
	Shape     []int64 `json:"shape"`
	BatchSize int64   `json:"batch_size"`
	Type      string  `json:"type"`
}

type ModelInfoResponse struct {
	Inputs  []TensorInfo `json:"inputs"`
	Outputs []TensorInfo `json:"outputs"`
}

func marshalMetadata(md *model.Metadata) ModelInfoResponse {
	return ModelInfoResponse{
		Inputs:  marshalDescriptors(md.Inputs()),
		Outputs: marshalDescriptors(md.Outputs()),
	}
}

func marshalDescriptors(ds []model.Descriptor) []TensorInfo {
	infos := make([]TensorInfo, len(ds))
	for i, d := range ds {
		infos[i] = TensorInfo{
			Name:      d.Name,
			Shape:     d.Shape,
			BatchSize: d.BatchSize,
			Type:      d.DType.String(),
		}
	}
	return infos
}

type HealthResponse struct {
	Status        string `json:"status"`
	ModelPath     string `json:"model_path"`
	Backend       string `json:"backend"`
	GPUAvailable  bool   `json:"gpu_available"`
	TotalRequests uint64 `json:"total_requests"`
}

type StatsResponse struct {
	ServerID        string  `json:"server_id"`
	TotalRequests   uint64  `json:"total_requests"`
	FailedRequests  uint64  `json:"failed_requests"`
	TotalInferences uint64  `json:"total_inferences"`
	LastInferenceMS float64 `json:"last_inference_ms"`
	AvgInferenceMS  float64 `json:"avg_inference_ms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}
