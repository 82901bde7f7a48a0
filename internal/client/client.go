// Package client implements the inference contract against a remote inferd
// server, mirroring the server's own wire format: Run POSTs /infer and
// Metadata is fetched once from /model_info at open. Registered as the
// "remote" backend; Options.ModelPath holds the server address.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/inferd/internal/api"
	"github.com/samcharles93/inferd/internal/backend"
	"github.com/samcharles93/inferd/internal/inference"
	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/model"
	"github.com/samcharles93/inferd/internal/tensor"
)

func init() {
	backend.Register(backend.Remote, func(ctx context.Context, opts inference.Options) (inference.Engine, error) {
		return Open(ctx, opts)
	})
}

// Client is an Engine whose native runtime lives across the network.
// Concurrent Run calls are safe; the underlying http.Client pools
// connections.
type Client struct {
	base    string
	http    *http.Client
	md      *model.Metadata
	log     logger.Logger
	tracker inference.Tracker
}

// Open fetches the remote registry once so local callers get the same
// input-contract validation a local engine would give them.
func Open(ctx context.Context, opts inference.Options) (*Client, error) {
	base := strings.TrimSuffix(opts.ModelPath, "/")
	if base == "" {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: fmt.Errorf("remote backend needs a server address")}
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: 60 * time.Second},
		log:  logger.FromContext(ctx).With("backend", backend.Remote),
	}

	var info api.ModelInfoResponse
	if err := c.getJSON(ctx, "/model_info", &info); err != nil {
		return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
	}

	md := &model.Metadata{}
	for _, in := range info.Inputs {
		dtype, err := tensor.ParseElementType(in.Type)
		if err != nil {
			return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
		}
		md.AddInput(in.Name, in.Shape, in.BatchSize, dtype)
	}
	for _, out := range info.Outputs {
		dtype, err := tensor.ParseElementType(out.Type)
		if err != nil {
			return nil, &inference.ModelLoadError{Path: opts.ModelPath, Err: err}
		}
		md.AddOutput(out.Name, out.Shape, out.BatchSize, dtype)
	}
	c.md = md
	return c, nil
}

func (c *Client) Run(ctx context.Context, raw [][]byte) (*tensor.Output, error) {
	if err := inference.ValidateInputs(c.md, raw); err != nil {
		return nil, err
	}

	req := api.InferRequest{Inputs: make([]api.InputBlob, len(raw))}
	for i, buf := range raw {
		req.Inputs[i] = api.InputBlob{Data: base64.StdEncoding.EncodeToString(buf)}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var resp wireResponse
	if err := c.postJSON(ctx, "/infer", body, &resp); err != nil {
		return nil, err
	}
	c.tracker.Record(time.Since(start))

	return decodeOutputs(resp.Outputs)
}

func (c *Client) Metadata() *model.Metadata { return c.md }

func (c *Client) Stats() inference.Stats { return c.tracker.Snapshot() }

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// wireResponse mirrors api.InferResponse with raw data arrays so each tensor
// can be decoded into its tagged element type.
type wireResponse struct {
	Outputs []wireTensor `json:"outputs"`
}

type wireTensor struct {
	Data  json.RawMessage `json:"data"`
	Shape []int64         `json:"shape"`
	Type  string          `json:"type"`
}

func decodeOutputs(tensors []wireTensor) (*tensor.Output, error) {
	out := &tensor.Output{}
	for i, wt := range tensors {
		dtype, err := tensor.ParseElementType(wt.Type)
		if err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
		var values []tensor.Element
		switch dtype {
		case tensor.TypeFloat32:
			var data []float32
			if err := json.Unmarshal(wt.Data, &data); err != nil {
				return nil, fmt.Errorf("outputs[%d]: %w", i, err)
			}
			values = tensor.NormalizeFloat32(data)
		case tensor.TypeInt32:
			var data []int32
			if err := json.Unmarshal(wt.Data, &data); err != nil {
				return nil, fmt.Errorf("outputs[%d]: %w", i, err)
			}
			values = make([]tensor.Element, len(data))
			for j, v := range data {
				values[j] = tensor.Int32Element(v)
			}
		case tensor.TypeInt64:
			var data []int64
			if err := json.Unmarshal(wt.Data, &data); err != nil {
				return nil, fmt.Errorf("outputs[%d]: %w", i, err)
			}
			values = tensor.NormalizeInt64(data)
		case tensor.TypeUint8:
			var data []uint16
			if err := json.Unmarshal(wt.Data, &data); err != nil {
				return nil, fmt.Errorf("outputs[%d]: %w", i, err)
			}
			values = make([]tensor.Element, len(data))
			for j, v := range data {
				values[j] = tensor.Uint8Element(uint8(v))
			}
		default:
			return nil, &tensor.UnsupportedDTypeError{DType: wt.Type}
		}
		out.Values = append(out.Values, values)
		out.Shapes = append(out.Shapes, wt.Shape)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, into)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, into)
}

func (c *Client) do(req *http.Request, into any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var wire api.ErrorResponse
		if json.Unmarshal(data, &wire) == nil && wire.Error != "" {
			return fmt.Errorf("server returned %d (%s): %s", resp.StatusCode, wire.Type, wire.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(into)
}
