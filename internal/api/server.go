// Package api exposes one loaded engine over HTTP: POST /infer runs an
// inference, GET /model_info serializes the metadata registry, and /health
// and /stats are operational. A failed request never corrupts the registry
// or affects later calls.
package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/inferd/internal/inference"
	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/tensor"
)

// Config carries the request-independent facts the operational endpoints
// report.
type Config struct {
	ModelPath string
	Backend   string
}

type Server struct {
	engine inference.Engine
	cfg    Config
	log    logger.Logger
	id     string

	counters requestCounters
}

func NewServer(engine inference.Engine, cfg Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		engine: engine,
		cfg:    cfg,
		log:    log,
		id:     uuid.NewString(),
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/infer", s.handleInfer)
	e.GET("/model_info", s.handleModelInfo)
	e.GET("/health", s.handleHealth)
	e.GET("/stats", s.handleStats)
}

func (s *Server) handleInfer(c *echo.Context) error {
	s.counters.total.Add(1)
	start := time.Now()

	var req InferRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		s.counters.failed.Add(1)
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: "+err.Error())
	}
	raw, err := req.RawInputs()
	if err != nil {
		s.counters.failed.Add(1)
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	}

	before := s.lastInference()
	out, err := s.engine.Run(c.Request().Context(), raw)
	if err != nil {
		s.counters.failed.Add(1)
		status, errType := classify(err)
		s.log.Error("inference request failed", "error", err, "status", status)
		return writeError(c, status, errType, err.Error())
	}

	resp := InferResponse{
		Outputs:         marshalOutput(out),
		InferenceTimeMS: s.inferenceMS(before),
		TotalTimeMS:     float64(time.Since(start).Microseconds()) / 1000.0,
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModelInfo(c *echo.Context) error {
	return c.JSON(http.StatusOK, marshalMetadata(s.engine.Metadata()))
}

func (s *Server) handleHealth(c *echo.Context) error {
	gpu := false
	if reporter, ok := s.engine.(interface{ GPUAvailable() bool }); ok {
		gpu = reporter.GPUAvailable()
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		ModelPath:     s.cfg.ModelPath,
		Backend:       s.cfg.Backend,
		GPUAvailable:  gpu,
		TotalRequests: s.counters.total.Load(),
	})
}

func (s *Server) handleStats(c *echo.Context) error {
	resp := StatsResponse{
		ServerID:       s.id,
		TotalRequests:  s.counters.total.Load(),
		FailedRequests: s.counters.failed.Load(),
	}
	if reporter, ok := s.engine.(inference.StatsReporter); ok {
		stats := reporter.Stats()
		resp.TotalInferences = stats.TotalInferences
		resp.LastInferenceMS = durationMS(stats.LastDuration)
		resp.AvgInferenceMS = durationMS(stats.AverageDuration())
	}
	return c.JSON(http.StatusOK, resp)
}

// classify maps core error taxonomy onto HTTP statuses: caller-correctable
// contract violations are 400s, everything else fails the single call with
// a 500.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, inference.ErrInputCount), errors.Is(err, inference.ErrInputSize):
		return http.StatusBadRequest, "input_contract_error"
	case errors.Is(err, tensor.ErrUnsupportedDType):
		return http.StatusInternalServerError, "unsupported_dtype_error"
	case errors.Is(err, tensor.ErrUnrecognizedOutput):
		return http.StatusInternalServerError, "output_topology_error"
	default:
		return http.StatusInternalServerError, "inference_error"
	}
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg, Type: errType})
}

func (s *Server) lastInference() inference.Stats {
	if reporter, ok := s.engine.(inference.StatsReporter); ok {
		return reporter.Stats()
	}
	return inference.Stats{}
}

// inferenceMS reports the engine-measured duration of the call that just
// completed, falling back to zero for engines that do not track timings.
func (s *Server) inferenceMS(before inference.Stats) float64 {
	after := s.lastInference()
	if after.TotalInferences > before.TotalInferences {
		return durationMS(after.LastDuration)
	}
	return 0
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
