package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/inferd/internal/logger"
)

var (
	modelPath   string
	backendName string
	useGPU      bool
	batchSize   int64
	inputSizes  []string
	logLevel    string
	logFormat   string
	debug       bool
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to the model file (server address for --backend remote)",
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "inference backend (onnx, remote, mock)",
			Value:       "onnx",
			Destination: &backendName,
		},
		&cli.BoolFlag{
			Name:        "use-gpu",
			Usage:       "request GPU execution (falls back to CPU when unavailable)",
			Destination: &useGPU,
		},
		&cli.Int64Flag{
			Name:        "batch-size",
			Aliases:     []string{"b"},
			Usage:       "batch dimension forced onto every resolved shape",
			Value:       1,
			Destination: &batchSize,
		},
		&cli.StringSliceFlag{
			Name:        "input-size",
			Usage:       "shape override per input, e.g. 3x224x224 (repeatable, in input order)",
			Destination: &inputSizes,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func newLog() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Default()
	default:
		return logger.Pretty(os.Stderr, level)
	}
}

// parseInputSizes turns repeated "d1xd2x..." flags into one override per
// model input, in flag order.
func parseInputSizes(specs []string) ([][]int64, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	sizes := make([][]int64, len(specs))
	for i, spec := range specs {
		parts := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "x")
		dims := make([]int64, 0, len(parts))
		for _, p := range parts {
			d, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid input size %q: %w", spec, err)
			}
			dims = append(dims, d)
		}
		sizes[i] = dims
	}
	return sizes, nil
}
