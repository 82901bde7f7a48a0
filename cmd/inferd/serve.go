package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/inferd/internal/api"
	"github.com/samcharles93/inferd/internal/backend"
	"github.com/samcharles93/inferd/internal/inference"
	"github.com/samcharles93/inferd/internal/logger"

	_ "github.com/samcharles93/inferd/internal/backend/mock"
	_ "github.com/samcharles93/inferd/internal/backend/onnx"
	_ "github.com/samcharles93/inferd/internal/client"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the inference REST API",
		Flags: append(append(commonModelFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "0.0.0.0:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, loadConfig(), &addr)
			log := newLog()
			ctx = logger.WithContext(ctx, log)

			engine, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			server := api.NewServer(engine, api.Config{
				ModelPath: modelPath,
				Backend:   backendName,
			}, log)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting inference server",
				"address", addr, "backend", backendName, "model", modelPath)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

// openEngine builds inference options from the shared flags and opens the
// selected backend.
func openEngine(ctx context.Context) (inference.Engine, error) {
	sizes, err := parseInputSizes(inputSizes)
	if err != nil {
		return nil, err
	}
	return backend.Open(ctx, backendName, inference.Options{
		ModelPath:  modelPath,
		UseGPU:     useGPU,
		BatchSize:  batchSize,
		InputSizes: sizes,
	})
}
