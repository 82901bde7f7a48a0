package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/model"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Load a model and print its input/output metadata",
		Flags: append(commonModelFlags(), loggingFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, loadConfig())
			ctx = logger.WithContext(ctx, newLog())

			engine, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			md := engine.Metadata()
			fmt.Printf("Model: %s (backend: %s)\n\n", modelPath, backendName)
			printDescriptors("Inputs", md.Inputs())
			printDescriptors("Outputs", md.Outputs())
			return nil
		},
	}
}

func printDescriptors(heading string, ds []model.Descriptor) {
	fmt.Printf("%s (%d):\n", heading, len(ds))
	for _, d := range ds {
		fmt.Printf("  %-24s %-12s shape=%v batch=%d elements=%d\n",
			d.Name, d.DType, d.Shape, d.BatchSize, d.Elements())
	}
	fmt.Println()
}
