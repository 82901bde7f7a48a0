package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/inferd/internal/logger"
	"github.com/samcharles93/inferd/internal/tensor"
)

func inferCmd() *cli.Command {
	var inputFiles []string

	return &cli.Command{
		Name:  "infer",
		Usage: "Run one inference from raw input files and print the outputs as JSON",
		Flags: append(append(commonModelFlags(), loggingFlags()...),
			&cli.StringSliceFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "raw little-endian input buffer file (repeatable, in input order)",
				Destination: &inputFiles,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, loadConfig())
			ctx = logger.WithContext(ctx, newLog())

			engine, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			raw := make([][]byte, len(inputFiles))
			for i, path := range inputFiles {
				buf, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("input %d: %w", i, err)
				}
				raw[i] = buf
			}

			out, err := engine.Run(ctx, raw)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(printableOutput(out))
		},
	}
}

type printableTensor struct {
	Data  []any   `json:"data"`
	Shape []int64 `json:"shape"`
	Type  string  `json:"type"`
}

func printableOutput(out *tensor.Output) []printableTensor {
	tensors := make([]printableTensor, len(out.Values))
	for i, values := range out.Values {
		pt := printableTensor{Shape: out.Shapes[i], Type: tensor.TypeFloat32.String()}
		if len(values) > 0 {
			pt.Type = values[0].Type().String()
		}
		pt.Data = make([]any, len(values))
		for j, v := range values {
			pt.Data[j] = v.Value()
		}
		tensors[i] = pt
	}
	return tensors
}
