package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dlblack/sad-sandbox-sub000/plot"
)

func newBuildCmd(flags *globalFlags) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "build <file|->",
		Short: "Build a plot descriptor from JSON series data",
		Long: `Build reads a plot request or bare x/y arrays as JSON, styles every series
with the merged rules and writes the renderer-ready descriptor to stdout.
Input that cannot be understood produces an empty paired plot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			built := plot.BuildJSON(data, a.store)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(built)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Write compact JSON")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
