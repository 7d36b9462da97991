package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/codehud"
)

var flagImportsOnly bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze one source file",
	Long:  "Parses a file, runs every available query for its language and prints the normalized facts.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagImportsOnly, "imports", false, "run only the imports query")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	cfg, err := loadConfig(".", flagConfigOverlay())
	if err != nil {
		return outputError(cmd, "analyze", err)
	}
	opts, err := engineOptions(cfg, ".", logger)
	if err != nil {
		return outputError(cmd, "analyze", err)
	}
	engine, err := codehud.New(opts...)
	if err != nil {
		return outputError(cmd, "analyze", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	ctx := context.Background()
	if flagImportsOnly {
		res, err := engine.AnalyzeImports(ctx, args[0])
		if err != nil {
			return outputError(cmd, "analyze", err)
		}
		return outputResult(cmd, CLIResult{Command: "analyze", Results: res})
	}
	a, err := engine.Analyze(ctx, args[0])
	if err != nil {
		return outputError(cmd, "analyze", err)
	}
	return outputResult(cmd, CLIResult{Command: "analyze", Results: a})
}
