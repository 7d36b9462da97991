package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/codehud"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List recognized languages and their available queries",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

func runLanguages(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	cfg, err := loadConfig(".", flagConfigOverlay())
	if err != nil {
		return outputError(cmd, "languages", err)
	}
	// The registry listing never touches the cache.
	cfg.Cache = ""
	opts, err := engineOptions(cfg, ".", logger)
	if err != nil {
		return outputError(cmd, "languages", err)
	}
	engine, err := codehud.New(opts...)
	if err != nil {
		return outputError(cmd, "languages", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()
	return outputResult(cmd, CLIResult{Command: "languages", Results: engine.Languages()})
}
