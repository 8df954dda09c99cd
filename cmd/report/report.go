// Package report implements the report command: it re-exports saved JSON
// assessment reports into other formats.
package report

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajkula/renegade/cmd/assess"
	"github.com/ajkula/renegade/pkg/catalog"
)

// Execute runs the report generation command (CLI entry point)
func Execute(cmd *cobra.Command, args []string) error {
	// Get command flags
	inputPath, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output")
	formats, _ := cmd.Flags().GetStringSlice("format")
	configFile, _ := cmd.Root().PersistentFlags().GetString("config")

	// Validate input
	if inputPath == "" {
		return fmt.Errorf("input file or directory is required")
	}

	cfg, err := assess.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := assess.NewLogger(cmd, cfg.Output)

	// Create dependencies (dependency injection)
	loader := NewReportLoader(logger)
	validator := NewReportValidator()
	display := NewConsoleDisplay(logger)
	orchestrator := NewReportOrchestrator(loader, validator, display, logger, catalog.Default())

	// Create reports configuration
	reportsConfig := orchestrator.CreateReportsConfig(cfg.Reports, formats, outputDir)

	// Execute report generation
	return orchestrator.GenerateReports(inputPath, reportsConfig)
}
