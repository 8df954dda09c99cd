// Package assess implements the assess command: it runs the execution engine
// against one or more AI-model targets and writes the resulting reports.
package assess

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/engine"
	"github.com/ajkula/renegade/pkg/reporting"
)

// Execute runs the assess command with the provided flags
func Execute(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Root().PersistentFlags().GetString("config")

	// Load base configuration
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := NewLogger(cmd, cfg.Output)

	// Apply CLI overrides
	if outputDir, _ := cmd.Flags().GetString("output"); outputDir != "" {
		cfg.Reports.OutputDir = outputDir
		logger.Infof("Output directory: %s", outputDir)
	}
	if formats, _ := cmd.Flags().GetStringSlice("format"); len(formats) > 0 {
		cfg.Reports.Formats = formats
	}
	if cmd.Flags().Changed("steps") {
		cfg.Engine.Steps, _ = cmd.Flags().GetInt("steps")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	refs, _ := cmd.Flags().GetStringSlice("target")
	targets, err := ResolveTargets(cfg, refs)
	if err != nil {
		return err
	}

	vectorIDs, _ := cmd.Flags().GetStringSlice("vectors")
	categories, _ := cmd.Flags().GetStringSlice("categories")
	if len(vectorIDs) == 0 && len(categories) == 0 {
		vectorIDs, categories = cfg.Assessment.Vectors, cfg.Assessment.Categories
	}
	vectors, err := ResolveVectors(catalog.Default(), vectorIDs, categories)
	if err != nil {
		return err
	}

	duration, _ := cmd.Flags().GetDuration("duration")
	budget, err := ResolveBudget(cfg, duration)
	if err != nil {
		return err
	}

	generator, err := reporting.NewReportGenerator(cfg.Reports, catalog.Default())
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create and execute orchestrator
	orchestrator := NewAssessmentOrchestrator(cfg, generator, logger, cfg.Output.ProgressBars)
	result, err := orchestrator.ExecuteAssessment(ctx, Plan{Targets: targets, Vectors: vectors, Budget: budget})
	if err != nil {
		return fmt.Errorf("assessment execution failed: %w", err)
	}

	DisplayResults(logger, result)

	// Save reports
	paths, err := orchestrator.SaveReports(result)
	for _, path := range paths {
		logger.Successf("Report saved to: %s", path)
	}
	if err != nil {
		logger.Warningf("Failed to save some reports: %v", err)
	}

	return sessionError(result)
}

// sessionError turns failed or rejected assessments into a non-zero exit
func sessionError(result *AssessmentResult) error {
	failed := 0
	for _, snap := range result.Jobs {
		if snap.Status == engine.StatusFailed {
			failed++
		}
	}
	if len(result.Jobs) == 0 {
		return fmt.Errorf("no assessment could be started")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d assessment(s) failed", failed, len(result.Jobs))
	}
	return nil
}

// NewLogger builds the console logger from the global flags and the output configuration
func NewLogger(cmd *cobra.Command, output config.OutputConfig) *console.Logger {
	flags := cmd.Root().PersistentFlags()
	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")
	noColor, _ := flags.GetBool("no-color")

	switch output.Verbosity {
	case "silent", "minimal":
		quiet = quiet || !verbose
	case "verbose", "debug":
		verbose = verbose || !quiet
	}

	return console.New(console.Options{
		NoColor: noColor || !output.Colors,
		Quiet:   quiet,
		Verbose: verbose,
	})
}
