package report

import (
	"fmt"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/reporting"
)

// ReportOrchestrator coordinates the report generation process
type ReportOrchestrator struct {
	loader    *ReportLoader
	validator *ReportValidator
	display   *ConsoleDisplay
	logger    *console.Logger
	catalog   *catalog.Catalog
}

// NewReportOrchestrator creates a new report orchestrator
func NewReportOrchestrator(
	loader *ReportLoader,
	validator *ReportValidator,
	display *ConsoleDisplay,
	logger *console.Logger,
	cat *catalog.Catalog,
) *ReportOrchestrator {
	return &ReportOrchestrator{
		loader:    loader,
		validator: validator,
		display:   display,
		logger:    logger,
		catalog:   cat,
	}
}

// GenerateReports loads, validates and re-exports every report under inputPath
func (o *ReportOrchestrator) GenerateReports(inputPath string, reportsConfig config.ReportsConfig) error {
	generator, err := reporting.NewReportGenerator(reportsConfig, o.catalog)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	o.logger.Info("Loading assessment reports...")
	reports, err := o.loader.LoadReports(inputPath)
	if err != nil {
		return fmt.Errorf("failed to load reports: %w", err)
	}
	o.logger.Debugf("Loaded %d report(s)", len(reports))

	if err := o.validator.ValidateReports(reports); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	failed := 0
	for i, loaded := range reports {
		o.display.DisplayGenerationProgress(loaded.Path, i+1, len(reports))

		data := generator.AnalyzeReport(loaded.Report)
		if o.logger.Verbose() {
			o.display.DisplayReportSummary(data)
		}

		paths, err := generator.ExportReport(data.Report)
		if err != nil {
			failed++
			o.display.DisplayGenerationError(loaded.Path, err)
			continue
		}
		o.display.DisplayGenerationSuccess(paths)
	}

	o.display.DisplaySummary(len(reports), failed, reportsConfig.OutputDir, generator.Formats())

	if failed > 0 {
		return fmt.Errorf("%d of %d report(s) failed", failed, len(reports))
	}
	return nil
}

// CreateReportsConfig overlays CLI parameters onto the configured reports section
func (o *ReportOrchestrator) CreateReportsConfig(base config.ReportsConfig, formats []string, outputDir string) config.ReportsConfig {
	reportsConfig := config.ReportsConfig{
		Formats:   append([]string(nil), base.Formats...),
		OutputDir: base.OutputDir,
	}
	if len(formats) > 0 {
		reportsConfig.Formats = formats
	}
	if outputDir != "" {
		reportsConfig.OutputDir = outputDir
	}
	return reportsConfig
}
