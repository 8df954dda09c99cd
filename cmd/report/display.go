package report

import (
	"strings"

	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/reporting"
	"github.com/ajkula/renegade/pkg/severity"
)

// ConsoleDisplay handles all console display operations
type ConsoleDisplay struct {
	logger *console.Logger
}

// NewConsoleDisplay creates a new console display handler
func NewConsoleDisplay(logger *console.Logger) *ConsoleDisplay {
	return &ConsoleDisplay{
		logger: logger,
	}
}

// DisplayReportSummary shows a summary of the analyzed report
func (d *ConsoleDisplay) DisplayReportSummary(data *reporting.ReportData) {
	d.logger.Section("REPORT ANALYSIS SUMMARY")

	report := data.Report
	d.logger.Printf("Target: %s\n", report.Target)
	d.logger.Printf("Overall Risk Level: %s\n", data.Analysis.OverallRiskLevel)
	d.logger.Printf("Risk Score: %d\n", report.Summary.RiskScore)
	d.logger.Printf("Total Issues: %d\n", report.Summary.VulnerabilitiesFound)

	if report.Summary.VulnerabilitiesFound > 0 {
		d.logger.Printf("Issue Breakdown:\n")
		levels := severity.All()
		for i := len(levels) - 1; i >= 0; i-- {
			if n := data.Analysis.BySeverity[levels[i]]; n > 0 {
				d.logger.Printf("  %s: %d\n", d.logger.Severity(levels[i]), n)
			}
		}
	}

	d.logger.Printf("Recommendations: %d items\n", len(data.Recommendations))
	for _, r := range data.Recommendations {
		d.logger.Printf("  [%s] %s\n", strings.ToUpper(r.Priority), r.Title)
	}
}

// DisplayGenerationProgress shows progress information during report generation
func (d *ConsoleDisplay) DisplayGenerationProgress(path string, current, total int) {
	d.logger.Infof("Generating report for %s (%d/%d)...", path, current, total)
}

// DisplayGenerationSuccess shows successful report generation
func (d *ConsoleDisplay) DisplayGenerationSuccess(paths []string) {
	for _, path := range paths {
		d.logger.Successf("Report written: %s", path)
	}
}

// DisplayGenerationError shows report generation error
func (d *ConsoleDisplay) DisplayGenerationError(path string, err error) {
	d.logger.Errorf("Failed to generate report for %s: %v", path, err)
}

// DisplaySummary displays the final summary of report generation
func (d *ConsoleDisplay) DisplaySummary(processed, failed int, outputDir string, formats []string) {
	d.logger.Section("REPORT GENERATION SUMMARY")
	d.logger.Printf("Reports processed: %d\n", processed)
	d.logger.Printf("Output directory: %s\n", outputDir)
	d.logger.Printf("Formats generated: %s\n", strings.Join(formats, ", "))
	if failed > 0 {
		d.logger.Warningf("%d report(s) could not be generated", failed)
		return
	}
	d.logger.Success("Report generation completed successfully!")
}
