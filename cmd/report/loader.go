package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/reporting"
)

// LoadedReport is a report together with the file it came from
type LoadedReport struct {
	Path   string
	Report *reporting.Report
}

// ReportLoader handles loading saved JSON reports from files
type ReportLoader struct {
	logger *console.Logger
}

// NewReportLoader creates a new report loader
func NewReportLoader(logger *console.Logger) *ReportLoader {
	return &ReportLoader{
		logger: logger,
	}
}

// LoadReports loads reports from a file or from every JSON file in a directory
func (l *ReportLoader) LoadReports(inputPath string) ([]LoadedReport, error) {
	var reports []LoadedReport

	// Check if input is file or directory
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("input path does not exist: %w", err)
	}

	if info.IsDir() {
		files, err := filepath.Glob(filepath.Join(inputPath, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to list JSON files: %w", err)
		}

		if len(files) == 0 {
			return nil, fmt.Errorf("no JSON files found in directory: %s", inputPath)
		}

		for _, file := range files {
			report, err := reporting.LoadReport(file)
			if err != nil {
				// Skip invalid files but continue processing
				l.logger.Warningf("Failed to load %s: %v", file, err)
				continue
			}
			reports = append(reports, LoadedReport{Path: file, Report: report})
		}
	} else {
		report, err := reporting.LoadReport(inputPath)
		if err != nil {
			return nil, err
		}
		reports = append(reports, LoadedReport{Path: inputPath, Report: report})
	}

	if len(reports) == 0 {
		return nil, fmt.Errorf("no valid reports found")
	}

	return reports, nil
}
