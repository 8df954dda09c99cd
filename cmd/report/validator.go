package report

import (
	"fmt"

	"github.com/ajkula/renegade/pkg/reporting"
	"github.com/ajkula/renegade/pkg/severity"
)

// ReportValidator checks that a loaded report is internally consistent
type ReportValidator struct{}

// NewReportValidator creates a new report validator
func NewReportValidator() *ReportValidator {
	return &ReportValidator{}
}

// ValidateReport validates a report structure
func (v *ReportValidator) ValidateReport(report *reporting.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	if report.Target == "" {
		return fmt.Errorf("invalid report: missing target")
	}

	if report.Timestamp.IsZero() {
		return fmt.Errorf("invalid report: missing timestamp")
	}

	if report.Summary.VulnerabilitiesFound != len(report.Vulnerabilities) {
		return fmt.Errorf("invalid report: summary counts %d vulnerabilities, found %d",
			report.Summary.VulnerabilitiesFound, len(report.Vulnerabilities))
	}

	risk := 0
	ids := make(map[string]bool, len(report.Vulnerabilities))
	for _, vuln := range report.Vulnerabilities {
		if vuln.ID == "" {
			return fmt.Errorf("invalid report: vulnerability without id")
		}
		if ids[vuln.ID] {
			return fmt.Errorf("invalid report: duplicate vulnerability id %s", vuln.ID)
		}
		ids[vuln.ID] = true
		risk += severity.Weight(vuln.Severity)
	}

	if risk != report.Summary.RiskScore {
		return fmt.Errorf("invalid report: risk score %d does not match findings (%d)", report.Summary.RiskScore, risk)
	}

	return nil
}

// ValidateReports validates a slice of loaded reports
func (v *ReportValidator) ValidateReports(reports []LoadedReport) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to validate")
	}

	for _, loaded := range reports {
		if err := v.ValidateReport(loaded.Report); err != nil {
			return fmt.Errorf("validation failed for %s: %w", loaded.Path, err)
		}
	}

	return nil
}
