// Package reporting turns finished assessment jobs into report artifacts
package reporting

import (
	"time"

	"github.com/ajkula/renegade/pkg/engine"
	"github.com/ajkula/renegade/pkg/severity"
)

// Report is the JSON assessment report. Field names are consumed by downstream tooling.
type Report struct {
	Target          string          `json:"target"`
	Timestamp       time.Time       `json:"timestamp"`
	Summary         Summary         `json:"summary"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
}

// Summary holds the report totals
type Summary struct {
	TotalTests           int `json:"total_tests"`
	VulnerabilitiesFound int `json:"vulnerabilities_found"`
	RiskScore            int `json:"risk_score"`
}

// Vulnerability is one finding as it appears in reports
type Vulnerability struct {
	ID         string            `json:"id"`
	TestVector string            `json:"test_vector"`
	TestName   string            `json:"test_name"`
	Severity   severity.Severity `json:"severity"`
	Details    string            `json:"details"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewReport builds the report of a job snapshot.
// Timestamps are normalized to UTC without monotonic readings so they survive a JSON round trip.
func NewReport(snap engine.Snapshot) *Report {
	stamp := snap.FinishedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	report := &Report{
		Target:    snap.Target.Name,
		Timestamp: normalizeTime(stamp),
		Summary: Summary{
			TotalTests:           snap.Summary.TotalTestCases,
			VulnerabilitiesFound: snap.Summary.FindingsCount,
			RiskScore:            snap.Summary.RiskScore,
		},
		Vulnerabilities: make([]Vulnerability, 0, len(snap.Findings)),
	}

	for _, f := range snap.Findings {
		report.Vulnerabilities = append(report.Vulnerabilities, Vulnerability{
			ID:         f.ID,
			TestVector: f.VectorID,
			TestName:   f.VectorName,
			Severity:   f.Severity,
			Details:    f.Detail,
			Timestamp:  normalizeTime(f.DiscoveredAt),
		})
	}

	return report
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Round(0)
}
