package engine

import (
	"fmt"
	"time"

	"github.com/ajkula/renegade/pkg/severity"
)

// Finding is a single discovered vulnerability instance. Immutable once appended to a job.
type Finding struct {
	ID           string            `json:"id"`
	VectorID     string            `json:"vector_id"`
	VectorName   string            `json:"vector_name"`
	Severity     severity.Severity `json:"severity"`
	Detail       string            `json:"detail"`
	DiscoveredAt time.Time         `json:"discovered_at"`
}

// FindingID formats the n-th finding ID of a job (1-based)
func FindingID(n int) string {
	return fmt.Sprintf("VULN-%d", n)
}

// Summary holds the derived statistics of a job
type Summary struct {
	TotalTestCases int `json:"total_test_cases"`
	FindingsCount  int `json:"findings_count"`
	RiskScore      int `json:"risk_score"`
}

// add folds one finding into the summary
func (s *Summary) add(f Finding) {
	s.FindingsCount++
	s.RiskScore += severity.Weight(f.Severity)
}

// SeverityCounts tallies findings per severity
func SeverityCounts(findings []Finding) map[severity.Severity]int {
	counts := make(map[severity.Severity]int)
	for _, f := range findings {
		counts[severity.Parse(string(f.Severity))]++
	}
	return counts
}
