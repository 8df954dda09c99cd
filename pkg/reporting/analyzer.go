package reporting

import (
	"sort"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/severity"
)

// Uncategorized labels findings whose vector is not in the catalog
const Uncategorized = "uncategorized"

// Analysis provides the vulnerability breakdown of a report
type Analysis struct {
	BySeverity       map[severity.Severity]int    `json:"by_severity"`
	ByCategory       map[string]int               `json:"by_category"`
	ByVector         map[string]int               `json:"by_vector"`
	CategorySeverity map[string]severity.Severity `json:"category_severity"`
	HighestSeverity  severity.Severity            `json:"highest_severity"`
	OverallRiskLevel string                       `json:"overall_risk_level"`
	TopIssues        []Vulnerability              `json:"top_issues"`
}

const maxTopIssues = 5

// Analyze breaks a report down by severity, category and test vector
func Analyze(report *Report, cat *catalog.Catalog) Analysis {
	analysis := Analysis{
		BySeverity:       make(map[severity.Severity]int),
		ByCategory:       make(map[string]int),
		ByVector:         make(map[string]int),
		CategorySeverity: make(map[string]severity.Severity),
	}

	var severities []severity.Severity
	for _, v := range report.Vulnerabilities {
		sev := severity.Parse(string(v.Severity))
		analysis.BySeverity[sev]++
		analysis.ByVector[v.TestVector]++
		severities = append(severities, sev)

		category := Uncategorized
		if cat != nil {
			if vector, ok := cat.Lookup(v.TestVector); ok {
				category = string(vector.Category)
			}
		}
		analysis.ByCategory[category]++
		if sev.Rank() > analysis.CategorySeverity[category].Rank() {
			analysis.CategorySeverity[category] = sev
		}
	}

	analysis.HighestSeverity = severity.Highest(severities)
	analysis.OverallRiskLevel = riskLevel(analysis.HighestSeverity, len(report.Vulnerabilities))

	top := append([]Vulnerability(nil), report.Vulnerabilities...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Severity.Rank() > top[j].Severity.Rank()
	})
	if len(top) > maxTopIssues {
		top = top[:maxTopIssues]
	}
	analysis.TopIssues = top

	return analysis
}

// riskLevel maps the worst finding to an overall level
func riskLevel(highest severity.Severity, findings int) string {
	if findings == 0 {
		return "MINIMAL"
	}
	switch highest {
	case severity.Critical:
		return "CRITICAL"
	case severity.High:
		return "HIGH"
	case severity.Medium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
