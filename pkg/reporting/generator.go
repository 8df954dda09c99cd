package reporting

import (
	"fmt"
	"sort"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/engine"
)

// ReportGenerator handles the generation of security assessment reports
type ReportGenerator struct {
	config   config.ReportsConfig
	catalog  *catalog.Catalog
	exporter *Exporter
}

// ReportData bundles a report with its analysis
type ReportData struct {
	Report          *Report          `json:"report"`
	Status          engine.Status    `json:"status,omitempty"`
	Analysis        Analysis         `json:"analysis"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation provides actionable security recommendations
type Recommendation struct {
	Priority    string   `json:"priority"` // critical, high, medium, low
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
	References  []string `json:"references"`
}

// NewReportGenerator creates a new report generator instance
func NewReportGenerator(reportsConfig config.ReportsConfig, cat *catalog.Catalog) (*ReportGenerator, error) {
	if cat == nil {
		cat = catalog.Default()
	}

	exporter, err := NewExporter(reportsConfig.OutputDir, reportsConfig.Formats, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	return &ReportGenerator{
		config:   reportsConfig,
		catalog:  cat,
		exporter: exporter,
	}, nil
}

// GenerateReport builds the report of a finished job
func (rg *ReportGenerator) GenerateReport(snap engine.Snapshot) (*ReportData, error) {
	if !snap.Status.IsTerminal() {
		return nil, fmt.Errorf("job %s is still %s", snap.ID, snap.Status)
	}

	data := rg.AnalyzeReport(NewReport(snap))
	data.Status = snap.Status
	return data, nil
}

// AnalyzeReport attaches analysis and recommendations to an existing report
func (rg *ReportGenerator) AnalyzeReport(report *Report) *ReportData {
	analysis := Analyze(report, rg.catalog)
	return &ReportData{
		Report:          report,
		Analysis:        analysis,
		Recommendations: rg.generateRecommendations(analysis),
	}
}

// ExportReport writes the report in the configured formats and returns the written paths
func (rg *ReportGenerator) ExportReport(report *Report) ([]string, error) {
	return rg.exporter.Export(report)
}

// Formats returns the configured export formats
func (rg *ReportGenerator) Formats() []string {
	return append([]string(nil), rg.exporter.formats...)
}

var categoryGuidance = map[catalog.Category]Recommendation{
	catalog.CategoryOWASP: {
		Title:       "Harden Model Input and Output Handling",
		Description: "OWASP LLM test vectors produced findings",
		Actions: []string{
			"Treat model output as untrusted before rendering or executing it",
			"Separate system instructions from user-supplied content",
			"Add input filtering for known prompt injection patterns",
		},
		References: []string{"https://owasp.org/www-project-top-10-for-large-language-model-applications/"},
	},
	catalog.CategoryNIST: {
		Title:       "Close AI Risk Management Gaps",
		Description: "NIST AI RMF checks reported governance or transparency issues",
		Actions: []string{
			"Document model ownership and accountability",
			"Publish model cards describing intended use and limitations",
		},
		References: []string{"https://www.nist.gov/itl/ai-risk-management-framework"},
	},
	catalog.CategoryFairness: {
		Title:       "Investigate Biased Model Behavior",
		Description: "Fairness probes detected unequal treatment across groups",
		Actions: []string{
			"Evaluate outcomes across demographic slices",
			"Review training data balance",
		},
	},
	catalog.CategoryPrivacy: {
		Title:       "Prevent Personal Data Exposure",
		Description: "Privacy checks found potential personal data leakage",
		Actions: []string{
			"Redact personal data from prompts and logs",
			"Verify data retention matches GDPR obligations",
		},
		References: []string{"https://gdpr.eu/"},
	},
	catalog.CategoryExploit: {
		Title:       "Strengthen Jailbreak Resistance",
		Description: "Model safety controls were bypassed",
		Actions: []string{
			"Add an output moderation layer",
			"Red-team new releases against known jailbreak corpora",
		},
	},
}

// generateRecommendations creates one recommendation per affected category
func (rg *ReportGenerator) generateRecommendations(analysis Analysis) []Recommendation {
	var recommendations []Recommendation

	categories := make([]string, 0, len(analysis.ByCategory))
	for category := range analysis.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		guidance, ok := categoryGuidance[catalog.Category(category)]
		if !ok {
			continue
		}
		guidance.Category = category
		guidance.Priority = "low"
		if sev := analysis.CategorySeverity[category]; sev != "" {
			guidance.Priority = string(sev)
		}
		recommendations = append(recommendations, guidance)
	}

	recommendations = append(recommendations, Recommendation{
		Priority:    "medium",
		Category:    "process",
		Title:       "Regular Security Assessments",
		Description: "Establish regular AI security testing procedures",
		Actions: []string{
			"Schedule assessments for every model release",
			"Track risk scores across releases",
		},
	})

	return recommendations
}
