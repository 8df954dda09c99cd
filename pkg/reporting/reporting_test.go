package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/engine"
	"github.com/ajkula/renegade/pkg/severity"
	"github.com/ajkula/renegade/pkg/target"
)

var finishedAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func completedSnapshot() engine.Snapshot {
	findings := []engine.Finding{
		{ID: "VULN-1", VectorID: "xss", VectorName: "Cross-Site Scripting", Severity: severity.Medium, Detail: "first", DiscoveredAt: finishedAt.Add(-3 * time.Second)},
		{ID: "VULN-2", VectorID: "jailbreaking", VectorName: "Jailbreaking Attempts", Severity: severity.Critical, Detail: "second, with comma", DiscoveredAt: finishedAt.Add(-2 * time.Second)},
		{ID: "VULN-3", VectorID: "privacy_gdpr", VectorName: "GDPR Compliance", Severity: severity.Critical, Detail: "third \"quoted\"", DiscoveredAt: finishedAt.Add(-time.Second)},
	}
	return engine.Snapshot{
		ID:       "job-1",
		Target:   target.Target{Name: "Prod Chat/v2", Endpoint: "https://chat.example.com", Kind: target.KindLLM},
		Status:   engine.StatusCompleted,
		Progress: 1,
		Findings: findings,
		Summary: engine.Summary{
			TotalTestCases: 30,
			FindingsCount:  3,
			RiskScore:      12,
		},
		FinishedAt: finishedAt,
	}
}

func TestNewReportMapsSnapshot(t *testing.T) {
	report := NewReport(completedSnapshot())

	assert.Equal(t, "Prod Chat/v2", report.Target)
	assert.Equal(t, finishedAt, report.Timestamp)
	assert.Equal(t, Summary{TotalTests: 30, VulnerabilitiesFound: 3, RiskScore: 12}, report.Summary)
	require.Len(t, report.Vulnerabilities, 3)
	assert.Equal(t, Vulnerability{
		ID:         "VULN-2",
		TestVector: "jailbreaking",
		TestName:   "Jailbreaking Attempts",
		Severity:   severity.Critical,
		Details:    "second, with comma",
		Timestamp:  finishedAt.Add(-2 * time.Second),
	}, report.Vulnerabilities[1])
}

func TestNewReportWithoutFindings(t *testing.T) {
	snap := completedSnapshot()
	snap.Findings = nil
	snap.Summary = engine.Summary{TotalTestCases: 90}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewReport(snap)))
	assert.Contains(t, buf.String(), `"vulnerabilities": []`)
}

func TestJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewReport(completedSnapshot())))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.ElementsMatch(t, []string{"target", "timestamp", "summary", "vulnerabilities"}, keys(raw))

	summary := raw["summary"].(map[string]any)
	assert.ElementsMatch(t, []string{"total_tests", "vulnerabilities_found", "risk_score"}, keys(summary))

	first := raw["vulnerabilities"].([]any)[0].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "test_vector", "test_name", "severity", "details", "timestamp"}, keys(first))
	assert.Equal(t, "2025-03-14T09:26:50Z", first["timestamp"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestJSONRoundTrip(t *testing.T) {
	report := NewReport(completedSnapshot())

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	decoded, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, report, decoded)
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, NewReport(completedSnapshot())))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"VULN-2", "jailbreaking", "Jailbreaking Attempts", "critical", "second, with comma", "2025-03-14T09:26:51Z"}, rows[2])
	assert.Equal(t, "third \"quoted\"", rows[3][4])
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	snap := completedSnapshot()
	snap.Findings = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, NewReport(snap)))
	assert.Equal(t, "id,test_vector,test_name,severity,details,timestamp\n", buf.String())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, NewReport(completedSnapshot()), catalog.Default()))

	text := buf.String()
	assert.Contains(t, text, "AI SECURITY ASSESSMENT REPORT")
	assert.Contains(t, text, "Target: Prod Chat/v2")
	assert.Contains(t, text, "Overall Risk Level: CRITICAL")
	assert.Contains(t, text, "Risk Score: 12")
	assert.Contains(t, text, "CRITICAL: 2")
	assert.Contains(t, text, "MEDIUM: 1")
	assert.Contains(t, text, "VULN-3 GDPR Compliance [CRITICAL]")
	assert.Contains(t, text, "Vulnerabilities by Test Vector:")
	assert.Contains(t, text, "  jailbreaking: 1\n")
}

func TestAnalyze(t *testing.T) {
	report := NewReport(completedSnapshot())
	report.Vulnerabilities = append(report.Vulnerabilities, Vulnerability{ID: "VULN-4", TestVector: "custom", Severity: "LOW"})

	analysis := Analyze(report, catalog.Default())

	assert.Equal(t, map[severity.Severity]int{severity.Medium: 1, severity.Critical: 2, severity.Low: 1}, analysis.BySeverity)
	assert.Equal(t, map[string]int{"owasp": 1, "exploit": 1, "privacy": 1, Uncategorized: 1}, analysis.ByCategory)
	assert.Equal(t, map[string]int{"xss": 1, "jailbreaking": 1, "privacy_gdpr": 1, "custom": 1}, analysis.ByVector)
	assert.Equal(t, severity.Critical, analysis.HighestSeverity)
	assert.Equal(t, "CRITICAL", analysis.OverallRiskLevel)

	require.Len(t, analysis.TopIssues, 4)
	assert.Equal(t, "VULN-2", analysis.TopIssues[0].ID, "ties keep report order")
	assert.Equal(t, "VULN-3", analysis.TopIssues[1].ID)
	assert.Equal(t, "VULN-1", analysis.TopIssues[2].ID)
}

func TestAnalyzeEmptyReport(t *testing.T) {
	analysis := Analyze(&Report{}, nil)
	assert.Equal(t, "MINIMAL", analysis.OverallRiskLevel)
	assert.Empty(t, analysis.TopIssues)
}

func TestReportFilename(t *testing.T) {
	report := NewReport(completedSnapshot())
	assert.Equal(t, "renegade_report_Prod_Chat_v2_"+targetTag("Prod Chat/v2")+"_20250314_092653_000.json", ReportFilename(report, "JSON"))
	assert.Equal(t, "renegade_report_target_"+targetTag("///")+"_20250314_092653_000.csv", ReportFilename(&Report{Target: "///", Timestamp: finishedAt}, "csv"))
	assert.Len(t, targetTag("anything"), 8)
	assert.Equal(t, targetTag("Local Model"), targetTag("Local Model"))
}

func TestReportFilenameKeepsDistinctReportsApart(t *testing.T) {
	spaced := ReportFilename(&Report{Target: "Local Model", Timestamp: finishedAt}, "json")
	underscored := ReportFilename(&Report{Target: "Local_Model", Timestamp: finishedAt}, "json")
	assert.NotEqual(t, spaced, underscored)

	later := ReportFilename(&Report{Target: "Local Model", Timestamp: finishedAt.Add(250 * time.Millisecond)}, "json")
	assert.NotEqual(t, spaced, later)
	assert.True(t, strings.HasSuffix(later, "_20250314_092653_250.json"))
}

func TestExportNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	exporter, err := NewExporter(dir, []string{"json"}, nil)
	require.NoError(t, err)

	first := NewReport(completedSnapshot())
	second := NewReport(completedSnapshot())
	second.Vulnerabilities = second.Vulnerabilities[:1]
	second.Summary.VulnerabilitiesFound = 1

	firstPaths, err := exporter.Export(first)
	require.NoError(t, err)
	secondPaths, err := exporter.Export(second)
	require.NoError(t, err)

	require.Len(t, firstPaths, 1)
	require.Len(t, secondPaths, 1)
	assert.NotEqual(t, firstPaths[0], secondPaths[0])
	assert.True(t, strings.HasSuffix(secondPaths[0], "_2.json"))

	loadedFirst, err := LoadReport(firstPaths[0])
	require.NoError(t, err)
	assert.Len(t, loadedFirst.Vulnerabilities, 3)

	loadedSecond, err := LoadReport(secondPaths[0])
	require.NoError(t, err)
	assert.Len(t, loadedSecond.Vulnerabilities, 1)
}

func TestNewExporterValidatesFormats(t *testing.T) {
	_, err := NewExporter(t.TempDir(), []string{"json", "pdf"}, nil)
	assert.ErrorContains(t, err, "unsupported export format: pdf")

	_, err = NewExporter("", nil, nil)
	assert.Error(t, err)
}

func TestReportGeneratorExportsAndLoads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	gen, err := NewReportGenerator(config.ReportsConfig{Formats: []string{"json", "csv", "txt"}, OutputDir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"json", "csv", "txt"}, gen.Formats())

	data, err := gen.GenerateReport(completedSnapshot())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, data.Status)
	assert.Equal(t, "CRITICAL", data.Analysis.OverallRiskLevel)

	paths, err := gen.ExportReport(data.Report)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	loaded, err := LoadReport(paths[0])
	require.NoError(t, err)
	assert.Equal(t, data.Report, loaded)
}

func TestGenerateReportRequiresFinishedJob(t *testing.T) {
	gen, err := NewReportGenerator(config.ReportsConfig{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)

	snap := completedSnapshot()
	snap.Status = engine.StatusRunning
	_, err = gen.GenerateReport(snap)
	assert.ErrorContains(t, err, "still running")
}

func TestRecommendationsFollowCategories(t *testing.T) {
	gen, err := NewReportGenerator(config.ReportsConfig{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)

	data, err := gen.GenerateReport(completedSnapshot())
	require.NoError(t, err)

	byCategory := make(map[string]Recommendation)
	for _, r := range data.Recommendations {
		byCategory[r.Category] = r
	}
	assert.Equal(t, "critical", byCategory["exploit"].Priority)
	assert.Equal(t, "critical", byCategory["privacy"].Priority)
	assert.Equal(t, "medium", byCategory["owasp"].Priority)
	assert.Contains(t, byCategory, "process")
	assert.NotContains(t, byCategory, "nist")
}

func TestLoadReportMissingFile(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
