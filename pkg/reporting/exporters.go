package reporting

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/severity"
)

// Supported export formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "txt"
)

// CSVHeader is the column order of the tabular findings export
var CSVHeader = []string{"id", "test_vector", "test_name", "severity", "details", "timestamp"}

// ValidFormat reports whether format can be exported
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatJSON, FormatCSV, FormatText:
		return true
	}
	return false
}

// WriteJSON encodes the report as indented JSON
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return nil
}

// ReadJSON decodes a report written by WriteJSON
func ReadJSON(r io.Reader) (*Report, error) {
	var report Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// WriteCSV writes one row per vulnerability under CSVHeader
func WriteCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, v := range report.Vulnerabilities {
		row := []string{v.ID, v.TestVector, v.TestName, string(v.Severity), v.Details, v.Timestamp.Format(time.RFC3339Nano)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", v.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes a human-readable report
func WriteText(w io.Writer, report *Report, cat *catalog.Catalog) error {
	_, err := io.WriteString(w, generateTextReport(report, Analyze(report, cat)))
	return err
}

// generateTextReport creates a formatted text report
func generateTextReport(report *Report, analysis Analysis) string {
	var sb strings.Builder

	sb.WriteString("═══════════════════════════════════════════════════════════════════\n")
	sb.WriteString("                            RENEGADE                               \n")
	sb.WriteString("                 AI SECURITY ASSESSMENT REPORT                     \n")
	sb.WriteString("═══════════════════════════════════════════════════════════════════\n\n")

	sb.WriteString(fmt.Sprintf("Generated: %s\n", report.Timestamp.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Target: %s\n", report.Target))
	sb.WriteString("\n")

	sb.WriteString("EXECUTIVE SUMMARY\n")
	sb.WriteString("─────────────────\n")
	sb.WriteString(fmt.Sprintf("Overall Risk Level: %s\n", analysis.OverallRiskLevel))
	sb.WriteString(fmt.Sprintf("Risk Score: %d\n", report.Summary.RiskScore))
	sb.WriteString(fmt.Sprintf("Total Tests: %d\n", report.Summary.TotalTests))
	sb.WriteString(fmt.Sprintf("Vulnerabilities Found: %d\n", report.Summary.VulnerabilitiesFound))

	if len(report.Vulnerabilities) > 0 {
		sb.WriteString("\nIssue Breakdown:\n")
		levels := severity.All()
		for i := len(levels) - 1; i >= 0; i-- {
			if n := analysis.BySeverity[levels[i]]; n > 0 {
				sb.WriteString(fmt.Sprintf("  %s: %d\n", strings.ToUpper(string(levels[i])), n))
			}
		}

		sb.WriteString("\nVulnerabilities by Test Vector:\n")
		for _, id := range vectorsByCount(report, analysis) {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", id, analysis.ByVector[id]))
		}
	}
	sb.WriteString("\n")

	if len(report.Vulnerabilities) > 0 {
		sb.WriteString("VULNERABILITY FINDINGS\n")
		sb.WriteString("──────────────────────\n")
		for i, v := range report.Vulnerabilities {
			sb.WriteString(fmt.Sprintf("%d. %s %s [%s]\n", i+1, v.ID, v.TestName, strings.ToUpper(string(v.Severity))))
			sb.WriteString(fmt.Sprintf("   Test Vector: %s\n", v.TestVector))
			sb.WriteString(fmt.Sprintf("   Details: %s\n", v.Details))
			sb.WriteString(fmt.Sprintf("   Discovered: %s\n", v.Timestamp.Format(time.RFC3339)))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("═══════════════════════════════════════════════════════════════════\n")

	return sb.String()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename makes a target name safe to embed in a file name
func sanitizeFilename(name string) string {
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "_")
	if cleaned == "" {
		return "target"
	}
	return cleaned
}

// vectorsByCount orders the vector IDs by finding count, then by first appearance
func vectorsByCount(report *Report, analysis Analysis) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, v := range report.Vulnerabilities {
		if !seen[v.TestVector] {
			seen[v.TestVector] = true
			ids = append(ids, v.TestVector)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return analysis.ByVector[ids[i]] > analysis.ByVector[ids[j]]
	})
	return ids
}

// ReportFilename returns the file name used for a report in the given format.
// Target names that sanitize to the same text still get distinct names through targetTag.
func ReportFilename(report *Report, format string) string {
	ts := report.Timestamp
	stamp := fmt.Sprintf("%s_%03d", ts.Format("20060102_150405"), ts.Nanosecond()/int(time.Millisecond))
	return fmt.Sprintf("renegade_report_%s_%s_%s.%s",
		sanitizeFilename(report.Target), targetTag(report.Target), stamp, strings.ToLower(format))
}

// targetTag is a short stable digest of the raw target name
func targetTag(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()[:8]
}

// maxNameAttempts bounds the numeric suffixes tried when a report file already exists
const maxNameAttempts = 100

// Exporter writes report files into a directory
type Exporter struct {
	outputDir string
	formats   []string
	catalog   *catalog.Catalog
}

// NewExporter validates the formats and creates an exporter
func NewExporter(outputDir string, formats []string, cat *catalog.Catalog) (*Exporter, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("reports output directory is required")
	}
	if len(formats) == 0 {
		formats = []string{FormatJSON}
	}
	for _, format := range formats {
		if !ValidFormat(format) {
			return nil, fmt.Errorf("unsupported export format: %s", format)
		}
	}
	return &Exporter{outputDir: outputDir, formats: formats, catalog: cat}, nil
}

// Export writes the report in every configured format and returns the written paths
func (ex *Exporter) Export(report *Report) ([]string, error) {
	if err := os.MkdirAll(ex.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, format := range ex.formats {
		path, err := ex.exportFile(ReportFilename(report, format), format, report)
		if err != nil {
			return written, fmt.Errorf("failed to export %s: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// createUnique opens name in the output directory without ever truncating an
// existing file, appending _2, _3, ... until a free name is found
func (ex *Exporter) createUnique(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; n <= maxNameAttempts; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		path := filepath.Join(ex.outputDir, candidate)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s after %d attempts", name, maxNameAttempts)
}

func (ex *Exporter) exportFile(name, format string, report *Report) (string, error) {
	file, path, err := ex.createUnique(name)
	if err != nil {
		return "", err
	}
	defer file.Close()

	switch strings.ToLower(format) {
	case FormatJSON:
		err = WriteJSON(file, report)
	case FormatCSV:
		err = WriteCSV(file, report)
	case FormatText:
		err = WriteText(file, report, ex.catalog)
	}
	if err != nil {
		return path, err
	}
	return path, file.Close()
}

// LoadReport reads a JSON report file
func LoadReport(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	defer file.Close()
	return ReadJSON(file)
}
