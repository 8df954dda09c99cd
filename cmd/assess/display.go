package assess

import (
	"strings"
	"time"

	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/engine"
)

// DisplayResults shows a formatted summary of the assessment session
func DisplayResults(logger *console.Logger, result *AssessmentResult) {
	logger.Section("ASSESSMENT SESSION SUMMARY")

	logger.Printf("Session ID: %s\n", result.SessionID)
	logger.Printf("Duration: %v\n", result.Duration.Round(time.Millisecond))
	logger.Printf("Budget per target: %v\n", result.Budget)
	logger.Printf("Test vectors: %s\n", vectorIDs(result))
	logger.Printf("\n")

	for _, snap := range result.Jobs {
		displayJob(logger, snap)
	}

	for _, r := range result.Rejected {
		logger.Warningf("%s not assessed: %s", r.Target, r.Reason)
	}

	printVulnerabilitySummary(logger, result)
	printOverallAssessment(logger, result)
}

func displayJob(logger *console.Logger, snap engine.Snapshot) {
	logger.Printf("%s [%s]\n", snap.Target.Name, strings.ToUpper(string(snap.Status)))
	logger.Printf("  Endpoint: %s\n", snap.Target.Endpoint)
	logger.Printf("  Progress: %s\n", console.ProgressBar(snap.Progress, 30))
	logger.Printf("  Findings: %d  Risk score: %d  Test cases: %d\n",
		snap.Summary.FindingsCount, snap.Summary.RiskScore, snap.Summary.TotalTestCases)
	logger.Printf("  Elapsed: %v\n", snap.Elapsed().Round(time.Millisecond))

	if snap.Error != nil {
		logger.Errorf("%s failed: %s", snap.Target.Name, snap.Error.Message)
		if logger.Verbose() && snap.Error.Trace != "" {
			logger.Printf("%s\n", snap.Error.Trace)
		}
	}

	if logger.Verbose() {
		for _, f := range snap.Findings {
			logger.Printf("    %s %-28s %s\n", f.ID, f.VectorName, logger.Severity(f.Severity))
		}
	}
	logger.Printf("\n")
}

func printVulnerabilitySummary(logger *console.Logger, result *AssessmentResult) {
	logger.Section("VULNERABILITY SUMMARY")
	logger.Printf("Total findings: %d\n", result.TotalFindings)
	logger.Printf("Combined risk score: %d\n", result.TotalRisk)
	if result.TotalFindings == 0 {
		return
	}
	logger.Printf("  Critical: %d\n", result.CriticalCount)
	logger.Printf("  High: %d\n", result.HighCount)
	logger.Printf("  Medium: %d\n", result.MediumCount)
	logger.Printf("  Low: %d\n", result.LowCount)
}

func printOverallAssessment(logger *console.Logger, result *AssessmentResult) {
	logger.Printf("\n")
	switch {
	case result.Interrupted:
		logger.Warning("Assessment interrupted; results are partial")
	case result.CriticalCount > 0:
		logger.Error("Critical vulnerabilities found; immediate remediation recommended")
	case result.HighCount > 0:
		logger.Warning("High severity vulnerabilities found")
	case result.TotalFindings > 0:
		logger.Info("Only low and medium severity findings")
	default:
		logger.Success("No vulnerabilities found")
	}
}

func vectorIDs(result *AssessmentResult) string {
	ids := make([]string, 0, len(result.Vectors))
	for _, v := range result.Vectors {
		ids = append(ids, v.ID)
	}
	return strings.Join(ids, ", ")
}
