package assess

import (
	"sync"
	"time"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/engine"
	"github.com/ajkula/renegade/pkg/reporting"
	"github.com/ajkula/renegade/pkg/target"
)

// AssessmentResult represents the outcome of one assess session
type AssessmentResult struct {
	// Session metadata
	SessionID string        `json:"session_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Selection
	Vectors []catalog.TestVector `json:"vectors"`
	Budget  time.Duration        `json:"budget"`

	// Final job snapshots, in target order
	Jobs []engine.Snapshot `json:"jobs"`

	// Targets that could not be submitted
	Rejected []Rejection `json:"rejected,omitempty"`

	// Set when the session was interrupted
	Interrupted bool `json:"interrupted"`

	// Summary statistics across all jobs
	TotalFindings int `json:"total_findings"`
	TotalRisk     int `json:"total_risk"`
	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
}

// Rejection records a target the engine refused
type Rejection struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// Plan is a resolved assessment request
type Plan struct {
	Targets []target.Target
	Vectors []catalog.TestVector
	Budget  time.Duration
}

// AssessmentOrchestrator drives one engine job per target and collects the results
type AssessmentOrchestrator struct {
	config       *config.Config
	engine       *engine.Engine
	generator    *reporting.ReportGenerator
	logger       *console.Logger
	showProgress bool
	pollInterval time.Duration

	// findings already announced per job, updated from job goroutines
	mu       sync.Mutex
	reported map[string]int
}
