package assess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/engine"
	"github.com/ajkula/renegade/pkg/reporting"
	"github.com/ajkula/renegade/pkg/severity"
)

const defaultPollInterval = 200 * time.Millisecond

// NewAssessmentOrchestrator creates an orchestrator with an engine built from cfg
func NewAssessmentOrchestrator(cfg *config.Config, generator *reporting.ReportGenerator, logger *console.Logger, showProgress bool) *AssessmentOrchestrator {
	o := &AssessmentOrchestrator{
		config:       cfg,
		generator:    generator,
		logger:       logger,
		showProgress: showProgress,
		pollInterval: defaultPollInterval,
		reported:     make(map[string]int),
	}

	o.engine = engine.New(engine.Options{
		Steps:         cfg.Engine.Steps,
		Emitter:       engine.NewRandomEmitter(cfg.Engine.EmitProbability, cfg.Engine.Seed),
		MaxActiveJobs: cfg.Engine.MaxConcurrentJobs,
		OnProgress:    o.onProgress,
		Logger:        logger,
	})

	return o
}

// ExecuteAssessment submits one job per target and blocks until every job has stopped.
// Cancelling ctx cancels all running jobs; their partial results are still returned.
// Targets beyond the engine's capacity wait for a free slot.
func (o *AssessmentOrchestrator) ExecuteAssessment(ctx context.Context, plan Plan) (*AssessmentResult, error) {
	defer o.engine.Close()

	if len(plan.Targets) == 0 {
		return nil, fmt.Errorf("no targets to assess")
	}

	startTime := time.Now()
	result := &AssessmentResult{
		SessionID: fmt.Sprintf("rg_%d", startTime.Unix()),
		StartTime: startTime,
		Vectors:   plan.Vectors,
		Budget:    plan.Budget,
	}

	if interval := o.config.Engine.ReapInterval; interval > 0 {
		reapCtx, stopReaper := context.WithCancel(context.Background())
		defer stopReaper()
		o.engine.StartReaper(reapCtx, interval)
	}

	handles := make([]engine.Handle, len(plan.Targets))
	queue := make([]int, len(plan.Targets))
	for i := range queue {
		queue[i] = i
	}
	milestones := make([]int, len(plan.Targets))

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	interrupt := ctx.Done()

	for {
		queue = o.submitPending(plan, handles, queue, result)

		running := false
		for i, h := range handles {
			if h.IsZero() {
				continue
			}
			snap, err := o.engine.Poll(h)
			if err != nil {
				return nil, fmt.Errorf("failed to poll job for %s: %w", plan.Targets[i].Name, err)
			}
			if !snap.Status.IsTerminal() {
				running = true
			}
			o.renderProgress(snap, &milestones[i])
		}

		if !running && len(queue) == 0 {
			break
		}

		select {
		case <-interrupt:
			interrupt = nil
			result.Interrupted = true
			o.logger.Warning("Interrupt received, cancelling running assessments...")
			o.engine.CancelAll()
			for _, idx := range queue {
				result.Rejected = append(result.Rejected, Rejection{Target: plan.Targets[idx].Name, Reason: "interrupted before start"})
			}
			queue = nil
		case <-ticker.C:
		}
	}

	for _, h := range handles {
		if h.IsZero() {
			continue
		}
		snap, err := o.engine.Wait(context.Background(), h)
		if err != nil {
			return nil, fmt.Errorf("failed to collect job %s: %w", h.ID(), err)
		}
		result.Jobs = append(result.Jobs, snap)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	o.calculateSummaryStats(result)

	return result, nil
}

// submitPending submits queued targets until the engine reports it is full
func (o *AssessmentOrchestrator) submitPending(plan Plan, handles []engine.Handle, queue []int, result *AssessmentResult) []int {
	for len(queue) > 0 {
		idx := queue[0]
		tgt := plan.Targets[idx]

		h, err := o.engine.Submit(tgt, plan.Vectors, plan.Budget)
		switch {
		case errors.Is(err, engine.ErrCapacity):
			return queue
		case err != nil:
			o.logger.Errorf("Cannot assess %s: %v", tgt.Name, err)
			result.Rejected = append(result.Rejected, Rejection{Target: tgt.Name, Reason: err.Error()})
		default:
			handles[idx] = h
			o.logger.Infof("Assessing %s (%s) with %d test vector(s), job %s", tgt.Name, tgt.Endpoint, len(plan.Vectors), h.ID())
		}
		queue = queue[1:]
	}
	return queue
}

// renderProgress prints a progress line each time a job crosses a 10% milestone
func (o *AssessmentOrchestrator) renderProgress(snap engine.Snapshot, milestone *int) {
	if !o.showProgress {
		return
	}

	reached := int(snap.Progress * 10)
	if snap.Status.IsTerminal() {
		reached = 11
	}
	if reached <= *milestone {
		return
	}
	*milestone = reached

	o.logger.Printf("  %-24s %s  findings: %-3d risk: %d\n",
		truncate(snap.Target.Name, 24), console.ProgressBar(snap.Progress, 30), snap.Summary.FindingsCount, snap.Summary.RiskScore)
}

// onProgress announces high and critical findings as the engine commits them
func (o *AssessmentOrchestrator) onProgress(snap engine.Snapshot) {
	o.mu.Lock()
	from := o.reported[snap.ID]
	o.reported[snap.ID] = len(snap.Findings)
	o.mu.Unlock()

	for _, f := range snap.Findings[from:] {
		if f.Severity.Rank() >= severity.High.Rank() {
			o.logger.Warningf("%s: %s %s [%s]", snap.Target.Name, f.ID, f.VectorName, o.logger.Severity(f.Severity))
		}
	}
}

// SaveReports exports a report for every completed job and returns the written files
func (o *AssessmentOrchestrator) SaveReports(result *AssessmentResult) ([]string, error) {
	var written []string
	var errs []error

	for _, snap := range result.Jobs {
		if snap.Status != engine.StatusCompleted {
			o.logger.Warningf("No report for %s: assessment %s", snap.Target.Name, snap.Status)
			continue
		}

		data, err := o.generator.GenerateReport(snap)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		paths, err := o.generator.ExportReport(data.Report)
		written = append(written, paths...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", snap.Target.Name, err))
		}
	}

	return written, errors.Join(errs...)
}

// calculateSummaryStats aggregates findings across all jobs
func (o *AssessmentOrchestrator) calculateSummaryStats(result *AssessmentResult) {
	result.TotalFindings = 0
	result.TotalRisk = 0
	result.CriticalCount, result.HighCount, result.MediumCount, result.LowCount = 0, 0, 0, 0

	for _, snap := range result.Jobs {
		result.TotalFindings += snap.Summary.FindingsCount
		result.TotalRisk += snap.Summary.RiskScore

		counts := engine.SeverityCounts(snap.Findings)
		result.CriticalCount += counts[severity.Critical]
		result.HighCount += counts[severity.High]
		result.MediumCount += counts[severity.Medium]
		result.LowCount += counts[severity.Low]
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
