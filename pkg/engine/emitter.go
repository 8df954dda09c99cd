package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/target"
)

// DefaultEmitProbability is the per-step chance of the random emitter producing a finding
const DefaultEmitProbability = 0.20

// StepRequest describes one discrete unit of simulated work
type StepRequest struct {
	Target           target.Target
	Vectors          []catalog.TestVector
	PreviousFindings int
	Step             int
}

// Emitter decides whether a step produces a finding.
// Step must not block: the engine only observes cancellation between steps.
type Emitter interface {
	Step(ctx context.Context, req StepRequest) (*Finding, error)
}

// EmitterFunc adapts a function to the Emitter interface
type EmitterFunc func(ctx context.Context, req StepRequest) (*Finding, error)

// Step calls f
func (f EmitterFunc) Step(ctx context.Context, req StepRequest) (*Finding, error) {
	return f(ctx, req)
}

// RandomEmitter emits a finding for a uniformly chosen vector with a fixed probability.
// It is safe for concurrent use by many jobs.
type RandomEmitter struct {
	probability float64
	now         func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomEmitter creates an emitter; probability is clamped to [0,1].
// A zero seed draws a random one.
func NewRandomEmitter(probability float64, seed uint64) *RandomEmitter {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomEmitter{
		probability: probability,
		now:         time.Now,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Probability returns the configured per-step emit probability
func (e *RandomEmitter) Probability() float64 {
	return e.probability
}

// Step implements Emitter
func (e *RandomEmitter) Step(_ context.Context, req StepRequest) (*Finding, error) {
	if len(req.Vectors) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	hit := e.rng.Float64() < e.probability
	pick := 0
	if hit {
		pick = e.rng.IntN(len(req.Vectors))
	}
	e.mu.Unlock()

	if !hit {
		return nil, nil
	}

	vector := req.Vectors[pick]
	return &Finding{
		ID:           FindingID(req.PreviousFindings + 1),
		VectorID:     vector.ID,
		VectorName:   vector.Name,
		Severity:     vector.Severity,
		Detail:       fmt.Sprintf("Simulated vulnerability found in %s using %s test vector.", req.Target.Name, vector.Name),
		DiscoveredAt: e.now(),
	}, nil
}
