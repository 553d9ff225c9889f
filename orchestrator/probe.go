package orchestrator

import (
	"context"
	"time"

	"distmul/matrix"
)

// probeBackend is the backend every footprint is measured on.
const probeBackend = 0

// Probe estimates the latency of one leaf-level remote multiply.
type Probe struct {
	backend Backend
}

// NewProbe returns a probe that measures against backend.
func NewProbe(backend Backend) *Probe {
	return &Probe{backend: backend}
}

// Measure multiplies the top-left sampleSize×sampleSize corners of a and b on
// backend 0 and returns the wall-clock time of that single call. The call is
// synchronous; measuring concurrent calls would not yield a per-call sample.
func (p *Probe) Measure(ctx context.Context, a, b *matrix.Matrix, sampleSize int) (time.Duration, error) {
	subA := matrix.TopLeftCorner(a, sampleSize)
	subB := matrix.TopLeftCorner(b, sampleSize)

	start := time.Now()
	if _, err := p.backend.Multiply(ctx, subA, subB, probeBackend); err != nil {
		return 0, &BackendFailure{Op: "probe", Index: probeBackend, Err: err}
	}
	return time.Since(start), nil
}
