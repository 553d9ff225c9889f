// Package orchestrator multiplies large matrices by recursive block
// decomposition, running every leaf product and every partial sum on remote
// compute backends.
//
// One request forms a task tree: each level splits both operands into
// quadrants, computes the four output quadrants concurrently, and inside each
// quadrant computes its two block products concurrently before a remote add
// combines them. Leaves are dispatched according to a Policy.
package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"distmul/matrix"
	"distmul/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Backend is the remote compute service the orchestrator dispatches to.
type Backend interface {
	Multiply(ctx context.Context, a, b *matrix.Matrix, index int) (*matrix.Matrix, error)
	Add(ctx context.Context, a, b *matrix.Matrix, index int) (*matrix.Matrix, error)
	MultiplyMultiThread(ctx context.Context, a, b *matrix.Matrix, address string) (*matrix.Matrix, error)
	BackendCount() int
}

// Multiplier runs distributed multiplications. It holds no per-request state
// and is safe for concurrent use.
type Multiplier struct {
	backend     Backend
	probe       *Probe
	maxInFlight int64
}

// Option configures a Multiplier.
type Option func(*Multiplier)

// WithMaxInFlight bounds the remote calls one request may have outstanding
// at once. Zero leaves the task tree unbounded.
func WithMaxInFlight(n int) Option {
	return func(m *Multiplier) { m.maxInFlight = int64(n) }
}

// New returns a Multiplier dispatching to backend.
func New(backend Backend, opts ...Option) *Multiplier {
	m := &Multiplier{
		backend: backend,
		probe:   NewProbe(backend),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Multiply returns a×b computed under policy p.
func (m *Multiplier) Multiply(ctx context.Context, a, b *matrix.Matrix, p Policy) (*matrix.Matrix, error) {
	out, _, err := m.MultiplyStats(ctx, a, b, p)
	return out, err
}

// MultiplyStats is Multiply that also reports how the leaves were dispatched.
func (m *Multiplier) MultiplyStats(ctx context.Context, a, b *matrix.Matrix, p Policy) (*matrix.Matrix, *utils.DispatchStats, error) {
	start := time.Now()
	if err := checkOperands(a, b); err != nil {
		return nil, nil, err
	}
	available := m.backend.BackendCount()
	if err := p.Validate(available); err != nil {
		return nil, nil, err
	}

	req := &request{
		backend: m.backend,
		policy:  p,
		servers: 1,
	}
	switch p.Mode {
	case ModeRoundRobin:
		req.servers = available
	case ModeAdaptive:
		footprint, err := m.probe.Measure(ctx, a, b, p.LeafThreshold)
		if err != nil {
			return nil, nil, err
		}
		c := PlanCapacity(footprint, p.Deadline, a.Size, p.LeafThreshold, available)
		utils.Logf("ORCHESTRATOR", "Footprint time: %d ms", footprint.Milliseconds())
		utils.Logf("ORCHESTRATOR", "Required servers for this request: %d | Servers Available: %d | Servers to use: %d",
			c.ServersRequired, c.ServersAvailable, c.ServersToUse)
		req.servers = c.ServersToUse
		req.footprint = footprint
	}
	req.leafCalls = make([]atomic.Int64, req.servers)
	if m.maxInFlight > 0 {
		req.sem = semaphore.NewWeighted(m.maxInFlight)
	}

	out, err := req.multiply(ctx, a, b)
	if err != nil {
		return nil, nil, err
	}
	return out, req.stats(a.Size, time.Since(start)), nil
}

func checkOperands(a, b *matrix.Matrix) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: missing operand", ErrShapeMismatch)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if a.Size != b.Size {
		return fmt.Errorf("%w: matrix A is %dx%d, matrix B is %dx%d", ErrShapeMismatch, a.Size, a.Size, b.Size, b.Size)
	}
	if !matrix.IsPowerOfTwo(a.Size) {
		return fmt.Errorf("%w: side %d is not a power of two", ErrShapeMismatch, a.Size)
	}
	return nil
}

// request is the state shared by every branch of one top-level call.
type request struct {
	backend   Backend
	policy    Policy
	servers   int // backends leaves are spread over
	footprint time.Duration
	sem       *semaphore.Weighted

	// calls is the round-robin call counter; adds has its own so that
	// additions do not skew the distribution of leaves.
	calls     atomic.Uint64
	adds      atomic.Uint64
	leafCalls []atomic.Int64
	addCalls  atomic.Int64
}

func (r *request) multiply(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if a.Size <= r.policy.LeafThreshold {
		return r.leaf(ctx, a, b)
	}

	half := a.Size / 2
	qa, err := matrix.Decompose(a, half)
	if err != nil {
		return nil, err
	}
	qb, err := matrix.Decompose(b, half)
	if err != nil {
		return nil, err
	}

	// C[2i+j] = A[2i]·B[j] + A[2i+1]·B[2+j]
	var out matrix.Quadrants
	g, gctx := errgroup.WithContext(ctx)
	for q := range out {
		row, col := q/2, q%2
		g.Go(func() error {
			c, err := r.quadrant(gctx, qa[2*row], qb[col], qa[2*row+1], qb[2+col])
			if err != nil {
				return err
			}
			out[q] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matrix.Reassemble(out)
}

// quadrant computes a1·b1 + a2·b2, running both products concurrently.
func (r *request) quadrant(ctx context.Context, a1, b1, a2, b2 *matrix.Matrix) (*matrix.Matrix, error) {
	var p1, p2 *matrix.Matrix
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p1, err = r.multiply(gctx, a1, b1)
		return err
	})
	g.Go(func() error {
		var err error
		p2, err = r.multiply(gctx, a2, b2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r.add(ctx, p1, p2)
}

func (r *request) leaf(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	if r.policy.Mode == ModeMultiCore {
		r.leafCalls[0].Add(1)
		out, err := r.backend.MultiplyMultiThread(ctx, a, b, r.policy.Address)
		if err != nil {
			return nil, &BackendFailure{Op: "multiply-multithread", Index: -1, Address: r.policy.Address, Err: err}
		}
		return out, nil
	}

	index := r.next(&r.calls)
	r.leafCalls[index].Add(1)
	out, err := r.backend.Multiply(ctx, a, b, index)
	if err != nil {
		return nil, &BackendFailure{Op: "multiply", Index: index, Err: err}
	}
	return out, nil
}

func (r *request) add(ctx context.Context, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	index := 0
	if r.policy.Mode != ModeMultiCore {
		index = r.next(&r.adds)
	}
	r.addCalls.Add(1)
	out, err := r.backend.Add(ctx, a, b, index)
	if err != nil {
		return nil, &BackendFailure{Op: "add", Index: index, Err: err}
	}
	return out, nil
}

// next returns the backend index for the next call counted by counter.
func (r *request) next(counter *atomic.Uint64) int {
	if r.servers <= 1 {
		return 0
	}
	return int((counter.Add(1) - 1) % uint64(r.servers))
}

func (r *request) acquire(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	return r.sem.Acquire(ctx, 1)
}

func (r *request) release() {
	if r.sem != nil {
		r.sem.Release(1)
	}
}

func (r *request) stats(size int, elapsed time.Duration) *utils.DispatchStats {
	s := &utils.DispatchStats{
		Mode:          r.policy.Mode.String(),
		Size:          size,
		LeafThreshold: r.policy.LeafThreshold,
		ServersToUse:  r.servers,
		Footprint:     r.footprint,
		LeafCalls:     make([]int64, len(r.leafCalls)),
		AddCalls:      r.addCalls.Load(),
		TotalTime:     elapsed,
	}
	for i := range r.leafCalls {
		s.LeafCalls[i] = r.leafCalls[i].Load()
	}
	return s
}
