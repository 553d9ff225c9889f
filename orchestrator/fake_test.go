package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"distmul/matrix"
)

var errInjected = errors.New("injected failure")

type call struct {
	op    string
	index int
	size  int
}

// fakeBackend computes locally and records every call it receives.
type fakeBackend struct {
	count     int
	failIndex int // -1 disables failure injection
	failOp    string
	delay     time.Duration

	mu       sync.Mutex
	calls    []call
	addrs    map[string]int
	inFlight atomic.Int64
	peak     atomic.Int64
	badIndex atomic.Bool
}

func newFakeBackend(count int) *fakeBackend {
	return &fakeBackend{count: count, failIndex: -1, addrs: map[string]int{}}
}

func (f *fakeBackend) BackendCount() int { return f.count }

func (f *fakeBackend) Multiply(ctx context.Context, a, b *matrix.Matrix, index int) (*matrix.Matrix, error) {
	if err := f.enter(ctx, "multiply", index, a.Size); err != nil {
		return nil, err
	}
	defer f.inFlight.Add(-1)
	return matrix.MatMul(a, b)
}

func (f *fakeBackend) Add(ctx context.Context, a, b *matrix.Matrix, index int) (*matrix.Matrix, error) {
	if err := f.enter(ctx, "add", index, a.Size); err != nil {
		return nil, err
	}
	defer f.inFlight.Add(-1)
	return matrix.Add(a, b)
}

func (f *fakeBackend) MultiplyMultiThread(ctx context.Context, a, b *matrix.Matrix, address string) (*matrix.Matrix, error) {
	f.mu.Lock()
	f.addrs[address]++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matrix.MatMul(a, b)
}

func (f *fakeBackend) enter(ctx context.Context, op string, index, size int) error {
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, index: index, size: size})
	f.mu.Unlock()

	fail := func(err error) error {
		f.inFlight.Add(-1)
		return err
	}
	if index < 0 || index >= f.count {
		f.badIndex.Store(true)
		return fail(errors.New("index out of range"))
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}
	if index == f.failIndex && (f.failOp == "" || f.failOp == op) {
		return fail(errInjected)
	}
	return nil
}

// counts returns how many op calls each backend index received.
func (f *fakeBackend) counts(op string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, f.count)
	for _, c := range f.calls {
		if c.op == op && c.index >= 0 && c.index < f.count {
			out[c.index]++
		}
	}
	return out
}

func (f *fakeBackend) history() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func randomMatrix(rng *rand.Rand, n int) *matrix.Matrix {
	m := matrix.New(n)
	for i := range m.Data {
		m.Data[i] = rng.Intn(19) - 9
	}
	return m
}
