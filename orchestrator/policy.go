package orchestrator

import (
	"fmt"
	"time"
)

// Mode selects how leaf calls are assigned to backends.
type Mode int

const (
	// ModeFixed sends every leaf call to backend 0.
	ModeFixed Mode = iota
	// ModeRoundRobin cycles leaf calls over all configured backends.
	ModeRoundRobin
	// ModeAdaptive probes one leaf call, sizes the backend set to meet the
	// deadline, then cycles over that set.
	ModeAdaptive
	// ModeMultiCore sends every leaf call to one backend address, asking it
	// for its multi-core kernel.
	ModeMultiCore
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeRoundRobin:
		return "round-robin"
	case ModeAdaptive:
		return "adaptive"
	case ModeMultiCore:
		return "multi-core"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Policy is the dispatch configuration of one top-level request.
type Policy struct {
	Mode          Mode
	LeafThreshold int
	Deadline      time.Duration // ModeAdaptive only
	Address       string        // ModeMultiCore only
}

// Fixed returns a policy that runs every leaf on backend 0.
func Fixed(leafThreshold int) Policy {
	return Policy{Mode: ModeFixed, LeafThreshold: leafThreshold}
}

// RoundRobin returns a policy that spreads leaves over all backends.
func RoundRobin(leafThreshold int) Policy {
	return Policy{Mode: ModeRoundRobin, LeafThreshold: leafThreshold}
}

// Adaptive returns a policy that sizes the backend set from a latency probe
// so the whole multiplication fits in deadline.
func Adaptive(leafThreshold int, deadline time.Duration) Policy {
	return Policy{Mode: ModeAdaptive, LeafThreshold: leafThreshold, Deadline: deadline}
}

// MultiCore returns a policy that runs every leaf on the multi-core kernel of
// the backend at address.
func MultiCore(address string, leafThreshold int) Policy {
	return Policy{Mode: ModeMultiCore, LeafThreshold: leafThreshold, Address: address}
}

// Validate checks p against the number of configured backends.
func (p Policy) Validate(backends int) error {
	if p.LeafThreshold <= 0 {
		return fmt.Errorf("%w: leaf threshold %d must be positive", ErrInvalidPolicy, p.LeafThreshold)
	}
	// Additions always go through indexed backends, multi-core mode included.
	if backends <= 0 {
		return fmt.Errorf("%w: no backends configured", ErrInvalidPolicy)
	}
	switch p.Mode {
	case ModeFixed, ModeRoundRobin:
	case ModeAdaptive:
		if p.Deadline <= 0 {
			return fmt.Errorf("%w: deadline %v must be positive", ErrInvalidPolicy, p.Deadline)
		}
	case ModeMultiCore:
		if p.Address == "" {
			return fmt.Errorf("%w: multi-core mode needs a backend address", ErrInvalidPolicy)
		}
	default:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidPolicy, p.Mode)
	}
	return nil
}
