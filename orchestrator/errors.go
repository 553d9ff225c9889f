package orchestrator

import (
	"errors"
	"fmt"

	"distmul/matrix"
)

var (
	// ErrShapeMismatch reports operands that are not square, not a power of
	// two, or of different sides. It is the same sentinel the partitioner
	// uses, so errors.Is matches failures from either layer.
	ErrShapeMismatch = matrix.ErrShape

	// ErrInvalidPolicy reports a dispatch policy that cannot be executed
	// against the configured backends.
	ErrInvalidPolicy = errors.New("invalid dispatch policy")
)

// BackendFailure is a failed remote call. The whole request is abandoned;
// nothing is retried or redirected.
type BackendFailure struct {
	Op      string
	Index   int    // -1 when the backend was addressed directly
	Address string // empty when the backend was addressed by index
	Err     error
}

func (e *BackendFailure) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("backend %s: %s failed: %v", e.Address, e.Op, e.Err)
	}
	return fmt.Sprintf("backend %d: %s failed: %v", e.Index, e.Op, e.Err)
}

func (e *BackendFailure) Unwrap() error { return e.Err }
