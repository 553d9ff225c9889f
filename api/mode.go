package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"distmul/orchestrator"
)

// Mode is a multiplication mode as named on the HTTP surface.
type Mode int

// Numeric values match the query-string enum clients already send.
const (
	SingleMatrix Mode = iota
	SingleServer
	MultipleServers
	Footprint
	MultiThread
)

var modeNames = []string{"single-matrix", "single-server", "multiple-servers", "footprint", "multi-thread"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts a mode name or its numeric value. An empty string is
// SingleMatrix.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SingleMatrix, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(modeNames) {
			return 0, fmt.Errorf("%w: unknown mode %d", orchestrator.ErrInvalidPolicy, n)
		}
		return Mode(n), nil
	}
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", orchestrator.ErrInvalidPolicy, s)
}

// Policy translates the mode and its parameters into a dispatch policy for a
// matrix of side size. A leaf threshold of zero selects the default for the
// mode.
func (m Mode) Policy(size, leaf int, deadline time.Duration, server string, defaults Defaults) orchestrator.Policy {
	if leaf == 0 {
		leaf = defaults.LeafThreshold
		if m == MultiThread {
			leaf = defaults.MultiCoreLeafThreshold
		}
	}
	switch m {
	case SingleServer:
		return orchestrator.Fixed(leaf)
	case MultipleServers:
		return orchestrator.RoundRobin(leaf)
	case Footprint:
		return orchestrator.Adaptive(leaf, deadline)
	case MultiThread:
		return orchestrator.MultiCore(server, leaf)
	default:
		// The whole matrix in one call to backend 0.
		return orchestrator.Fixed(max(size, 1))
	}
}

// Defaults are the leaf thresholds used when a request does not set one.
type Defaults struct {
	LeafThreshold          int
	MultiCoreLeafThreshold int
}
