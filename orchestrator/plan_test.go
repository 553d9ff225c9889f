package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecursionDepth(t *testing.T) {
	cases := []struct {
		size, leaf, want int
	}{
		{16, 16, 0},
		{8, 16, 0},
		{32, 16, 1},
		{1024, 16, 6},
		{64, 24, 2},
		{4, 1, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RecursionDepth(tc.size, tc.leaf), "size=%d leaf=%d", tc.size, tc.leaf)
	}
}

func TestPlanCapacityFormula(t *testing.T) {
	// depth 3 -> 8^2 = 64 multiplications; 10ms * 64 / 100ms = 6.4 -> 7
	c := PlanCapacity(10*time.Millisecond, 100*time.Millisecond, 128, 16, 10)
	assert.Equal(t, 3, c.Depth)
	assert.Equal(t, 64.0, c.MultiplicationsRequired)
	assert.Equal(t, 7, c.ServersRequired)
	assert.Equal(t, 7, c.ServersToUse)

	c = PlanCapacity(10*time.Millisecond, 100*time.Millisecond, 128, 16, 4)
	assert.Equal(t, 7, c.ServersRequired)
	assert.Equal(t, 4, c.ServersToUse)
}

func TestPlanCapacityAtLeastOne(t *testing.T) {
	c := PlanCapacity(0, time.Second, 64, 16, 3)
	assert.Equal(t, 1, c.ServersToUse)

	c = PlanCapacity(time.Millisecond, time.Hour, 16, 16, 3)
	assert.Equal(t, 1, c.ServersToUse)
}

func TestPlanCapacityMonotonicInDeadline(t *testing.T) {
	const available = 8
	prev := 0
	for deadline := 10 * time.Second; deadline >= time.Millisecond; deadline /= 2 {
		c := PlanCapacity(5*time.Millisecond, deadline, 256, 16, available)
		assert.GreaterOrEqual(t, c.ServersToUse, 1)
		assert.LessOrEqual(t, c.ServersToUse, available)
		assert.GreaterOrEqual(t, c.ServersToUse, prev, "deadline %v", deadline)
		prev = c.ServersToUse
	}
	assert.Equal(t, available, prev)
}

func TestPlanCapacityHugeRequirementIsClamped(t *testing.T) {
	c := PlanCapacity(time.Second, time.Nanosecond, 1<<20, 1, 5)
	assert.Equal(t, 5, c.ServersToUse)
	assert.Positive(t, c.ServersRequired)
}
