package orchestrator

import (
	"math"
	"time"

	"distmul/utils"
)

// RecursionDepth returns how many times a side of size is halved before it
// drops to leafThreshold or below.
func RecursionDepth(size, leafThreshold int) int {
	depth := 0
	for size > leafThreshold && size > 1 {
		size /= 2
		depth++
	}
	return depth
}

// Capacity is the outcome of adaptive capacity planning.
type Capacity struct {
	Footprint               time.Duration
	Depth                   int
	MultiplicationsRequired float64
	ServersRequired         int
	ServersAvailable        int
	ServersToUse            int
}

// PlanCapacity decides how many backends a multiplication of side size needs
// to finish within deadline, given the measured latency of one leaf call.
//
// multiplicationsRequired = 8^(depth-1)
// serversRequired = ceil(footprintMs * multiplicationsRequired / deadlineMs)
// serversToUse = serversRequired clamped to [1, available]
func PlanCapacity(footprint, deadline time.Duration, size, leafThreshold, available int) Capacity {
	c := Capacity{
		Footprint:        footprint,
		Depth:            RecursionDepth(size, leafThreshold),
		ServersAvailable: available,
	}
	c.MultiplicationsRequired = math.Pow(8, float64(c.Depth-1))

	required := math.Ceil(utils.DurationMS(footprint) * c.MultiplicationsRequired / utils.DurationMS(deadline))
	switch {
	case math.IsNaN(required) || required < 1:
		c.ServersRequired = 1
	case required > math.MaxInt32:
		c.ServersRequired = math.MaxInt32
	default:
		c.ServersRequired = int(required)
	}
	c.ServersToUse = max(1, min(c.ServersRequired, available))
	return c
}
