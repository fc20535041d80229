package collector

import (
	"github.com/costwatch/costwatch/pkg/models"
)

// Collector turns two consecutive raw samples into normalized utilization.
// It is a pure transform: no I/O, no retained state. The caller keeps the
// previous sample per container across cycles.
type Collector struct{}

func New() *Collector {
	return &Collector{}
}

// ComputeUsage derives UsageMetrics from the previous and current sample.
// prev may be nil on a container's first cycle; the CPU metric is then
// unavailable, because a single cumulative counter carries no rate. An
// unavailable metric is never reported as zero: zero means "measured idle",
// which would falsely maximize waste downstream.
func (c *Collector) ComputeUsage(prev, cur *models.ResourceSample, alloc models.ResourceAllocation) models.UsageMetrics {
	if cur == nil {
		return models.UsageMetrics{}
	}

	usage := models.UsageMetrics{
		Timestamp:  cur.Timestamp,
		OnlineCPUs: cur.OnlineCPUs,
	}

	usage = c.computeCPU(prev, cur, usage)
	usage = c.computeMemory(cur, alloc, usage)
	return usage
}

func (c *Collector) computeCPU(prev, cur *models.ResourceSample, usage models.UsageMetrics) models.UsageMetrics {
	if prev == nil || cur.OnlineCPUs == 0 {
		return usage
	}

	// Counters are monotonic; a current value below the previous one means
	// the container restarted and the delta is meaningless.
	if cur.CPUTotal < prev.CPUTotal || cur.SystemTotal <= prev.SystemTotal {
		return usage
	}

	cpuDelta := float64(cur.CPUTotal - prev.CPUTotal)
	sysDelta := float64(cur.SystemTotal - prev.SystemTotal)

	usage.CPUPct = (cpuDelta / sysDelta) * float64(cur.OnlineCPUs) * 100
	usage.CPUAvailable = true
	return usage
}

func (c *Collector) computeMemory(cur *models.ResourceSample, alloc models.ResourceAllocation, usage models.UsageMetrics) models.UsageMetrics {
	if !alloc.HasMemoryLimit() {
		return usage
	}

	// Page cache is reclaimable and would inflate apparent usage.
	var effective uint64
	if cur.MemoryUsage > cur.MemoryCache {
		effective = cur.MemoryUsage - cur.MemoryCache
	}

	usage.MemPct = float64(effective) / float64(alloc.MemoryLimit) * 100
	usage.MemAvailable = true
	return usage
}
