package waste

import (
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/costwatch/costwatch/pkg/models"
)

const (
	// Recommended limits are usage with a 50% headroom buffer, never below
	// a floor a real workload can start with.
	recommendBuffer = 1.5
	minRecommendCPU = 0.25        // vCPUs
	minRecommendMem = 128.0 / 1024 // GB (128 MiB)
)

// Calculator applies the configured thresholds and pricing model to a
// container's usage. Identical inputs always produce identical output.
type Calculator struct {
	pricing    config.PricingConfig
	thresholds config.WasteConfig
}

func NewCalculator(pricing config.PricingConfig, thresholds config.WasteConfig) *Calculator {
	return &Calculator{
		pricing:    pricing,
		thresholds: thresholds,
	}
}

// Assess returns one WasteAssessment per under-utilized resource. Resources
// without a configured limit are excluded: waste against an unbounded
// ceiling is undefined. Unavailable metrics are likewise excluded rather
// than treated as zero usage.
func (c *Calculator) Assess(usage models.UsageMetrics, alloc models.ResourceAllocation) []models.WasteAssessment {
	var assessments []models.WasteAssessment

	if cpu, ok := c.assessCPU(usage, alloc); ok {
		assessments = append(assessments, cpu)
	}
	if mem, ok := c.assessMemory(usage, alloc); ok {
		assessments = append(assessments, mem)
	}

	return assessments
}

func (c *Calculator) assessCPU(usage models.UsageMetrics, alloc models.ResourceAllocation) (models.WasteAssessment, bool) {
	if !usage.CPUAvailable || !alloc.HasCPULimit() {
		return models.WasteAssessment{}, false
	}

	// Utilization is measured against the container's own allocation, not
	// against total host capacity, so the cost formula stays dimensionally
	// consistent with the allocated amount.
	usedVCPU := usage.UsedVCPUs()
	utilizationPct := usedVCPU / alloc.CPULimit * 100

	if utilizationPct >= c.thresholds.CPUThresholdPct {
		return models.WasteAssessment{}, false
	}

	wasted := alloc.CPULimit - usedVCPU
	if wasted < 0 {
		wasted = 0
	}

	recommended := usedVCPU * recommendBuffer
	if recommended < minRecommendCPU {
		recommended = minRecommendCPU
	}

	return models.WasteAssessment{
		Resource:         models.ResourceCPU,
		Allocated:        alloc.CPULimit,
		Used:             usedVCPU,
		WastedAmount:     wasted,
		WastedPct:        wasted / alloc.CPULimit * 100,
		MonthlyCost:      wasted * c.pricing.CPUPricePerHour * c.pricing.HoursPerMonth,
		RecommendedLimit: recommended,
	}, true
}

func (c *Calculator) assessMemory(usage models.UsageMetrics, alloc models.ResourceAllocation) (models.WasteAssessment, bool) {
	if !usage.MemAvailable || !alloc.HasMemoryLimit() {
		return models.WasteAssessment{}, false
	}

	if usage.MemPct >= c.thresholds.MemThresholdPct {
		return models.WasteAssessment{}, false
	}

	limitGB := alloc.MemoryLimitGB()
	usedGB := limitGB * usage.MemPct / 100
	wasted := limitGB - usedGB
	if wasted < 0 {
		wasted = 0
	}

	recommended := usedGB * recommendBuffer
	if recommended < minRecommendMem {
		recommended = minRecommendMem
	}

	return models.WasteAssessment{
		Resource:         models.ResourceMemory,
		Allocated:        limitGB,
		Used:             usedGB,
		WastedAmount:     wasted,
		WastedPct:        wasted / limitGB * 100,
		MonthlyCost:      wasted * c.pricing.MemPricePerGBHour * c.pricing.HoursPerMonth,
		RecommendedLimit: recommended,
	}, true
}
