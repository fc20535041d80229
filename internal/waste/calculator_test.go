package waste_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/waste"
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/costwatch/costwatch/pkg/models"
)

func defaultCalculator() *waste.Calculator {
	return waste.NewCalculator(
		config.PricingConfig{
			CPUPricePerHour:   0.04,
			MemPricePerGBHour: 0.005,
			HoursPerMonth:     730,
		},
		config.WasteConfig{
			CPUThresholdPct: 20,
			MemThresholdPct: 30,
		},
	)
}

func TestAssess_UnderUtilizedContainer(t *testing.T) {
	calc := defaultCalculator()

	// 0.15 vCPU used of a 2 vCPU limit, 12.5% of a 4 GB limit.
	usage := models.UsageMetrics{
		CPUPct:       15,
		CPUAvailable: true,
		MemPct:       12.5,
		MemAvailable: true,
	}
	alloc := models.ResourceAllocation{
		CPULimit:    2,
		MemoryLimit: 4 << 30,
	}

	assessments := calc.Assess(usage, alloc)
	require.Len(t, assessments, 2)

	cpu := assessments[0]
	assert.Equal(t, models.ResourceCPU, cpu.Resource)
	assert.InDelta(t, 1.85, cpu.WastedAmount, 0.0001)
	assert.InDelta(t, 92.5, cpu.WastedPct, 0.0001)
	assert.InDelta(t, 54.02, cpu.MonthlyCost, 0.0001)

	mem := assessments[1]
	assert.Equal(t, models.ResourceMemory, mem.Resource)
	assert.InDelta(t, 3.5, mem.WastedAmount, 0.0001)
	assert.InDelta(t, 87.5, mem.WastedPct, 0.0001)
	assert.InDelta(t, 12.775, mem.MonthlyCost, 0.0001)
}

func TestAssess_WellUtilizedContainer(t *testing.T) {
	calc := defaultCalculator()

	usage := models.UsageMetrics{
		CPUPct:       150, // 1.5 of 2 vCPUs = 75%
		CPUAvailable: true,
		MemPct:       80,
		MemAvailable: true,
	}
	alloc := models.ResourceAllocation{
		CPULimit:    2,
		MemoryLimit: 4 << 30,
	}

	assert.Empty(t, calc.Assess(usage, alloc))
}

func TestAssess_ThresholdBoundary(t *testing.T) {
	calc := defaultCalculator()
	alloc := models.ResourceAllocation{CPULimit: 1}

	// Exactly at the threshold is not waste.
	atThreshold := models.UsageMetrics{CPUPct: 20, CPUAvailable: true}
	assert.Empty(t, calc.Assess(atThreshold, alloc))

	justUnder := models.UsageMetrics{CPUPct: 19.99, CPUAvailable: true}
	assert.Len(t, calc.Assess(justUnder, alloc), 1)
}

func TestAssess_NoLimitsExcluded(t *testing.T) {
	calc := defaultCalculator()

	usage := models.UsageMetrics{
		CPUPct:       1,
		CPUAvailable: true,
		MemPct:       1,
		MemAvailable: true,
	}

	assert.Empty(t, calc.Assess(usage, models.ResourceAllocation{}))
}

func TestAssess_UnavailableMetricsExcluded(t *testing.T) {
	calc := defaultCalculator()

	// Zero usage with both metrics unavailable must not be read as idle.
	usage := models.UsageMetrics{}
	alloc := models.ResourceAllocation{
		CPULimit:    2,
		MemoryLimit: 4 << 30,
	}

	assert.Empty(t, calc.Assess(usage, alloc))
}

func TestAssess_Recommendations(t *testing.T) {
	calc := defaultCalculator()

	t.Run("headroom over usage", func(t *testing.T) {
		usage := models.UsageMetrics{CPUPct: 30, CPUAvailable: true} // 0.3 vCPU
		alloc := models.ResourceAllocation{CPULimit: 4}

		assessments := calc.Assess(usage, alloc)
		require.Len(t, assessments, 1)
		assert.InDelta(t, 0.45, assessments[0].RecommendedLimit, 0.0001)
	})

	t.Run("floor for near-idle containers", func(t *testing.T) {
		usage := models.UsageMetrics{
			CPUPct:       1, // 0.01 vCPU
			CPUAvailable: true,
			MemPct:       1,
			MemAvailable: true,
		}
		alloc := models.ResourceAllocation{CPULimit: 2, MemoryLimit: 4 << 30}

		assessments := calc.Assess(usage, alloc)
		require.Len(t, assessments, 2)
		assert.InDelta(t, 0.25, assessments[0].RecommendedLimit, 0.0001)
		assert.InDelta(t, 0.125, assessments[1].RecommendedLimit, 0.0001)
	})
}

func TestAssess_CostNeverNegative(t *testing.T) {
	calc := waste.NewCalculator(
		config.PricingConfig{CPUPricePerHour: 0.04, MemPricePerGBHour: 0.005, HoursPerMonth: 730},
		config.WasteConfig{CPUThresholdPct: 99.9, MemThresholdPct: 99.9},
	)

	// Burst above the limit while still under an extreme threshold.
	usage := models.UsageMetrics{CPUPct: 110, CPUAvailable: true}
	alloc := models.ResourceAllocation{CPULimit: 1.102}

	for _, a := range calc.Assess(usage, alloc) {
		assert.GreaterOrEqual(t, a.MonthlyCost, 0.0)
		assert.GreaterOrEqual(t, a.WastedAmount, 0.0)
	}
}
