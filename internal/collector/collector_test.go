package collector_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/costwatch/costwatch/internal/collector"
	"github.com/costwatch/costwatch/pkg/models"
)

func sample(cpu, sys uint64, cpus int, memUsage, memCache uint64) *models.ResourceSample {
	return &models.ResourceSample{
		CPUTotal:    cpu,
		SystemTotal: sys,
		OnlineCPUs:  cpus,
		MemoryUsage: memUsage,
		MemoryCache: memCache,
		Timestamp:   time.Now(),
	}
}

func TestComputeUsage_CPU(t *testing.T) {
	alloc := models.ResourceAllocation{MemoryLimit: 1 << 30}

	tests := []struct {
		name        string
		prev        *models.ResourceSample
		cur         *models.ResourceSample
		wantPct     float64
		wantCPUOK   bool
	}{
		{
			name:      "first sample has no rate",
			prev:      nil,
			cur:       sample(1000, 10000, 4, 0, 0),
			wantCPUOK: false,
		},
		{
			name:      "half of one core on a four core host",
			prev:      sample(1000, 10000, 4, 0, 0),
			cur:       sample(1500, 14000, 4, 0, 0),
			wantPct:   50,
			wantCPUOK: true,
		},
		{
			name:      "fully saturated single core",
			prev:      sample(0, 0, 1, 0, 0),
			cur:       sample(4000, 4000, 1, 0, 0),
			wantPct:   100,
			wantCPUOK: true,
		},
		{
			name:      "container restart resets counters",
			prev:      sample(9000, 10000, 4, 0, 0),
			cur:       sample(500, 14000, 4, 0, 0),
			wantCPUOK: false,
		},
		{
			name:      "stalled system counter",
			prev:      sample(1000, 10000, 4, 0, 0),
			cur:       sample(1500, 10000, 4, 0, 0),
			wantCPUOK: false,
		},
		{
			name:      "zero online cpus",
			prev:      sample(1000, 10000, 0, 0, 0),
			cur:       sample(1500, 14000, 0, 0, 0),
			wantCPUOK: false,
		},
	}

	c := collector.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := c.ComputeUsage(tt.prev, tt.cur, alloc)

			assert.Equal(t, tt.wantCPUOK, usage.CPUAvailable)
			if tt.wantCPUOK {
				assert.InDelta(t, tt.wantPct, usage.CPUPct, 0.001)
			} else {
				assert.Zero(t, usage.CPUPct)
			}
		})
	}
}

func TestComputeUsage_Memory(t *testing.T) {
	c := collector.New()

	t.Run("cache is subtracted", func(t *testing.T) {
		alloc := models.ResourceAllocation{MemoryLimit: 4 << 30}
		cur := sample(0, 0, 4, 2<<30, 1<<30)

		usage := c.ComputeUsage(nil, cur, alloc)

		assert.True(t, usage.MemAvailable)
		assert.InDelta(t, 25.0, usage.MemPct, 0.001)
	})

	t.Run("cache larger than usage clamps to zero", func(t *testing.T) {
		alloc := models.ResourceAllocation{MemoryLimit: 4 << 30}
		cur := sample(0, 0, 4, 1<<20, 1<<30)

		usage := c.ComputeUsage(nil, cur, alloc)

		assert.True(t, usage.MemAvailable)
		assert.Zero(t, usage.MemPct)
	})

	t.Run("no limit means no percentage", func(t *testing.T) {
		cur := sample(0, 0, 4, 2<<30, 0)

		usage := c.ComputeUsage(nil, cur, models.ResourceAllocation{})

		assert.False(t, usage.MemAvailable)
	})
}

func TestComputeUsage_NilSample(t *testing.T) {
	c := collector.New()

	usage := c.ComputeUsage(nil, nil, models.ResourceAllocation{MemoryLimit: 1 << 30})

	assert.False(t, usage.CPUAvailable)
	assert.False(t, usage.MemAvailable)
}

func TestComputeUsage_IsPure(t *testing.T) {
	c := collector.New()
	alloc := models.ResourceAllocation{MemoryLimit: 4 << 30}
	prev := sample(1000, 10000, 4, 1<<30, 0)
	cur := sample(1500, 14000, 4, 1<<30, 0)

	first := c.ComputeUsage(prev, cur, alloc)
	second := c.ComputeUsage(prev, cur, alloc)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1000), prev.CPUTotal)
	assert.Equal(t, uint64(1500), cur.CPUTotal)
}
