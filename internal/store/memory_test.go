package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/pkg/models"
)

func sampleAt(containerID string, ts time.Time, cost float64) models.PersistedSample {
	return models.PersistedSample{
		ContainerID:      containerID,
		ContainerName:    containerID,
		Timestamp:        ts,
		TotalMonthlyCost: cost,
	}
}

func TestMemoryStore_AppendMonotonicity(t *testing.T) {
	ctx := context.Background()
	ts := store.NewMemoryStore()
	base := time.Now()

	require.NoError(t, ts.Append(ctx, sampleAt("c1", base, 1)))
	require.NoError(t, ts.Append(ctx, sampleAt("c1", base.Add(time.Minute), 2)))

	// Equal and earlier timestamps are rejected for the same container.
	err := ts.Append(ctx, sampleAt("c1", base.Add(time.Minute), 3))
	assert.ErrorIs(t, err, store.ErrOutOfOrder)

	err = ts.Append(ctx, sampleAt("c1", base, 3))
	assert.ErrorIs(t, err, store.ErrOutOfOrder)

	// Other containers are ordered independently.
	assert.NoError(t, ts.Append(ctx, sampleAt("c2", base, 1)))

	samples, err := ts.Query(ctx, store.QueryFilter{ContainerID: "c1"})
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	ctx := context.Background()
	ts := store.NewMemoryStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, ts.Append(ctx, sampleAt("c1", base.Add(time.Duration(i)*time.Hour), float64(i))))
	}
	require.NoError(t, ts.Append(ctx, sampleAt("c2", base, 9)))

	t.Run("chronological order", func(t *testing.T) {
		samples, err := ts.Query(ctx, store.QueryFilter{ContainerID: "c1"})
		require.NoError(t, err)
		require.Len(t, samples, 5)
		assert.Equal(t, 0.0, samples[0].TotalMonthlyCost)
		assert.Equal(t, 4.0, samples[4].TotalMonthlyCost)
		for i := 1; i < len(samples); i++ {
			assert.True(t, samples[i].Timestamp.After(samples[i-1].Timestamp))
		}
	})

	t.Run("time range", func(t *testing.T) {
		samples, err := ts.Query(ctx, store.QueryFilter{
			ContainerID: "c1",
			From:        base.Add(time.Hour),
			To:          base.Add(3 * time.Hour),
		})
		require.NoError(t, err)
		assert.Len(t, samples, 3)
	})

	t.Run("limit keeps most recent", func(t *testing.T) {
		samples, err := ts.Query(ctx, store.QueryFilter{ContainerID: "c1", Limit: 2})
		require.NoError(t, err)
		require.Len(t, samples, 2)
		assert.Equal(t, 3.0, samples[0].TotalMonthlyCost)
		assert.Equal(t, 4.0, samples[1].TotalMonthlyCost)
	})

	t.Run("all containers", func(t *testing.T) {
		samples, err := ts.Query(ctx, store.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, samples, 6)
	})
}

func TestMemoryStore_Trend(t *testing.T) {
	ctx := context.Background()
	ts := store.NewMemoryStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, cost := range []float64{10, 30, 20} {
		require.NoError(t, ts.Append(ctx, sampleAt("c1", base.Add(time.Duration(i)*time.Hour), cost)))
	}

	summary, err := ts.Trend(ctx, "c1", base, base.Add(3*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.SampleCount)
	assert.InDelta(t, 20.0, summary.AvgMonthlyCost, 0.0001)
	assert.InDelta(t, 30.0, summary.MaxMonthlyCost, 0.0001)
	assert.InDelta(t, 10.0, summary.MinMonthlyCost, 0.0001)

	empty, err := ts.Trend(ctx, "missing", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, empty.SampleCount)
}

func TestMemoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	ts := store.NewMemoryStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, ts.Append(ctx, sampleAt("c1", base.Add(time.Duration(i)*time.Hour), 1)))
	}
	require.NoError(t, ts.AppendSecurityEvent(ctx, store.SecurityEvent{
		ContainerID: "c1",
		Timestamp:   base,
		RuleID:      "privileged-mode",
		Severity:    "CRITICAL",
	}))

	removed, err := ts.Prune(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	samples, err := ts.Query(ctx, store.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	events, err := ts.QuerySecurityEvents(ctx, store.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryStore_SecurityEvents(t *testing.T) {
	ctx := context.Background()
	ts := store.NewMemoryStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, rule := range []string{"privileged-mode", "running-as-root", "privileged-mode"} {
		containerID := "c1"
		if i == 2 {
			containerID = "c2"
		}
		require.NoError(t, ts.AppendSecurityEvent(ctx, store.SecurityEvent{
			ContainerID: containerID,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			RuleID:      rule,
			Severity:    "CRITICAL",
		}))
	}

	events, err := ts.QuerySecurityEvents(ctx, store.QueryFilter{ContainerID: "c1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "running-as-root", events[0].RuleID)
}
