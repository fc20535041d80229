package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/resilience"
	"github.com/costwatch/costwatch/internal/runtime"
	"github.com/costwatch/costwatch/pkg/models"
)

func newResilient(mock *runtime.MockRuntime, maxFailures int) *runtime.ResilientRuntime {
	return runtime.NewResilientRuntime(runtime.ResilientRuntimeConfig{
		Runtime:       mock,
		MaxFailures:   maxFailures,
		Timeout:       time.Minute,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	})
}

func TestResilientRuntime_PassesThrough(t *testing.T) {
	mock := runtime.NewMockRuntime()
	mock.AddContainer(&models.ContainerConfig{
		Identity: models.ContainerIdentity{ID: "c1", Name: "web"},
	})
	mock.QueueSample("c1", &models.ResourceSample{CPUTotal: 100, OnlineCPUs: 2, Timestamp: time.Now()})

	rt := newResilient(mock, 5)

	containers, err := rt.ListRunningContainers(context.Background())
	require.NoError(t, err)
	assert.Len(t, containers, 1)

	sample, err := rt.GetResourceSample(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), sample.CPUTotal)

	cfg, err := rt.GetConfiguration(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Identity.Name)

	assert.Equal(t, resilience.StateClosed, rt.CircuitState())
}

func TestResilientRuntime_NotFoundIsNotRetried(t *testing.T) {
	mock := runtime.NewMockRuntime()
	rt := newResilient(mock, 5)

	start := time.Now()
	_, err := rt.GetResourceSample(context.Background(), "gone")

	assert.ErrorIs(t, err, runtime.ErrNotFound)
	// A retry would have slept through the delay at least once.
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestResilientRuntime_NotFoundDoesNotTripCircuit(t *testing.T) {
	mock := runtime.NewMockRuntime()
	mock.AddContainer(&models.ContainerConfig{
		Identity: models.ContainerIdentity{ID: "c1", Name: "web"},
	})
	rt := newResilient(mock, 2)

	// Vanished containers are a routine per-container skip and must not
	// push the shared breaker toward open.
	for i := 0; i < 5; i++ {
		_, err := rt.GetResourceSample(context.Background(), "gone")
		assert.ErrorIs(t, err, runtime.ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, rt.CircuitState())

	containers, err := rt.ListRunningContainers(context.Background())
	require.NoError(t, err)
	assert.Len(t, containers, 1)
}

func TestResilientRuntime_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	mock := runtime.NewMockRuntime()
	mock.FailList(runtime.ErrUnreachable)
	rt := newResilient(mock, 2)

	_, err := rt.ListRunningContainers(context.Background())
	assert.ErrorIs(t, err, runtime.ErrUnreachable)

	_, err = rt.ListRunningContainers(context.Background())
	assert.ErrorIs(t, err, runtime.ErrUnreachable)
	assert.Equal(t, resilience.StateOpen, rt.CircuitState())

	_, err = rt.ListRunningContainers(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestResilientRuntime_CancelledContext(t *testing.T) {
	mock := runtime.NewMockRuntime()
	mock.FailList(runtime.ErrUnreachable)
	rt := newResilient(mock, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.ListRunningContainers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
