package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/events"
	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/pkg/models"
)

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_TypedSubscription(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()

	alerts := bus.Subscribe(models.EventTypeAlert)
	publisher := events.NewPublisher(bus)

	publisher.CycleStarted(3)
	publisher.Alert("waste over threshold", nil)

	event := receive(t, alerts)
	assert.Equal(t, models.EventTypeAlert, event.Type)
	assert.Equal(t, models.EventSeverityCritical, event.Severity)

	select {
	case extra := <-alerts:
		t.Fatalf("unexpected event %s", extra.Type)
	default:
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()
	publisher := events.NewPublisher(bus)

	publisher.CycleStarted(1)
	publisher.CycleComplete(1, 0, 42.5)

	first := receive(t, all)
	require.Equal(t, models.EventTypeCycleStarted, first.Type)

	second := receive(t, all)
	require.Equal(t, models.EventTypeCycleComplete, second.Type)

	data, ok := second.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 42.5, data["total_monthly_cost"])
}

func TestEventBus_FullChannelDoesNotBlock(t *testing.T) {
	bus := events.NewEventBus(1)
	defer bus.Close()

	bus.Subscribe(models.EventTypeAlert)
	publisher := events.NewPublisher(bus)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			publisher.Alert("flood", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}

func TestEventLogger_PersistedFindingCarriesContainerName(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()

	ts := store.NewMemoryStore()
	eventLogger := events.NewEventLogger(ts, bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	publisher := events.NewPublisher(bus)
	publisher.SecurityFinding(
		models.ContainerIdentity{ID: "c1", Name: "web"},
		models.SecurityFinding{
			RuleID:   "privileged-mode",
			Severity: models.SeverityCritical,
			Message:  "Container runs in privileged mode",
		},
	)

	require.Eventually(t, func() bool {
		return len(ts.SecurityEvents()) == 1
	}, time.Second, 10*time.Millisecond)

	persisted := ts.SecurityEvents()[0]
	assert.Equal(t, "c1", persisted.ContainerID)
	assert.Equal(t, "web", persisted.ContainerName)
	assert.Equal(t, "privileged-mode", persisted.RuleID)
}

func TestEventLogger_IgnoresNonCriticalFindings(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()

	ts := store.NewMemoryStore()
	eventLogger := events.NewEventLogger(ts, bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	publisher := events.NewPublisher(bus)
	publisher.SecurityFinding(
		models.ContainerIdentity{ID: "c1", Name: "web"},
		models.SecurityFinding{
			RuleID:   "writable-rootfs",
			Severity: models.SeverityLow,
			Message:  "Root filesystem is writable",
		},
	)
	publisher.CycleComplete(1, 0, 0)

	// The cycle_complete event has drained the channel past the finding.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, ts.SecurityEvents())
}

func TestEventBus_CloseIsIdempotent(t *testing.T) {
	bus := events.NewEventBus(10)
	ch := bus.SubscribeAll()

	bus.Close()
	bus.Close()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after close is a no-op, not a panic.
	events.NewPublisher(bus).CycleStarted(1)
}
