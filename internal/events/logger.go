package events

import (
	"context"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/pkg/models"
)

// EventLogger drains an event channel into the structured log and
// persists critical security findings as durable security events.
type EventLogger struct {
	store     store.TimeSeriesStore
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewEventLogger(ts store.TimeSeriesStore, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		store:     ts,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

func (l *EventLogger) Stop() {
	l.cancel()
	<-l.done
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type":   event.Type,
		"container_id": event.ContainerID,
		"severity":     event.Severity,
	})

	switch event.Severity {
	case models.EventSeverityCritical:
		entry.Error(event.Message)
	case models.EventSeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if event.Type == models.EventTypeSecurityFinding && event.Severity == models.EventSeverityCritical {
		l.persistFinding(event)
	}
}

func (l *EventLogger) persistFinding(event *models.Event) {
	finding, ok := event.Data.(models.SecurityFinding)
	if !ok {
		return
	}

	err := l.store.AppendSecurityEvent(l.ctx, store.SecurityEvent{
		ContainerID:   event.ContainerID,
		ContainerName: event.ContainerName,
		Timestamp:     event.Timestamp,
		RuleID:        finding.RuleID,
		Severity:      string(finding.Severity),
		Message:       finding.Message,
	})
	if err != nil {
		logger.Errorf("Failed to persist security event: %v", err)
	}
}
