package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/pkg/models"
)

// EventBridge forwards pipeline events to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	wsMessage := b.convertToWSMessage(event)
	if wsMessage == nil {
		return
	}

	data, err := json.Marshal(wsMessage)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	// Cycle-level events go to everyone; container events are filtered
	// by subscription.
	if event.ContainerID == "" {
		b.hub.Broadcast(data)
		return
	}
	b.hub.BroadcastToContainer(event.ContainerID, data)
}

// WebSocketEvent is the message format sent to WebSocket clients.
type WebSocketEvent struct {
	Type        string      `json:"type"`
	ContainerID string      `json:"container_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Severity    string      `json:"severity,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

func (b *EventBridge) convertToWSMessage(event *models.Event) *WebSocketEvent {
	wsType := mapEventType(event.Type)
	if wsType == "" {
		return nil // Skip events we don't want to broadcast
	}

	return &WebSocketEvent{
		Type:        wsType,
		ContainerID: event.ContainerID,
		Timestamp:   event.Timestamp,
		Severity:    string(event.Severity),
		Message:     event.Message,
		Data:        event.Data,
	}
}

func mapEventType(eventType models.EventType) string {
	switch eventType {
	case models.EventTypeContainerScanned:
		return "scan_result"
	case models.EventTypeContainerSkipped:
		return "scan_skipped"
	case models.EventTypeSecurityFinding:
		return "security_finding"
	case models.EventTypeCycleComplete:
		return "cycle_summary"
	case models.EventTypeAlert:
		return "alert"
	case models.EventTypeError:
		return "error"
	default:
		// Skip cycle_started and sample_persisted chatter
		return ""
	}
}
