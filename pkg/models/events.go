package models

import "time"

type EventType string

const (
	EventTypeCycleStarted     EventType = "cycle_started"
	EventTypeCycleComplete    EventType = "cycle_complete"
	EventTypeContainerScanned EventType = "container_scanned"
	EventTypeContainerSkipped EventType = "container_skipped"
	EventTypeSamplePersisted  EventType = "sample_persisted"
	EventTypeSecurityFinding  EventType = "security_finding"
	EventTypeAlert            EventType = "alert"
	EventTypeError            EventType = "error"
)

type EventSeverity string

const (
	EventSeverityInfo     EventSeverity = "info"
	EventSeverityWarning  EventSeverity = "warning"
	EventSeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID            string        `json:"id"`
	Type          EventType     `json:"type"`
	Severity      EventSeverity `json:"severity"`
	ContainerID   string        `json:"container_id,omitempty"`
	ContainerName string        `json:"container_name,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Message       string        `json:"message"`
	Data          interface{}   `json:"data,omitempty"`
}

func NewEvent(eventType EventType, containerID, message string) *Event {
	return &Event{
		ID:          NewUUID(),
		Type:        eventType,
		Severity:    EventSeverityInfo,
		ContainerID: containerID,
		Timestamp:   time.Now(),
		Message:     message,
	}
}

func (e *Event) WithContainerName(name string) *Event {
	e.ContainerName = name
	return e
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}
