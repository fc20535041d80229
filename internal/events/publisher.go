package events

import (
	"fmt"

	"github.com/costwatch/costwatch/pkg/models"
)

type Publisher struct {
	bus *EventBus
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) CycleStarted(containerCount int) {
	msg := fmt.Sprintf("Monitoring cycle started: %d containers", containerCount)
	event := models.NewEvent(models.EventTypeCycleStarted, "", msg).
		WithData(map[string]interface{}{"container_count": containerCount})
	p.bus.Publish(event)
}

func (p *Publisher) CycleComplete(scanned, skipped int, totalMonthlyCost float64) {
	msg := fmt.Sprintf("Monitoring cycle complete: %d scanned, %d skipped", scanned, skipped)
	event := models.NewEvent(models.EventTypeCycleComplete, "", msg).
		WithData(map[string]interface{}{
			"scanned":            scanned,
			"skipped":            skipped,
			"total_monthly_cost": totalMonthlyCost,
		})
	p.bus.Publish(event)
}

func (p *Publisher) ContainerScanned(result *models.MonitoringCycleResult) {
	msg := "Container scanned: " + result.Container.Name
	event := models.NewEvent(models.EventTypeContainerScanned, result.Container.ID, msg).
		WithContainerName(result.Container.Name).
		WithData(result)
	p.bus.Publish(event)
}

func (p *Publisher) ContainerSkipped(containerID, reason string, err error) {
	msg := "Container skipped: " + reason
	event := models.NewEvent(models.EventTypeContainerSkipped, containerID, msg).
		WithSeverity(models.EventSeverityWarning).
		WithData(map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	p.bus.Publish(event)
}

func (p *Publisher) SamplePersisted(sample models.PersistedSample) {
	msg := "Sample persisted: " + sample.ContainerName
	event := models.NewEvent(models.EventTypeSamplePersisted, sample.ContainerID, msg).
		WithContainerName(sample.ContainerName).
		WithData(sample)
	p.bus.Publish(event)
}

func (p *Publisher) SecurityFinding(container models.ContainerIdentity, finding models.SecurityFinding) {
	event := models.NewEvent(models.EventTypeSecurityFinding, container.ID, finding.Message).
		WithContainerName(container.Name).
		WithData(finding)

	switch finding.Severity {
	case models.SeverityCritical:
		event.WithSeverity(models.EventSeverityCritical)
	case models.SeverityHigh:
		event.WithSeverity(models.EventSeverityWarning)
	}

	p.bus.Publish(event)
}

func (p *Publisher) Alert(message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, "", message).
		WithSeverity(models.EventSeverityCritical).
		WithData(data)
	p.bus.Publish(event)
}

func (p *Publisher) Error(containerID, message string, err error) {
	event := models.NewEvent(models.EventTypeError, containerID, message).
		WithSeverity(models.EventSeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.bus.Publish(event)
}
