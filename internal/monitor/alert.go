package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/pkg/config"
)

// Alert is the cycle-level notification raised when the fleet's total
// estimated waste crosses the configured threshold.
type Alert struct {
	TotalMonthlyCost float64   `json:"total_monthly_cost"`
	Threshold        float64   `json:"threshold"`
	ContainerCount   int       `json:"container_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// AlertSink receives at most one alert per monitoring cycle.
type AlertSink interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogSink writes alerts to the structured log. The default sink when no
// webhook is configured.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, alert Alert) error {
	logger.WithFields(map[string]interface{}{
		"total_monthly_cost": alert.TotalMonthlyCost,
		"threshold":          alert.Threshold,
		"container_count":    alert.ContainerCount,
	}).Warn("Monthly waste cost exceeds alert threshold")
	return nil
}

// WebhookSink POSTs alerts as JSON to a configured endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(cfg config.AlertConfig) *WebhookSink {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSink{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSink) Notify(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
