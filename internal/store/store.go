package store

import (
	"context"
	"errors"
	"time"

	"github.com/costwatch/costwatch/pkg/models"
)

// ErrOutOfOrder is returned when a sample's timestamp is not strictly
// greater than the last persisted timestamp for the same container.
var ErrOutOfOrder = errors.New("sample timestamp out of order")

// SecurityEvent is one persisted security finding occurrence.
type SecurityEvent struct {
	ContainerID   string    `json:"container_id"`
	ContainerName string    `json:"container_name"`
	Timestamp     time.Time `json:"timestamp"`
	RuleID        string    `json:"rule_id"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
}

// TrendSummary aggregates persisted samples over a time window.
type TrendSummary struct {
	ContainerID    string    `json:"container_id"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	SampleCount    int       `json:"sample_count"`
	AvgMonthlyCost float64   `json:"avg_monthly_cost"`
	MaxMonthlyCost float64   `json:"max_monthly_cost"`
	MinMonthlyCost float64   `json:"min_monthly_cost"`
}

// QueryFilter narrows Query results. A zero ContainerID matches all
// containers; zero From/To leave that bound open.
type QueryFilter struct {
	ContainerID string
	From        time.Time
	To          time.Time
	Limit       int
}

// TimeSeriesStore is the append-only persistence layer for monitoring
// samples and security events.
type TimeSeriesStore interface {
	// Append persists one sample. Timestamps must be strictly increasing
	// per container; violations return ErrOutOfOrder.
	Append(ctx context.Context, sample models.PersistedSample) error

	// AppendSecurityEvent records one security finding occurrence.
	AppendSecurityEvent(ctx context.Context, event SecurityEvent) error

	// Query returns samples matching the filter in chronological order.
	// A limit keeps the most recent rows.
	Query(ctx context.Context, filter QueryFilter) ([]models.PersistedSample, error)

	// QuerySecurityEvents returns security events matching the filter,
	// newest first.
	QuerySecurityEvents(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error)

	// Trend aggregates total monthly cost for one container over a window.
	Trend(ctx context.Context, containerID string, from, to time.Time) (TrendSummary, error)

	// Prune deletes samples and security events older than the cutoff and
	// reports how many sample rows were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
