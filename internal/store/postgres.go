package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/pkg/database"
	"github.com/costwatch/costwatch/pkg/models"
)

// PostgresStore persists samples and security events in PostgreSQL.
// Per-container timestamp monotonicity is enforced in-process: with a
// single scheduler writing, the last-seen map is the source of truth.
type PostgresStore struct {
	db *database.DB

	mu   sync.Mutex
	last map[string]time.Time
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		db:   db,
		last: make(map[string]time.Time),
	}
}

func (s *PostgresStore) Append(ctx context.Context, sample models.PersistedSample) error {
	s.mu.Lock()
	if last, ok := s.last[sample.ContainerID]; ok && !sample.Timestamp.After(last) {
		s.mu.Unlock()
		return fmt.Errorf("container %s: %s not after %s: %w",
			sample.ContainerID, sample.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339), ErrOutOfOrder)
	}
	s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (container_id, container_name, ts, cpu_pct, mem_pct, total_monthly_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sample.ContainerID, sample.ContainerName, sample.Timestamp,
		sample.CPUPct, sample.MemPct, sample.TotalMonthlyCost,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	s.mu.Lock()
	s.last[sample.ContainerID] = sample.Timestamp
	s.mu.Unlock()

	return nil
}

func (s *PostgresStore) AppendSecurityEvent(ctx context.Context, event SecurityEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO security_events (container_id, container_name, ts, rule_id, severity, message)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ContainerID, event.ContainerName, event.Timestamp,
		event.RuleID, event.Severity, event.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter QueryFilter) ([]models.PersistedSample, error) {
	query := `
		SELECT container_id, container_name, ts, cpu_pct, mem_pct, total_monthly_cost
		FROM samples WHERE 1=1`
	args := []interface{}{}

	if filter.ContainerID != "" {
		args = append(args, filter.ContainerID)
		query += fmt.Sprintf(" AND container_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND ts <= $%d", len(args))
	}

	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := []models.PersistedSample{}
	for rows.Next() {
		var sample models.PersistedSample
		if err := rows.Scan(
			&sample.ContainerID, &sample.ContainerName, &sample.Timestamp,
			&sample.CPUPct, &sample.MemPct, &sample.TotalMonthlyCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	// The LIMIT selects the most recent rows; callers read history in
	// chronological order.
	reverseSamples(samples)
	return samples, nil
}

func reverseSamples(samples []models.PersistedSample) {
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
}

func (s *PostgresStore) QuerySecurityEvents(ctx context.Context, filter QueryFilter) ([]SecurityEvent, error) {
	query := `
		SELECT container_id, container_name, ts, rule_id, severity, message
		FROM security_events WHERE 1=1`
	args := []interface{}{}

	if filter.ContainerID != "" {
		args = append(args, filter.ContainerID)
		query += fmt.Sprintf(" AND container_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND ts <= $%d", len(args))
	}

	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	events := []SecurityEvent{}
	for rows.Next() {
		var event SecurityEvent
		if err := rows.Scan(
			&event.ContainerID, &event.ContainerName, &event.Timestamp,
			&event.RuleID, &event.Severity, &event.Message,
		); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate security events: %w", err)
	}

	return events, nil
}

func (s *PostgresStore) Trend(ctx context.Context, containerID string, from, to time.Time) (TrendSummary, error) {
	summary := TrendSummary{ContainerID: containerID, From: from, To: to}

	var avg, max, min sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(total_monthly_cost), MAX(total_monthly_cost), MIN(total_monthly_cost)
		FROM samples
		WHERE container_id = $1 AND ts >= $2 AND ts <= $3`,
		containerID, from, to,
	).Scan(&summary.SampleCount, &avg, &max, &min)
	if err != nil {
		return TrendSummary{}, fmt.Errorf("failed to aggregate trend: %w", err)
	}

	summary.AvgMonthlyCost = avg.Float64
	summary.MaxMonthlyCost = max.Float64
	summary.MinMonthlyCost = min.Float64
	return summary, nil
}

func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned samples: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM security_events WHERE ts < $1`, cutoff); err != nil {
		return removed, fmt.Errorf("failed to prune security events: %w", err)
	}

	if removed > 0 {
		logger.WithField("removed", removed).Info("Pruned expired samples")
	}
	return removed, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
