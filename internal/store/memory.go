package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/costwatch/costwatch/pkg/models"
)

// MemoryStore keeps samples in memory. Used in tests and when the
// process runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	samples []models.PersistedSample
	events  []SecurityEvent
	last    map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		last: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Append(_ context.Context, sample models.PersistedSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[sample.ContainerID]; ok && !sample.Timestamp.After(last) {
		return fmt.Errorf("container %s: %s not after %s: %w",
			sample.ContainerID, sample.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339), ErrOutOfOrder)
	}

	s.samples = append(s.samples, sample)
	s.last[sample.ContainerID] = sample.Timestamp
	return nil
}

func (s *MemoryStore) AppendSecurityEvent(_ context.Context, event SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]models.PersistedSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.PersistedSample{}
	for _, sample := range s.samples {
		if filter.ContainerID != "" && sample.ContainerID != filter.ContainerID {
			continue
		}
		if !filter.From.IsZero() && sample.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sample.Timestamp.After(filter.To) {
			continue
		}
		matched = append(matched, sample)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	reverseSamples(matched)
	return matched, nil
}

func (s *MemoryStore) QuerySecurityEvents(_ context.Context, filter QueryFilter) ([]SecurityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []SecurityEvent{}
	for _, event := range s.events {
		if filter.ContainerID != "" && event.ContainerID != filter.ContainerID {
			continue
		}
		if !filter.From.IsZero() && event.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && event.Timestamp.After(filter.To) {
			continue
		}
		matched = append(matched, event)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) Trend(_ context.Context, containerID string, from, to time.Time) (TrendSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := TrendSummary{ContainerID: containerID, From: from, To: to}
	var total float64
	for _, sample := range s.samples {
		if sample.ContainerID != containerID {
			continue
		}
		if sample.Timestamp.Before(from) || sample.Timestamp.After(to) {
			continue
		}

		cost := sample.TotalMonthlyCost
		if summary.SampleCount == 0 {
			summary.MaxMonthlyCost = cost
			summary.MinMonthlyCost = cost
		} else {
			if cost > summary.MaxMonthlyCost {
				summary.MaxMonthlyCost = cost
			}
			if cost < summary.MinMonthlyCost {
				summary.MinMonthlyCost = cost
			}
		}
		total += cost
		summary.SampleCount++
	}

	if summary.SampleCount > 0 {
		summary.AvgMonthlyCost = total / float64(summary.SampleCount)
	}
	return summary, nil
}

func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.samples[:0]
	var removed int64
	for _, sample := range s.samples {
		if sample.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, sample)
	}
	s.samples = kept

	keptEvents := s.events[:0]
	for _, event := range s.events {
		if event.Timestamp.Before(cutoff) {
			continue
		}
		keptEvents = append(keptEvents, event)
	}
	s.events = keptEvents

	return removed, nil
}

// SecurityEvents returns a copy of all recorded events, oldest first.
func (s *MemoryStore) SecurityEvents() []SecurityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SecurityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
