package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/costwatch/costwatch/internal/collector"
	"github.com/costwatch/costwatch/internal/events"
	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/internal/metrics"
	"github.com/costwatch/costwatch/internal/runtime"
	"github.com/costwatch/costwatch/internal/security"
	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/internal/waste"
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/costwatch/costwatch/pkg/models"
)

// SchedulerConfig wires the pipeline stages into the periodic loop.
type SchedulerConfig struct {
	Runtime   runtime.Runtime
	Collector *collector.Collector
	Waste     *waste.Calculator
	Security  *security.Evaluator
	Store     store.TimeSeriesStore
	Publisher *events.Publisher
	Metrics   *metrics.Metrics
	AlertSink AlertSink
	Monitor   config.MonitorConfig
	Retention config.StoreConfig
}

// Scheduler drives the collect-assess-persist pipeline on a fixed
// interval. One container's failure never aborts the cycle, and the
// previous-sample cache survives across cycles so CPU rates can be
// derived from consecutive counters.
type Scheduler struct {
	cfg SchedulerConfig

	prevMu sync.Mutex
	prev   map[string]*models.ResourceSample

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Monitor.WorkerConcurrency <= 0 {
		cfg.Monitor.WorkerConcurrency = 4
	}
	if cfg.Monitor.Interval <= 0 {
		cfg.Monitor.Interval = 5 * time.Minute
	}
	if cfg.AlertSink == nil {
		cfg.AlertSink = LogSink{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:    cfg,
		prev:   make(map[string]*models.ResourceSample),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.running = true

	s.wg.Add(1)
	go s.run()

	logger.Info("Monitoring scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	logger.Info("Monitoring scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Monitor.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.runCycle(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(s.ctx)
		}
	}
}

// RunOnce executes a single monitoring cycle and returns its per-container
// results sorted by container name.
func (s *Scheduler) RunOnce(ctx context.Context) ([]models.MonitoringCycleResult, error) {
	return s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) ([]models.MonitoringCycleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	containers, err := s.cfg.Runtime.ListRunningContainers(ctx)
	if err != nil {
		logger.Errorf("Container listing failed: %v", err)
		s.cfg.Metrics.CollectionErrors.Inc()
		s.cfg.Publisher.Error("", "Container listing failed", err)
		return nil, err
	}

	s.dropVanished(containers)
	s.cfg.Publisher.CycleStarted(len(containers))

	var (
		resultMu sync.Mutex
		results  []models.MonitoringCycleResult
		skipped  int
	)

	sem := make(chan struct{}, s.cfg.Monitor.WorkerConcurrency)
	var scanWG sync.WaitGroup

	for _, identity := range containers {
		select {
		case <-ctx.Done():
			scanWG.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		scanWG.Add(1)
		go func(identity models.ContainerIdentity) {
			defer scanWG.Done()
			defer func() { <-sem }()

			result, ok := s.scanContainer(ctx, identity)
			resultMu.Lock()
			if ok {
				results = append(results, result)
			} else {
				skipped++
			}
			resultMu.Unlock()
		}(identity)
	}
	scanWG.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Container.Name < results[j].Container.Name
	})

	var totalCost float64
	var critical int
	for _, result := range results {
		s.persist(ctx, result)
		totalCost += result.TotalMonthlyCost()
		critical += result.Security.CriticalCount()
	}

	if totalCost > s.cfg.Monitor.AlertCostThreshold {
		s.alert(ctx, Alert{
			TotalMonthlyCost: totalCost,
			Threshold:        s.cfg.Monitor.AlertCostThreshold,
			ContainerCount:   len(results),
			Timestamp:        time.Now(),
		})
	}

	s.pruneExpired(ctx)

	s.cfg.Metrics.ObserveCycle(len(results), totalCost, critical, time.Since(start))
	s.cfg.Publisher.CycleComplete(len(results), skipped, totalCost)

	return results, nil
}

// scanContainer fetches, computes, and assesses one container. Any fetch
// failure skips the container for this cycle without touching the cycle's
// other containers.
func (s *Scheduler) scanContainer(ctx context.Context, identity models.ContainerIdentity) (models.MonitoringCycleResult, bool) {
	fetchCtx := ctx
	if s.cfg.Monitor.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.Monitor.FetchTimeout)
		defer cancel()
	}

	sample, err := s.cfg.Runtime.GetResourceSample(fetchCtx, identity.ID)
	if err != nil {
		s.skip(identity, "stats", err)
		return models.MonitoringCycleResult{}, false
	}

	containerCfg, err := s.cfg.Runtime.GetConfiguration(fetchCtx, identity.ID)
	if err != nil {
		s.skip(identity, "config", err)
		return models.MonitoringCycleResult{}, false
	}

	prev := s.swapPrevious(identity.ID, sample)
	usage := s.cfg.Collector.ComputeUsage(prev, sample, containerCfg.Allocation)
	assessments := s.cfg.Waste.Assess(usage, containerCfg.Allocation)
	report := s.cfg.Security.Evaluate(containerCfg)

	for _, finding := range report.Findings {
		s.cfg.Publisher.SecurityFinding(identity, finding)
		s.cfg.Metrics.FindingsTotal.WithLabelValues(string(finding.Severity)).Inc()
	}

	result := models.MonitoringCycleResult{
		Container: identity,
		Usage:     usage,
		Waste:     assessments,
		Security:  report,
		Timestamp: sample.Timestamp,
	}
	s.cfg.Publisher.ContainerScanned(&result)
	return result, true
}

func (s *Scheduler) skip(identity models.ContainerIdentity, stage string, err error) {
	logger.WithContainer(identity.ID).Warnf("Skipping container, %s fetch failed: %v", stage, err)
	s.cfg.Metrics.CollectionErrors.Inc()
	s.cfg.Metrics.ContainersSkipped.WithLabelValues(stage).Inc()
	s.cfg.Publisher.ContainerSkipped(identity.ID, stage+" fetch failed", err)
}

// persist writes one sample, retrying a transient failure once. An
// out-of-order rejection is final and is never retried.
func (s *Scheduler) persist(ctx context.Context, result models.MonitoringCycleResult) {
	sample := result.ToPersistedSample()

	err := s.cfg.Store.Append(ctx, sample)
	if err != nil && !errors.Is(err, store.ErrOutOfOrder) {
		err = s.cfg.Store.Append(ctx, sample)
	}
	if err != nil {
		logger.WithContainer(sample.ContainerID).Warnf("Dropping sample, persistence failed: %v", err)
		s.cfg.Metrics.PersistErrors.Inc()
		return
	}

	s.cfg.Publisher.SamplePersisted(sample)
}

func (s *Scheduler) alert(ctx context.Context, alert Alert) {
	s.cfg.Publisher.Alert("Monthly waste cost exceeds alert threshold", alert)
	if err := s.cfg.AlertSink.Notify(ctx, alert); err != nil {
		logger.Errorf("Alert delivery failed: %v", err)
	}
}

func (s *Scheduler) pruneExpired(ctx context.Context) {
	if s.cfg.Retention.RetentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.Retention.RetentionDays)
	if _, err := s.cfg.Store.Prune(ctx, cutoff); err != nil {
		logger.Errorf("Retention pruning failed: %v", err)
	}
}

// swapPrevious returns the cached sample for the container and installs
// the new one. The cache is the only cross-cycle state the scheduler holds.
func (s *Scheduler) swapPrevious(containerID string, sample *models.ResourceSample) *models.ResourceSample {
	s.prevMu.Lock()
	defer s.prevMu.Unlock()

	prev := s.prev[containerID]
	s.prev[containerID] = sample
	return prev
}

// dropVanished evicts cache entries for containers that are no longer
// running, so a reused ID starts from a clean first cycle.
func (s *Scheduler) dropVanished(running []models.ContainerIdentity) {
	alive := make(map[string]bool, len(running))
	for _, identity := range running {
		alive[identity.ID] = true
	}

	s.prevMu.Lock()
	defer s.prevMu.Unlock()
	for id := range s.prev {
		if !alive[id] {
			delete(s.prev, id)
		}
	}
}
