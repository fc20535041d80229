package runtime

import (
	"context"
	"sync"

	"github.com/costwatch/costwatch/pkg/models"
)

// MockRuntime is an in-memory Runtime used in tests and demo runs.
type MockRuntime struct {
	mu         sync.Mutex
	containers []models.ContainerIdentity
	samples    map[string][]*models.ResourceSample
	configs    map[string]*models.ContainerConfig
	sampleErrs map[string]error
	configErrs map[string]error
	listErr    error
}

func NewMockRuntime() *MockRuntime {
	return &MockRuntime{
		samples:    make(map[string][]*models.ResourceSample),
		configs:    make(map[string]*models.ContainerConfig),
		sampleErrs: make(map[string]error),
		configErrs: make(map[string]error),
	}
}

func (m *MockRuntime) AddContainer(cfg *models.ContainerConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers = append(m.containers, cfg.Identity)
	m.configs[cfg.Identity.ID] = cfg
}

// QueueSample appends a sample to the sequence GetResourceSample returns.
// The final sample is repeated once the queue drains.
func (m *MockRuntime) QueueSample(id string, sample *models.ResourceSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[id] = append(m.samples[id], sample)
}

func (m *MockRuntime) FailSample(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampleErrs[id] = err
}

func (m *MockRuntime) FailConfiguration(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configErrs[id] = err
}

func (m *MockRuntime) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func (m *MockRuntime) ListRunningContainers(ctx context.Context) ([]models.ContainerIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	out := make([]models.ContainerIdentity, len(m.containers))
	copy(out, m.containers)
	return out, nil
}

func (m *MockRuntime) GetResourceSample(ctx context.Context, id string) (*models.ResourceSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.sampleErrs[id]; err != nil {
		return nil, err
	}

	queue := m.samples[id]
	if len(queue) == 0 {
		return nil, ErrNotFound
	}

	sample := queue[0]
	if len(queue) > 1 {
		m.samples[id] = queue[1:]
	}

	copied := *sample
	return &copied, nil
}

func (m *MockRuntime) GetConfiguration(ctx context.Context, id string) (*models.ContainerConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.configErrs[id]; err != nil {
		return nil, err
	}

	cfg, ok := m.configs[id]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *cfg
	return &copied, nil
}

func (m *MockRuntime) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listErr
}

func (m *MockRuntime) Close() error {
	return nil
}
