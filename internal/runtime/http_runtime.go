package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/pkg/models"
)

// HTTPRuntime talks to a Docker-Engine-compatible HTTP API.
type HTTPRuntime struct {
	client   *http.Client
	endpoint string
}

type HTTPRuntimeConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPRuntime(cfg HTTPRuntimeConfig) *HTTPRuntime {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPRuntime{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
	}
}

type listEntry struct {
	ID    string   `json:"Id"`
	Names []string `json:"Names"`
}

type statsResponse struct {
	Read     string `json:"read"`
	CPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemCPUUsage uint64 `json:"system_cpu_usage"`
		OnlineCPUs     int    `json:"online_cpus"`
	} `json:"cpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Stats struct {
			Cache uint64 `json:"cache"`
		} `json:"stats"`
	} `json:"memory_stats"`
}

type inspectResponse struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Image  string `json:"Image"`
	Config struct {
		User string   `json:"User"`
		Env  []string `json:"Env"`
	} `json:"Config"`
	HostConfig struct {
		Privileged     bool     `json:"Privileged"`
		CapAdd         []string `json:"CapAdd"`
		SecurityOpt    []string `json:"SecurityOpt"`
		ReadonlyRootfs bool     `json:"ReadonlyRootfs"`
		NanoCpus       int64    `json:"NanoCpus"`
		Memory         int64    `json:"Memory"`
	} `json:"HostConfig"`
	NetworkSettings struct {
		Ports map[string][]struct {
			HostIP   string `json:"HostIp"`
			HostPort string `json:"HostPort"`
		} `json:"Ports"`
	} `json:"NetworkSettings"`
}

type imageResponse struct {
	Created string `json:"Created"`
}

func (r *HTTPRuntime) ListRunningContainers(ctx context.Context) ([]models.ContainerIdentity, error) {
	var entries []listEntry
	if err := r.get(ctx, "/containers/json", &entries); err != nil {
		return nil, err
	}

	containers := make([]models.ContainerIdentity, 0, len(entries))
	for _, e := range entries {
		name := e.ID
		if len(e.Names) > 0 {
			name = strings.TrimPrefix(e.Names[0], "/")
		}
		containers = append(containers, models.ContainerIdentity{ID: e.ID, Name: name})
	}

	return containers, nil
}

func (r *HTTPRuntime) GetResourceSample(ctx context.Context, id string) (*models.ResourceSample, error) {
	var stats statsResponse
	if err := r.get(ctx, "/containers/"+id+"/stats?stream=false", &stats); err != nil {
		return nil, err
	}

	timestamp := time.Now()
	if stats.Read != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, stats.Read); err == nil {
			timestamp = parsed
		}
	}

	return &models.ResourceSample{
		CPUTotal:    stats.CPUStats.CPUUsage.TotalUsage,
		SystemTotal: stats.CPUStats.SystemCPUUsage,
		OnlineCPUs:  stats.CPUStats.OnlineCPUs,
		MemoryUsage: stats.MemoryStats.Usage,
		MemoryCache: stats.MemoryStats.Stats.Cache,
		Timestamp:   timestamp,
	}, nil
}

func (r *HTTPRuntime) GetConfiguration(ctx context.Context, id string) (*models.ContainerConfig, error) {
	var inspect inspectResponse
	if err := r.get(ctx, "/containers/"+id+"/json", &inspect); err != nil {
		return nil, err
	}

	cfg := &models.ContainerConfig{
		Identity: models.ContainerIdentity{
			ID:   inspect.ID,
			Name: strings.TrimPrefix(inspect.Name, "/"),
		},
		User:           inspect.Config.User,
		Privileged:     inspect.HostConfig.Privileged,
		CapAdd:         inspect.HostConfig.CapAdd,
		SecurityOpts:   inspect.HostConfig.SecurityOpt,
		ReadonlyRootfs: inspect.HostConfig.ReadonlyRootfs,
		EnvNames:       envNames(inspect.Config.Env),
		Ports:          parsePorts(inspect.NetworkSettings.Ports),
		Allocation: models.ResourceAllocation{
			CPULimit:    float64(inspect.HostConfig.NanoCpus) / 1e9,
			MemoryLimit: inspect.HostConfig.Memory,
		},
	}

	// Image creation time needs a second fetch; a failure here leaves the
	// zero time, which the evaluator treats as "age unknown".
	var image imageResponse
	if err := r.get(ctx, "/images/"+inspect.Image+"/json", &image); err == nil {
		if created, err := time.Parse(time.RFC3339Nano, image.Created); err == nil {
			cfg.ImageCreated = created
		}
	} else {
		logger.WithContainer(id).Debugf("Image inspect failed: %v", err)
	}

	return cfg, nil
}

func (r *HTTPRuntime) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/_ping", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (r *HTTPRuntime) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *HTTPRuntime) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnreachable, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrUnreachable, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return nil
}

func envNames(env []string) []string {
	names := make([]string, 0, len(env))
	for _, e := range env {
		if idx := strings.Index(e, "="); idx > 0 {
			names = append(names, e[:idx])
		}
	}
	return names
}

// parsePorts flattens the runtime's "8080/tcp" -> bindings map into one
// entry per host binding. Unpublished ports have no bindings and are ignored.
func parsePorts(ports map[string][]struct {
	HostIP   string `json:"HostIp"`
	HostPort string `json:"HostPort"`
}) []models.PortBinding {
	var out []models.PortBinding
	for spec, bindings := range ports {
		portStr, proto, found := strings.Cut(spec, "/")
		if !found {
			proto = "tcp"
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}
		for _, b := range bindings {
			hostPort, _ := strconv.Atoi(b.HostPort)
			out = append(out, models.PortBinding{
				ContainerPort: port,
				Protocol:      proto,
				HostIP:        b.HostIP,
				HostPort:      hostPort,
			})
		}
	}
	return out
}
