package models

import "time"

// ContainerIdentity is a stable handle to a runtime container.
type ContainerIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResourceSample is one raw stats fetch for a container. CPU counters are
// cumulative since container/host start; deltas between two consecutive
// samples are what carry meaning.
type ResourceSample struct {
	CPUTotal    uint64    `json:"cpu_total"`
	SystemTotal uint64    `json:"system_total"`
	OnlineCPUs  int       `json:"online_cpus"`
	MemoryUsage uint64    `json:"memory_usage"`
	MemoryCache uint64    `json:"memory_cache"`
	Timestamp   time.Time `json:"timestamp"`
}

// ResourceAllocation holds the configured limits for a container.
// A zero value for either field means the resource is unbounded.
type ResourceAllocation struct {
	CPULimit    float64 `json:"cpu_limit"`    // vCPUs
	MemoryLimit int64   `json:"memory_limit"` // bytes
}

// HasCPULimit reports whether a CPU ceiling is configured.
func (a ResourceAllocation) HasCPULimit() bool {
	return a.CPULimit > 0
}

// HasMemoryLimit reports whether a memory ceiling is configured.
func (a ResourceAllocation) HasMemoryLimit() bool {
	return a.MemoryLimit > 0
}

// MemoryLimitGB returns the memory limit in gigabytes, 0 when unbounded.
func (a ResourceAllocation) MemoryLimitGB() float64 {
	return float64(a.MemoryLimit) / (1 << 30)
}

// PortBinding describes one published container port.
type PortBinding struct {
	ContainerPort int    `json:"container_port"`
	Protocol      string `json:"protocol"`
	HostIP        string `json:"host_ip"`
	HostPort      int    `json:"host_port"`
}

// BoundToAllInterfaces reports whether the binding listens on every host
// interface. The runtime reports this either as 0.0.0.0 or an empty host IP.
func (p PortBinding) BoundToAllInterfaces() bool {
	return p.HostIP == "" || p.HostIP == "0.0.0.0"
}

// ContainerConfig is the configuration snapshot the security evaluator and
// the waste calculator read. It is immutable for the duration of a cycle.
type ContainerConfig struct {
	Identity       ContainerIdentity  `json:"identity"`
	User           string             `json:"user"`
	Privileged     bool               `json:"privileged"`
	Ports          []PortBinding      `json:"ports"`
	CapAdd         []string           `json:"cap_add"`
	EnvNames       []string           `json:"env_names"`
	SecurityOpts   []string           `json:"security_opts"`
	ReadonlyRootfs bool               `json:"readonly_rootfs"`
	ImageCreated   time.Time          `json:"image_created"`
	Allocation     ResourceAllocation `json:"allocation"`
}
