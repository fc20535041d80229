package models

import "time"

// UsageMetrics is normalized utilization derived from two consecutive
// resource samples. A metric that could not be computed is marked
// unavailable rather than reported as zero: "no data yet" and "idle" are
// different states, and conflating them would fabricate waste downstream.
type UsageMetrics struct {
	CPUPct       float64   `json:"cpu_pct"` // 0..100*online_cpus
	CPUAvailable bool      `json:"cpu_available"`
	MemPct       float64   `json:"mem_pct"` // 0..100, relative to the memory limit
	MemAvailable bool      `json:"mem_available"`
	OnlineCPUs   int       `json:"online_cpus"`
	Timestamp    time.Time `json:"timestamp"`
}

// UsedVCPUs converts the normalized CPU percentage into consumed vCPUs.
// Only meaningful when CPUAvailable is true.
func (u UsageMetrics) UsedVCPUs() float64 {
	return u.CPUPct / 100
}

// PersistedSample is one durable, append-only record of a container's usage
// and waste cost for one cycle. Rows are never mutated once written.
type PersistedSample struct {
	ContainerID      string    `json:"container_id"`
	ContainerName    string    `json:"container_name"`
	Timestamp        time.Time `json:"timestamp"`
	CPUPct           *float64  `json:"cpu_pct,omitempty"`
	MemPct           *float64  `json:"mem_pct,omitempty"`
	TotalMonthlyCost float64   `json:"total_monthly_cost"`
}

// MonitoringCycleResult is one container's complete outcome for one cycle.
type MonitoringCycleResult struct {
	Container ContainerIdentity `json:"container"`
	Usage     UsageMetrics      `json:"usage"`
	Waste     []WasteAssessment `json:"waste"`
	Security  SecurityReport    `json:"security"`
	Timestamp time.Time         `json:"timestamp"`
}

// TotalMonthlyCost sums the wasted monthly cost across all assessed resources.
func (r MonitoringCycleResult) TotalMonthlyCost() float64 {
	var total float64
	for _, w := range r.Waste {
		total += w.MonthlyCost
	}
	return total
}

// ToPersistedSample flattens the cycle result into the durable record shape.
// Unavailable metrics map to NULL columns, never to zero.
func (r MonitoringCycleResult) ToPersistedSample() PersistedSample {
	s := PersistedSample{
		ContainerID:      r.Container.ID,
		ContainerName:    r.Container.Name,
		Timestamp:        r.Timestamp,
		TotalMonthlyCost: r.TotalMonthlyCost(),
	}
	if r.Usage.CPUAvailable {
		cpu := r.Usage.CPUPct
		s.CPUPct = &cpu
	}
	if r.Usage.MemAvailable {
		mem := r.Usage.MemPct
		s.MemPct = &mem
	}
	return s
}
