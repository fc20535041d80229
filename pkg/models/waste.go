package models

// ResourceKind identifies which allocation a waste assessment covers.
type ResourceKind string

const (
	ResourceCPU    ResourceKind = "cpu"
	ResourceMemory ResourceKind = "memory"
)

// WasteAssessment quantifies the unused share of one resource allocation.
// Amounts are in vCPUs for CPU and gigabytes for memory. MonthlyCost is
// always >= 0; a resource without a configured limit never produces an
// assessment because waste against an unbounded ceiling is undefined.
type WasteAssessment struct {
	Resource         ResourceKind `json:"resource"`
	Allocated        float64      `json:"allocated"`
	Used             float64      `json:"used"`
	WastedAmount     float64      `json:"wasted_amount"`
	WastedPct        float64      `json:"wasted_pct"`
	MonthlyCost      float64      `json:"monthly_cost"`
	RecommendedLimit float64      `json:"recommended_limit"`
}
