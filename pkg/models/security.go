package models

import (
	"sort"
	"time"
)

// Severity ranks security findings. CRITICAL > HIGH > MEDIUM > LOW.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank returns the sort weight for a severity, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// SecurityFinding is one triggered rule. Findings are immutable.
type SecurityFinding struct {
	RuleID      string   `json:"rule_id"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation"`
}

// SecurityReport holds a container's findings for one cycle, ordered by
// severity descending with ties broken by rule ID. A container triggering
// zero rules yields an empty report, not an absent one.
type SecurityReport struct {
	Container   ContainerIdentity `json:"container"`
	Findings    []SecurityFinding `json:"findings"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Sort orders findings deterministically: severity descending, then rule ID
// ascending, then message (some rules emit one finding per port).
func (r *SecurityReport) Sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Message < b.Message
	})
}

// CountBySeverity tallies findings per severity level.
func (r SecurityReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// CriticalCount returns the number of CRITICAL findings.
func (r SecurityReport) CriticalCount() int {
	var n int
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
