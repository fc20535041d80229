package security

import (
	"time"

	"github.com/costwatch/costwatch/internal/logger"
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/costwatch/costwatch/pkg/models"
)

// Evaluator runs the full rule registry against a container configuration.
// Evaluation is pure given the configuration and the clock, so repeated
// scans of an unchanged container yield identical reports.
type Evaluator struct {
	outdatedAge time.Duration
	now         func() time.Time
}

func NewEvaluator(cfg config.SecurityConfig) *Evaluator {
	return &Evaluator{
		outdatedAge: time.Duration(cfg.OutdatedImageAgeDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// Evaluate produces a report for one container. A container with no
// findings still gets a report with an empty findings slice.
func (e *Evaluator) Evaluate(cfg *models.ContainerConfig) models.SecurityReport {
	params := Params{
		OutdatedImageAge: e.outdatedAge,
		Now:              e.now(),
	}

	findings := []models.SecurityFinding{}
	for _, r := range registry {
		findings = append(findings, r.check(cfg, params)...)
	}

	report := models.SecurityReport{
		Container:   cfg.Identity,
		Findings:    findings,
		GeneratedAt: params.Now,
	}
	report.Sort()

	if n := report.CriticalCount(); n > 0 {
		logger.WithContainer(cfg.Identity.ID).WithField("critical_findings", n).
			Warn("Critical security findings detected")
	}

	return report
}
