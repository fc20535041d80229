package handlers

import (
	"context"
	"net/http"

	"github.com/costwatch/costwatch/pkg/models"
	"github.com/gin-gonic/gin"
)

// CycleRunner triggers one monitoring cycle on demand.
type CycleRunner interface {
	RunOnce(ctx context.Context) ([]models.MonitoringCycleResult, error)
}

type ScanHandler struct {
	runner CycleRunner
}

func NewScanHandler(runner CycleRunner) *ScanHandler {
	return &ScanHandler{runner: runner}
}

// Scan serves POST /scan, running a full cycle synchronously and
// returning its per-container results.
func (h *ScanHandler) Scan(c *gin.Context) {
	results, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "scan failed: " + err.Error()})
		return
	}

	var totalCost float64
	for _, result := range results {
		totalCost += result.TotalMonthlyCost()
	}

	c.JSON(http.StatusOK, gin.H{
		"results":            results,
		"count":              len(results),
		"total_monthly_cost": totalCost,
	})
}
