package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/gin-gonic/gin"
)

type SamplesHandler struct {
	store  store.TimeSeriesStore
	config config.APIConfig
}

func NewSamplesHandler(ts store.TimeSeriesStore, cfg config.APIConfig) *SamplesHandler {
	return &SamplesHandler{store: ts, config: cfg}
}

// GetSamples serves GET /samples with optional container_id, from, to,
// and limit query parameters.
func (h *SamplesHandler) GetSamples(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	samples, err := h.store.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query samples"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"samples": samples,
		"count":   len(samples),
	})
}

// GetTrend serves GET /containers/:id/trend?window=24h.
func (h *SamplesHandler) GetTrend(c *gin.Context) {
	containerID := c.Param("id")

	window := 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window duration"})
			return
		}
		window = parsed
	}

	to := time.Now()
	from := to.Add(-window)

	summary, err := h.store.Trend(c.Request.Context(), containerID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate trend"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetSecurityEvents serves GET /security-events with the same filter
// parameters as GetSamples.
func (h *SamplesHandler) GetSecurityEvents(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	events, err := h.store.QuerySecurityEvents(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query security events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

func (h *SamplesHandler) parseFilter(c *gin.Context) (store.QueryFilter, bool) {
	filter := store.QueryFilter{
		ContainerID: c.Query("container_id"),
		Limit:       h.defaultLimit(),
	}

	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp, expected RFC3339"})
			return store.QueryFilter{}, false
		}
		filter.From = ts
	}

	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp, expected RFC3339"})
			return store.QueryFilter{}, false
		}
		filter.To = ts
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return store.QueryFilter{}, false
		}
		if max := h.maxLimit(); limit > max {
			limit = max
		}
		filter.Limit = limit
	}

	return filter, true
}

func (h *SamplesHandler) defaultLimit() int {
	if h.config.DefaultLimit > 0 {
		return h.config.DefaultLimit
	}
	return 100
}

func (h *SamplesHandler) maxLimit() int {
	if h.config.MaxLimit > 0 {
		return h.config.MaxLimit
	}
	return 1000
}
