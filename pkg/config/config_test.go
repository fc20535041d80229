package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "costwatch", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Mode)

	assert.InDelta(t, 0.04, cfg.Pricing.CPUPricePerHour, 0.0001)
	assert.InDelta(t, 0.005, cfg.Pricing.MemPricePerGBHour, 0.0001)
	assert.InDelta(t, 730.0, cfg.Pricing.HoursPerMonth, 0.0001)

	assert.InDelta(t, 20.0, cfg.Waste.CPUThresholdPct, 0.0001)
	assert.InDelta(t, 30.0, cfg.Waste.MemThresholdPct, 0.0001)

	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, 4, cfg.Monitor.WorkerConcurrency)
	assert.Equal(t, 180, cfg.Security.OutdatedImageAgeDays)
	assert.Equal(t, "http://localhost:2375", cfg.Runtime.Endpoint)
	assert.Equal(t, "postgres", cfg.Store.Backend)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COSTWATCH_PRICING_CPU_PRICE_PER_HOUR", "0.08")
	t.Setenv("COSTWATCH_MONITOR_WORKER_CONCURRENCY", "8")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.InDelta(t, 0.08, cfg.Pricing.CPUPricePerHour, 0.0001)
	assert.Equal(t, 8, cfg.Monitor.WorkerConcurrency)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:    "negative cpu price",
			mutate:  func(cfg *config.Config) { cfg.Pricing.CPUPricePerHour = -1 },
			wantErr: "pricing.cpu_price_per_hour",
		},
		{
			name:    "zero hours per month",
			mutate:  func(cfg *config.Config) { cfg.Pricing.HoursPerMonth = 0 },
			wantErr: "pricing.hours_per_month",
		},
		{
			name:    "cpu threshold out of range",
			mutate:  func(cfg *config.Config) { cfg.Waste.CPUThresholdPct = 100 },
			wantErr: "waste.cpu_threshold_pct",
		},
		{
			name:    "mem threshold zero",
			mutate:  func(cfg *config.Config) { cfg.Waste.MemThresholdPct = 0 },
			wantErr: "waste.mem_threshold_pct",
		},
		{
			name:    "fetch timeout exceeds interval",
			mutate:  func(cfg *config.Config) { cfg.Monitor.FetchTimeout = 10 * time.Minute },
			wantErr: "monitor.fetch_timeout",
		},
		{
			name:    "zero concurrency",
			mutate:  func(cfg *config.Config) { cfg.Monitor.WorkerConcurrency = 0 },
			wantErr: "monitor.worker_concurrency",
		},
		{
			name:    "missing database host",
			mutate:  func(cfg *config.Config) { cfg.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "unknown store backend",
			mutate:  func(cfg *config.Config) { cfg.Store.Backend = "sqlite" },
			wantErr: "store.backend",
		},
		{
			name:    "negative retention",
			mutate:  func(cfg *config.Config) { cfg.Store.RetentionDays = -1 },
			wantErr: "store.retention_days",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *config.Config) { cfg.App.LogLevel = "verbose" },
			wantErr: "app.log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
