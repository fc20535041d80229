package config

import (
	"errors"
	"fmt"
)

// Validate checks every setting once at startup. Any violation is a fatal
// configuration error; the scheduler must not start with a partially valid
// config because a bad price or threshold would silently corrupt every
// downstream waste figure.
func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Runtime validation
	if c.Runtime.Endpoint == "" {
		errs = append(errs, errors.New("runtime.endpoint is required"))
	}
	if c.Runtime.Timeout <= 0 {
		errs = append(errs, errors.New("runtime.timeout must be positive"))
	}

	// Pricing validation
	if c.Pricing.CPUPricePerHour <= 0 {
		errs = append(errs, errors.New("pricing.cpu_price_per_hour must be positive"))
	}
	if c.Pricing.MemPricePerGBHour <= 0 {
		errs = append(errs, errors.New("pricing.mem_price_per_gb_hour must be positive"))
	}
	if c.Pricing.HoursPerMonth <= 0 {
		errs = append(errs, errors.New("pricing.hours_per_month must be positive"))
	}

	// Waste threshold validation
	if c.Waste.CPUThresholdPct <= 0 || c.Waste.CPUThresholdPct >= 100 {
		errs = append(errs, errors.New("waste.cpu_threshold_pct must be between 0 and 100 exclusive"))
	}
	if c.Waste.MemThresholdPct <= 0 || c.Waste.MemThresholdPct >= 100 {
		errs = append(errs, errors.New("waste.mem_threshold_pct must be between 0 and 100 exclusive"))
	}

	// Monitor validation
	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if c.Monitor.AlertCostThreshold <= 0 {
		errs = append(errs, errors.New("monitor.alert_cost_threshold must be positive"))
	}
	if c.Monitor.WorkerConcurrency <= 0 {
		errs = append(errs, errors.New("monitor.worker_concurrency must be positive"))
	}
	if c.Monitor.FetchTimeout <= 0 {
		errs = append(errs, errors.New("monitor.fetch_timeout must be positive"))
	}
	if c.Monitor.FetchTimeout >= c.Monitor.Interval {
		errs = append(errs, errors.New("monitor.fetch_timeout must be less than monitor.interval"))
	}

	// Security validation
	if c.Security.OutdatedImageAgeDays <= 0 {
		errs = append(errs, errors.New("security.outdated_image_age_days must be positive"))
	}

	// Store validation
	if c.Store.Backend != "postgres" && c.Store.Backend != "memory" {
		errs = append(errs, errors.New("store.backend must be postgres or memory"))
	}
	if c.Store.RetentionDays < 0 {
		errs = append(errs, errors.New("store.retention_days must not be negative"))
	}

	// API validation
	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			errs = append(errs, errors.New("api.port must be between 1 and 65535"))
		}
		if c.API.MaxLimit < c.API.DefaultLimit {
			errs = append(errs, errors.New("api.max_limit must be >= api.default_limit"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
