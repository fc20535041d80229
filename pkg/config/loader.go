package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/costwatch")
	}

	v.SetEnvPrefix("COSTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "costwatch")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "costwatch")
	v.SetDefault("database.user", "costwatch")
	v.SetDefault("database.password", "costwatch")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Runtime defaults
	v.SetDefault("runtime.endpoint", "http://localhost:2375")
	v.SetDefault("runtime.timeout", "5s")
	v.SetDefault("runtime.retry_attempts", 2)
	v.SetDefault("runtime.retry_delay", "1s")
	v.SetDefault("runtime.circuit_breaker.max_failures", 5)
	v.SetDefault("runtime.circuit_breaker.timeout", "30s")

	// Pricing defaults: averaged EU-west on-demand rates
	v.SetDefault("pricing.cpu_price_per_hour", 0.04)
	v.SetDefault("pricing.mem_price_per_gb_hour", 0.005)
	v.SetDefault("pricing.hours_per_month", 730.0)

	// Waste thresholds
	v.SetDefault("waste.cpu_threshold_pct", 20.0)
	v.SetDefault("waste.mem_threshold_pct", 30.0)

	// Monitor defaults
	v.SetDefault("monitor.interval", "5m")
	v.SetDefault("monitor.alert_cost_threshold", 100.0)
	v.SetDefault("monitor.worker_concurrency", 4)
	v.SetDefault("monitor.fetch_timeout", "10s")

	// Security defaults
	v.SetDefault("security.outdated_image_age_days", 180)

	// Store defaults
	v.SetDefault("store.backend", "postgres")
	v.SetDefault("store.retention_days", 0)

	// Alert defaults
	v.SetDefault("alert.timeout", "5s")

	// API defaults
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.default_limit", 100)
	v.SetDefault("api.max_limit", 1000)
	v.SetDefault("api.rate_limit", 120)

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
