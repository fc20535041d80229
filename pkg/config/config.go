package config

import (
	"fmt"
	"time"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Waste    WasteConfig    `mapstructure:"waste"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Security SecurityConfig `mapstructure:"security"`
	Store    StoreConfig    `mapstructure:"store"`
	Alert    AlertConfig    `mapstructure:"alert"`
	API      APIConfig      `mapstructure:"api"`
	Events   EventsConfig   `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

// RuntimeConfig describes how to reach the container runtime API.
type RuntimeConfig struct {
	Endpoint       string               `mapstructure:"endpoint"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration        `mapstructure:"retry_delay"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PricingConfig holds the cost constants of the waste model. The numbers
// trade absolute billing accuracy for comparability between containers.
type PricingConfig struct {
	CPUPricePerHour   float64 `mapstructure:"cpu_price_per_hour"`   // per vCPU
	MemPricePerGBHour float64 `mapstructure:"mem_price_per_gb_hour"` // per GB
	HoursPerMonth     float64 `mapstructure:"hours_per_month"`
}

// WasteConfig holds the utilization percentages below which an allocation
// counts as wasted.
type WasteConfig struct {
	CPUThresholdPct float64 `mapstructure:"cpu_threshold_pct"`
	MemThresholdPct float64 `mapstructure:"mem_threshold_pct"`
}

type MonitorConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	AlertCostThreshold float64       `mapstructure:"alert_cost_threshold"`
	WorkerConcurrency  int           `mapstructure:"worker_concurrency"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
}

type SecurityConfig struct {
	OutdatedImageAgeDays int `mapstructure:"outdated_image_age_days"`
}

type StoreConfig struct {
	// Backend selects the time-series backend: "postgres" or "memory".
	// The memory backend keeps history in-process and loses it on restart.
	Backend string `mapstructure:"backend"`
	// RetentionDays prunes persisted samples older than this many days.
	// Zero disables pruning.
	RetentionDays int `mapstructure:"retention_days"`
}

type AlertConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type APIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	RateLimit    int           `mapstructure:"rate_limit"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
