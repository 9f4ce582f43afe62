package config

import "time"

// Default values for every recognized option
const (
	DefaultPollInterval   = 3600
	DefaultHistoryWeeks   = 2
	DefaultHorizon        = 7
	DefaultMQTTClientID   = "trendalarm"
	DefaultRequestTimeout = 60
	DefaultLogLevel       = "info"
	DefaultPIDFile        = "/run/trendalarm.pid"

	DefaultMarkerBackend = "file"
	DefaultMarkerPath    = "/var/lib/trendalarm/last_run"
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisKey      = "trendalarm:last_run"

	DefaultAuditBackend = "file"
	DefaultSuccessLog   = "/var/lib/trendalarm/results.log"
	DefaultErrorLog     = "/var/lib/trendalarm/errors.log"
	DefaultAuditDBPath  = "/var/lib/trendalarm/audit.db"

	envPrefix = "TRENDALARM"
	envConfig = "TRENDALARM_CONFIG"
)

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Config is constructed once at startup and handed by value to every
// component constructor. Nothing mutates it afterwards.
type Config struct {
	PollInterval      int    `mapstructure:"poll_interval" validate:"gt=0"`
	HistoryWeeks      int    `mapstructure:"history_weeks" validate:"gt=0"`
	Horizon           int    `mapstructure:"horizon" validate:"gt=0"`
	CatalogURL        string `mapstructure:"catalog_url" validate:"omitempty,url"`
	TelemetryURL      string `mapstructure:"telemetry_url" validate:"omitempty,url"`
	ServiceCatalogURL string `mapstructure:"service_catalog_url" validate:"omitempty,url"`
	AlarmsTopic       string `mapstructure:"alarms_topic"`
	BrokerAddress     string `mapstructure:"broker_address"`
	MQTTClientID      string `mapstructure:"mqtt_client_id" validate:"required"`
	RequestTimeout    int    `mapstructure:"request_timeout" validate:"gte=0"`
	MetricsAddr       string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	PIDFile           string `mapstructure:"pid_file"`
	LogLevel          string `mapstructure:"log_level"`
	Once              bool   `mapstructure:"once"`

	Marker MarkerConfig `mapstructure:"marker"`
	Audit  AuditConfig  `mapstructure:"audit"`
}

// MarkerConfig selects the durable store behind the weekly run guard
type MarkerConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=file sqlite redis"`
	Path      string `mapstructure:"path"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisKey  string `mapstructure:"redis_key"`
}

// AuditConfig selects where success and error records are appended
type AuditConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=file sqlite"`
	SuccessLog string `mapstructure:"success_log"`
	ErrorLog   string `mapstructure:"error_log"`
	DBPath     string `mapstructure:"db_path"`
}

// PollEvery returns the sleep between poll cycles
func (c Config) PollEvery() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// WindowDays returns the telemetry history window in days
func (c Config) WindowDays() int {
	return c.HistoryWeeks * 7
}

// Timeout returns the per-request timeout for collaborator calls
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
