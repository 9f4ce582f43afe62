package config

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load builds the configuration from defaults, the TOML config file,
// TRENDALARM_* environment variables and command line flags, in increasing
// order of precedence.
func Load(args []string) (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("trendalarm", pflag.ContinueOnError)
	configFile := fs.String("config", "", "Path to the configuration file")
	fs.Int("interval", DefaultPollInterval, "Seconds between poll cycles")
	fs.Int("weeks", DefaultHistoryWeeks, "Weeks of telemetry history used for forecasting")
	fs.String("catalog-url", "", "Device catalog endpoint")
	fs.String("telemetry-url", "", "Telemetry adaptor base URL")
	fs.String("service-catalog-url", "", "Service registry used to resolve unset endpoints")
	fs.String("broker", "", "MQTT broker address (default tcp://localhost:1883)")
	fs.String("alarms-topic", "", "MQTT topic for alarm events (default plant_care/alarms)")
	fs.String("metrics-addr", "", "Listen address for prometheus metrics")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("once", false, "Run a single poll cycle and exit")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}

	flagKeys := map[string]string{
		"interval":            "poll_interval",
		"weeks":               "history_weeks",
		"catalog-url":         "catalog_url",
		"telemetry-url":       "telemetry_url",
		"service-catalog-url": "service_catalog_url",
		"broker":              "broker_address",
		"alarms-topic":        "alarms_topic",
		"metrics-addr":        "metrics_addr",
		"log-level":           "log_level",
		"once":                "once",
	}
	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("toml")
	path := *configFile
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("trendalarm")
		v.AddConfigPath("/etc/trendalarm")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, fmt.Errorf("failed to read config file: %w", err))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, fmt.Errorf("failed to unmarshal config: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("history_weeks", DefaultHistoryWeeks)
	v.SetDefault("horizon", DefaultHorizon)
	v.SetDefault("catalog_url", "")
	v.SetDefault("telemetry_url", "")
	v.SetDefault("service_catalog_url", "")
	// empty means service catalog, then the alarm package default
	v.SetDefault("alarms_topic", "")
	v.SetDefault("broker_address", "")
	v.SetDefault("mqtt_client_id", DefaultMQTTClientID)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("pid_file", DefaultPIDFile)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("once", false)

	v.SetDefault("marker.backend", DefaultMarkerBackend)
	v.SetDefault("marker.path", DefaultMarkerPath)
	v.SetDefault("marker.redis_addr", DefaultRedisAddr)
	v.SetDefault("marker.redis_key", DefaultRedisKey)

	v.SetDefault("audit.backend", DefaultAuditBackend)
	v.SetDefault("audit.success_log", DefaultSuccessLog)
	v.SetDefault("audit.error_log", DefaultErrorLog)
	v.SetDefault("audit.db_path", DefaultAuditDBPath)
}

// Validate checks struct constraints and the cross-field rules that the
// validator tags cannot express. All problems are reported together.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result = multierror.Append(result,
					fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	if !LogLevel(c.LogLevel).IsValid() {
		result = multierror.Append(result,
			errors.New().WithData(errors.ErrInvalidLogLevel, c.LogLevel))
	}

	if c.ServiceCatalogURL == "" {
		if c.CatalogURL == "" {
			result = multierror.Append(result, fmt.Errorf("catalog_url is required without service_catalog_url"))
		}
		if c.TelemetryURL == "" {
			result = multierror.Append(result, fmt.Errorf("telemetry_url is required without service_catalog_url"))
		}
	}

	switch c.Marker.Backend {
	case "file", "sqlite":
		if c.Marker.Path == "" {
			result = multierror.Append(result, fmt.Errorf("marker.path is required for %s backend", c.Marker.Backend))
		}
	case "redis":
		if c.Marker.RedisAddr == "" || c.Marker.RedisKey == "" {
			result = multierror.Append(result, fmt.Errorf("marker.redis_addr and marker.redis_key are required"))
		}
	}

	switch c.Audit.Backend {
	case "file":
		if c.Audit.SuccessLog == "" || c.Audit.ErrorLog == "" {
			result = multierror.Append(result, fmt.Errorf("audit.success_log and audit.error_log are required"))
		}
	case "sqlite":
		if c.Audit.DBPath == "" {
			result = multierror.Append(result, fmt.Errorf("audit.db_path is required for sqlite backend"))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.New().Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}
