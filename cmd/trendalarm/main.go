package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/trendalarm/internal/alarm"
	"codeberg.org/mutker/trendalarm/internal/audit"
	"codeberg.org/mutker/trendalarm/internal/catalog"
	"codeberg.org/mutker/trendalarm/internal/client"
	"codeberg.org/mutker/trendalarm/internal/config"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
	"codeberg.org/mutker/trendalarm/internal/metrics"
	"codeberg.org/mutker/trendalarm/internal/pid"
	"codeberg.org/mutker/trendalarm/internal/pipeline"
	"codeberg.org/mutker/trendalarm/internal/registry"
	"codeberg.org/mutker/trendalarm/internal/runguard"
	"codeberg.org/mutker/trendalarm/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	if err := run(cfg); err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			logger.ErrorWithCode(coded).Msg("trendalarm stopped")
		} else {
			logger.Error().Err(err).Msg("trendalarm stopped")
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.PIDFile != "" {
		if err := pid.Write(cfg.PIDFile); err != nil {
			return err
		}
		defer func() {
			if err := pid.Remove(cfg.PIDFile); err != nil {
				logger.Warn().Err(err).Msg("Failed to remove PID file")
			}
		}()
	}

	httpClient := client.New(cfg.Timeout())

	var reg *registry.Registry
	if cfg.ServiceCatalogURL != "" {
		reg = registry.New(httpClient, cfg.ServiceCatalogURL, 0)
	}

	store, err := runguard.Open(ctx, cfg.Marker)
	if err != nil {
		return err
	}
	guard := runguard.New(store)
	defer guard.Close()

	recorder, err := audit.Open(cfg.Audit)
	if err != nil {
		return err
	}
	defer recorder.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	publisher := alarm.NewMQTT(
		reg.ResolveOptional(cfg.BrokerAddress, registry.ServiceBrokerAddress),
		reg.ResolveOptional(cfg.AlarmsTopic, registry.ServiceAlarmsTopic),
		alarm.WithClientID(cfg.MQTTClientID),
		alarm.WithTimeout(cfg.Timeout()),
	)
	defer publisher.Close()

	orch := pipeline.New(*cfg, pipeline.Deps{
		Guard:     guard,
		Devices:   catalog.New(httpClient, reg.Resolve(cfg.CatalogURL, registry.ServiceDeviceCatalog)),
		Telemetry: telemetry.New(httpClient, reg.Resolve(cfg.TelemetryURL, registry.ServiceTelemetryAdaptor)),
		Alarms:    publisher,
		Audit:     recorder,
		Metrics:   m,
	})

	if cfg.MetricsAddr != "" {
		forecastRoute := metrics.Route{
			Pattern: pipeline.ForecastPath,
			Handler: pipeline.ForecastHandler(orch, cfg.WindowDays()),
		}
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, promRegistry, forecastRoute); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	logger.Info().
		Int("interval", cfg.PollInterval).
		Int("window_days", cfg.WindowDays()).
		Int("horizon", cfg.Horizon).
		Str("marker", cfg.Marker.Backend).
		Str("audit", cfg.Audit.Backend).
		Bool("once", cfg.Once).
		Msg("trendalarm started")

	if cfg.Once {
		report := orch.RunOnce(ctx)
		if report.Outcome == pipeline.OutcomeFailed {
			return report.Err
		}
		return nil
	}

	err = orch.Run(ctx)
	logger.Info().Msg("Exiting...")

	return err
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
