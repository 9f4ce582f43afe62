package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/trendalarm/internal/alarm"
	"codeberg.org/mutker/trendalarm/internal/audit"
	"codeberg.org/mutker/trendalarm/internal/catalog"
	"codeberg.org/mutker/trendalarm/internal/config"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/forecast"
	"codeberg.org/mutker/trendalarm/internal/logger"
	"codeberg.org/mutker/trendalarm/internal/metrics"
	"codeberg.org/mutker/trendalarm/internal/telemetry"
	"codeberg.org/mutker/trendalarm/internal/threshold"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Guard     Guard
	Devices   catalog.Lister
	Telemetry telemetry.Fetcher
	Alarms    alarm.Publisher
	Audit     audit.Recorder
	Metrics   *metrics.Metrics
}

// Orchestrator runs the weekly-gated batch on a fixed poll interval. All work
// happens sequentially on the calling goroutine.
type Orchestrator struct {
	deps       Deps
	interval   time.Duration
	windowDays int
	horizon    int
	log        logger.Logger
	newRunID   func() string

	mu    sync.Mutex
	state State
}

type Option func(*Orchestrator)

// WithLogger overrides the package logger
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithRunID overrides uuid run ids
func WithRunID(f func() string) Option {
	return func(o *Orchestrator) {
		o.newRunID = f
	}
}

func New(cfg config.Config, deps Deps, opts ...Option) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}

	horizon := cfg.Horizon
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}

	o := &Orchestrator{
		deps:       deps,
		interval:   cfg.PollEvery(),
		windowDays: cfg.WindowDays(),
		horizon:    horizon,
		log:        logger.Default(),
		newRunID:   uuid.NewString,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// State returns the current position in the poll cycle
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()

	o.log.Debug().Str("state", string(s)).Msg("Orchestrator state")
}

// Run polls until ctx is cancelled. The first cycle starts immediately.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.interval <= 0 {
		return errors.New().WithData(errors.ErrInvalidInterval, o.interval.String())
	}

	timer := time.NewTimer(o.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			o.setState(StateIdle)
			return nil
		}

		o.RunOnce(ctx)

		o.setState(StateSleeping)
		timer.Reset(o.interval)

		select {
		case <-ctx.Done():
			o.setState(StateIdle)
			return nil
		case <-timer.C:
			o.setState(StateIdle)
		}
	}
}

// RunOnce performs a single poll cycle: check the guard, then run or skip
// the batch.
func (o *Orchestrator) RunOnce(ctx context.Context) Report {
	report := Report{
		RunID:   o.newRunID(),
		Started: time.Now(),
	}

	o.setState(StateCheckGuard)
	if !o.deps.Guard.ShouldRun(ctx) {
		o.setState(StateSkipBatch)
		report.Outcome = OutcomeSkipped
		report.Finished = time.Now()
		o.deps.Metrics.Batch(metrics.BatchSkipped, report.Started)
		return report
	}

	o.setState(StateRunBatch)
	o.runBatch(ctx, &report)
	report.Finished = time.Now()

	switch report.Outcome {
	case OutcomeRun:
		o.deps.Metrics.Batch(metrics.BatchRun, report.Started)
	default:
		o.deps.Metrics.Batch(metrics.BatchFailed, report.Started)
	}

	return report
}

func (o *Orchestrator) runBatch(ctx context.Context, report *Report) {
	log := o.log

	devices, err := o.deps.Devices.ListDevices(ctx)
	if err != nil {
		o.failBatch(ctx, report, err, "Device catalog unavailable, retrying next cycle")
		return
	}

	if err := o.deps.Telemetry.Ready(ctx); err != nil {
		o.failBatch(ctx, report, errors.New().Wrap(errors.ErrCatalogUnavailable, err),
			"Telemetry adaptor not resolvable, retrying next cycle")
		return
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("devices", len(devices)).
		Int("window_days", o.windowDays).
		Int("horizon", o.horizon).
		Msg("Batch started")

	report.Outcome = OutcomeRun
	for _, dev := range devices {
		if ctx.Err() != nil {
			report.Outcome = OutcomeFailed
			report.Err = ctx.Err()
			log.Warn().
				Str("run_id", report.RunID).
				Int("processed", len(report.Devices)).
				Int("devices", len(devices)).
				Msg("Batch interrupted")
			return
		}

		rep := o.runDevice(ctx, report.RunID, dev)
		report.Devices = append(report.Devices, rep)
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("devices", len(report.Devices)).
		Int("failures", report.Failures()).
		Dur("elapsed", time.Since(report.Started)).
		Msg("Batch finished")
}

// failBatch ends a batch before any device is touched and hands the week
// back to the guard
func (o *Orchestrator) failBatch(ctx context.Context, report *Report, err error, msg string) {
	report.Outcome = OutcomeFailed
	report.Err = err
	o.log.ErrorWithCode(asError(errors.ErrCatalogUnavailable, err)).
		Str("run_id", report.RunID).
		Msg(msg)
	o.deps.Guard.Rollback(ctx)
}

// runDevice processes and records one device. Nothing it does can stop the
// rest of the batch.
func (o *Orchestrator) runDevice(ctx context.Context, runID string, dev catalog.Device) DeviceReport {
	rep := o.evaluateDevice(ctx, dev, o.windowDays)
	o.deps.Metrics.Device(rep.Succeeded())

	if rep.Succeeded() {
		o.log.Info().
			Str("device", dev.ID).
			Int("forecasts", len(rep.Result.Forecasts)).
			Int("alarms", rep.Alarms).
			Int("alarms_failed", rep.AlarmsFailed).
			Msg("Device forecast complete")
	} else {
		o.log.ErrorWithCode(asError(errors.ErrDeviceFailed, rep.Err)).
			Str("device", dev.ID).
			Msg("Device failed")
	}

	rep.AuditErr = o.record(ctx, runID, rep)
	if rep.AuditErr == nil {
		return rep
	}

	o.log.ErrorWithCode(asError(errors.ErrAuditWrite, rep.AuditErr)).
		Str("device", dev.ID).
		Msg("Failed to write audit record")

	if rep.Succeeded() {
		// the device still gets one block, as a failure
		fallback := DeviceReport{
			DeviceID: dev.ID,
			Err:      asError(errors.ErrAuditWrite, rep.AuditErr),
		}
		if err := o.record(ctx, runID, fallback); err != nil {
			o.log.ErrorWithCode(asError(errors.ErrAuditWrite, err)).
				Str("device", dev.ID).
				Msg("Failed to write fallback error record")
		}
	}

	return rep
}

func (o *Orchestrator) record(ctx context.Context, runID string, rep DeviceReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while recording: %v", r)
		}
	}()

	if rep.Succeeded() {
		return o.deps.Audit.RecordSuccess(ctx, runID, rep.DeviceID, *rep.Result)
	}

	return o.deps.Audit.RecordFailure(ctx, runID, rep.DeviceID, rep.Err)
}

// Forecast evaluates a single device on demand over the last windowDays of
// telemetry. Alarms are published as in a batch. Nothing is audited and the
// run guard is not consulted.
func (o *Orchestrator) Forecast(ctx context.Context, deviceID string, windowDays int) (audit.Result, error) {
	errFactory := errors.New()

	if windowDays < 1 {
		return audit.Result{}, errFactory.WithData(errors.ErrInvalidArgument, fmt.Sprintf("window of %d days", windowDays))
	}

	devices, err := o.deps.Devices.ListDevices(ctx)
	if err != nil {
		return audit.Result{}, asError(errors.ErrCatalogUnavailable, err)
	}

	for _, dev := range devices {
		if dev.ID != deviceID {
			continue
		}

		rep := o.evaluateDevice(ctx, dev, windowDays)
		if rep.Err != nil {
			return audit.Result{}, rep.Err
		}

		return *rep.Result, nil
	}

	return audit.Result{}, errFactory.WithData(errors.ErrDeviceNotFound, deviceID)
}

// evaluateDevice runs fetch, forecast, evaluate and publish for one device
func (o *Orchestrator) evaluateDevice(ctx context.Context, dev catalog.Device, windowDays int) (rep DeviceReport) {
	errFactory := errors.New()
	rep.DeviceID = dev.ID

	defer func() {
		if r := recover(); r != nil {
			rep.Result = nil
			rep.Err = errFactory.WithData(errors.ErrDeviceFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	if len(dev.Thresholds) == 0 {
		rep.Err = errFactory.WithMessage(errors.ErrDataError, "no thresholds configured")
		return rep
	}

	samples, err := o.deps.Telemetry.Fetch(ctx, dev.ID, windowDays)
	if err != nil {
		rep.Err = err
		return rep
	}

	result := audit.Result{
		Forecasts: make(map[string]audit.VariableResult),
	}
	var skipped *multierror.Error

	for _, variable := range dev.Variables() {
		points, err := forecast.Forecast(samples, variable, o.horizon)
		if err != nil {
			if result.Skipped == nil {
				result.Skipped = make(map[string]string)
			}
			result.Skipped[variable] = err.Error()
			skipped = multierror.Append(skipped, fmt.Errorf("%s: %w", variable, err))
			continue
		}

		classified, events := threshold.Evaluate(dev.ID, dev.Thresholds, points)
		result.Forecasts[variable] = variableResult(dev.Thresholds[variable], classified)

		for _, p := range classified {
			o.deps.Metrics.Forecast(variable, string(p.Status))
		}

		for _, ev := range events {
			if err := o.deps.Alarms.Publish(ctx, ev); err != nil {
				rep.AlarmsFailed++
				o.deps.Metrics.Alarm(false)
				o.log.ErrorWithCode(asError(errors.ErrPublishFailed, err)).
					Str("device", dev.ID).
					Str("variable", ev.Variable).
					Int("day", ev.DayOffset).
					Msg("Alarm lost")
				continue
			}
			rep.Alarms++
			o.deps.Metrics.Alarm(true)
		}
	}

	if len(result.Forecasts) == 0 {
		rep.Err = errFactory.Wrap(errors.ErrInsufficientData, skipped.ErrorOrNil())
		return rep
	}

	result.Alarms = rep.Alarms
	result.AlarmsFailed = rep.AlarmsFailed
	rep.Result = &result

	return rep
}

func variableResult(t catalog.Threshold, points []forecast.Point) audit.VariableResult {
	vr := audit.VariableResult{
		ThresholdMin: t.Min,
		ThresholdMax: t.Max,
		Predictions:  make([]audit.Prediction, 0, len(points)),
	}

	for _, p := range points {
		vr.Predictions = append(vr.Predictions, audit.Prediction{
			Day:        p.DayOffset,
			Prediction: alarm.Round(p.Predicted),
			Status:     string(p.Status),
		})
	}

	return vr
}

// asError keeps a coded error as is and wraps anything else with code
func asError(code errors.ErrorCode, err error) errors.Error {
	var coded errors.Error
	if errors.As(err, &coded) {
		return coded
	}

	return errors.New().Wrap(code, err)
}
