package pipeline

import (
	"context"
	"time"

	"codeberg.org/mutker/trendalarm/internal/audit"
)

// State is the orchestrator's position in its poll cycle
type State string

const (
	StateIdle       State = "idle"
	StateCheckGuard State = "check_guard"
	StateRunBatch   State = "run_batch"
	StateSkipBatch  State = "skip_batch"
	StateSleeping   State = "sleeping"
)

// Outcome of one poll cycle
type Outcome string

const (
	OutcomeRun     Outcome = "run"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Guard gates batches to once per ISO week
type Guard interface {
	ShouldRun(ctx context.Context) bool
	Rollback(ctx context.Context)
}

// DeviceReport is the outcome of one device in a batch
type DeviceReport struct {
	DeviceID     string
	Result       *audit.Result
	Err          error
	Alarms       int
	AlarmsFailed int
	// AuditErr is set when the audit record could not be written
	AuditErr error
}

// Succeeded reports whether the device produced a forecast
func (d DeviceReport) Succeeded() bool {
	return d.Err == nil
}

// Report summarizes one poll cycle
type Report struct {
	RunID    string
	Outcome  Outcome
	Err      error
	Devices  []DeviceReport
	Started  time.Time
	Finished time.Time
}

// Failures counts devices recorded as failed
func (r Report) Failures() int {
	n := 0
	for _, d := range r.Devices {
		if !d.Succeeded() {
			n++
		}
	}

	return n
}
