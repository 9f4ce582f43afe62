package audit

import (
	"context"
	"time"
)

// Kind separates the success and error logs
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Prediction is one classified forecast day
type Prediction struct {
	Day        int     `json:"day"`
	Prediction float64 `json:"prediction"`
	Status     string  `json:"status"`
}

// VariableResult is the forecast of one variable with the bounds used
type VariableResult struct {
	ThresholdMin *float64     `json:"threshold_min"`
	ThresholdMax *float64     `json:"threshold_max"`
	Predictions  []Prediction `json:"predictions"`
}

// Result is the payload of a success record
type Result struct {
	Forecasts map[string]VariableResult `json:"forecasts"`
	// Skipped maps a variable to the reason it produced no forecast
	Skipped      map[string]string `json:"skipped,omitempty"`
	Alarms       int               `json:"alarms"`
	AlarmsFailed int               `json:"alarms_failed,omitempty"`
}

// Record is one self-contained audit entry
type Record struct {
	Time     time.Time
	RunID    string
	DeviceID string
	Kind     Kind
	Result   *Result
	Error    string
}

// Recorder appends one record per device per executed run. Prior records
// are never modified.
type Recorder interface {
	RecordSuccess(ctx context.Context, runID, deviceID string, result Result) error
	RecordFailure(ctx context.Context, runID, deviceID string, cause error) error
	Close() error
}
