package telemetry

import (
	"context"
	"time"
)

// Fetcher retrieves a device's recent telemetry. Ready reports whether the
// telemetry source can be located at all, so callers can fail a whole batch
// before touching any device.
type Fetcher interface {
	Ready(ctx context.Context) error
	Fetch(ctx context.Context, deviceID string, windowDays int) ([]Sample, error)
}

// Sample is one telemetry reading. A variable absent from Values was
// missing in the source.
type Sample struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Value returns the variable's value and whether it is present
func (s Sample) Value(variable string) (float64, bool) {
	v, ok := s.Values[variable]
	return v, ok
}
