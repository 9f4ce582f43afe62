package catalog

import (
	"context"
	"fmt"
	"sort"
)

// Threshold is the safe range of one variable. A nil bound is unbounded.
type Threshold struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Bounds returns a Threshold with both bounds set
func Bounds(minValue, maxValue float64) Threshold {
	return Threshold{Min: &minValue, Max: &maxValue}
}

func (t Threshold) validate() error {
	if t.Min == nil && t.Max == nil {
		return fmt.Errorf("threshold has neither min nor max")
	}
	if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
		return fmt.Errorf("threshold min %v exceeds max %v", *t.Min, *t.Max)
	}

	return nil
}

// Device is read-only to the pipeline and fetched fresh every batch
type Device struct {
	ID         string
	Thresholds map[string]Threshold
}

// Variables returns the monitored variable names in a stable order
func (d Device) Variables() []string {
	vars := make([]string, 0, len(d.Thresholds))
	for name := range d.Thresholds {
		vars = append(vars, name)
	}
	sort.Strings(vars)

	return vars
}

// Lister enumerates devices once per batch
type Lister interface {
	ListDevices(ctx context.Context) ([]Device, error)
}

// Locator resolves an endpoint URL at call time
type Locator func(ctx context.Context) (string, error)

// Static returns a Locator for a fixed URL
func Static(url string) Locator {
	return func(context.Context) (string, error) {
		return url, nil
	}
}
