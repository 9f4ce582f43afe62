package threshold_test

import (
	"testing"

	"codeberg.org/mutker/trendalarm/internal/catalog"
	"codeberg.org/mutker/trendalarm/internal/forecast"
	"codeberg.org/mutker/trendalarm/internal/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	bounds := catalog.Bounds(40, 70)

	tests := []struct {
		name      string
		value     float64
		threshold catalog.Threshold
		want      forecast.Status
	}{
		{name: "below", value: 38, threshold: bounds, want: forecast.StatusTooLow},
		{name: "above", value: 70.01, threshold: bounds, want: forecast.StatusTooHigh},
		{name: "at min", value: 40, threshold: bounds, want: forecast.StatusNormal},
		{name: "at max", value: 70, threshold: bounds, want: forecast.StatusNormal},
		{name: "inside", value: 55, threshold: bounds, want: forecast.StatusNormal},
		{name: "no min", value: -1000, threshold: catalog.Threshold{Max: ptr(10)}, want: forecast.StatusNormal},
		{name: "no max", value: 1000, threshold: catalog.Threshold{Min: ptr(10)}, want: forecast.StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, threshold.Classify(tt.value, tt.threshold))
		})
	}
}

func TestEvaluateTooLow(t *testing.T) {
	points := []forecast.Point{
		{DayOffset: 1, Variable: "soil_moisture", Predicted: 38},
	}

	classified, events := threshold.Evaluate("D1",
		map[string]catalog.Threshold{"soil_moisture": catalog.Bounds(40, 70)}, points)

	require.Len(t, classified, 1)
	assert.Equal(t, forecast.StatusTooLow, classified[0].Status)

	require.Len(t, events, 1)
	assert.Equal(t, "D1", events[0].DeviceID)
	assert.Equal(t, "soil_moisture", events[0].Variable)
	assert.Equal(t, 1, events[0].DayOffset)
	assert.Contains(t, events[0].Message(), "too low")
}

func TestEvaluateOneAlarmPerViolatingDay(t *testing.T) {
	points := []forecast.Point{
		{DayOffset: 1, Variable: "temperature", Predicted: 34},
		{DayOffset: 2, Variable: "temperature", Predicted: 36},
		{DayOffset: 3, Variable: "temperature", Predicted: 38},
		{DayOffset: 4, Variable: "temperature", Predicted: 40},
	}

	classified, events := threshold.Evaluate("D1",
		map[string]catalog.Threshold{"temperature": catalog.Bounds(10, 35)}, points)

	require.Len(t, classified, 4)
	assert.Equal(t, forecast.StatusNormal, classified[0].Status)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i+2, ev.DayOffset)
		assert.Equal(t, "too high", ev.Direction)
	}
}

func TestEvaluateSkipsVariablesWithoutThreshold(t *testing.T) {
	points := []forecast.Point{
		{DayOffset: 1, Variable: "light", Predicted: -5},
		{DayOffset: 1, Variable: "temperature", Predicted: 20},
	}

	classified, events := threshold.Evaluate("D1",
		map[string]catalog.Threshold{"temperature": catalog.Bounds(10, 35)}, points)

	require.Len(t, classified, 1)
	assert.Equal(t, "temperature", classified[0].Variable)
	assert.Empty(t, events)
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	points := []forecast.Point{{DayOffset: 1, Variable: "temperature", Predicted: 50}}

	threshold.Evaluate("D1", map[string]catalog.Threshold{"temperature": catalog.Bounds(10, 35)}, points)

	assert.Empty(t, points[0].Status)
}
