package forecast_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/forecast"
	"codeberg.org/mutker/trendalarm/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 10, 5, 12, 0, 0, 0, time.UTC)

func daily(variable string, values ...float64) []telemetry.Sample {
	samples := make([]telemetry.Sample, len(values))
	for i, v := range values {
		samples[i] = telemetry.Sample{
			Timestamp: start.AddDate(0, 0, i),
			Values:    map[string]float64{variable: v},
		}
	}

	return samples
}

func TestForecastLinearSeries(t *testing.T) {
	// soil_moisture(day) = 50 - 2*day for day 0..5
	samples := daily("soil_moisture", 50, 48, 46, 44, 42, 40)

	points, err := forecast.Forecast(samples, "soil_moisture", forecast.DefaultHorizon)
	require.NoError(t, err)
	require.Len(t, points, 7)

	// day offset 1 past the window is absolute day 6
	assert.Equal(t, 1, points[0].DayOffset)
	assert.InDelta(t, 38.0, points[0].Predicted, 1e-9)
	assert.InDelta(t, 26.0, points[6].Predicted, 1e-9)

	for i, p := range points {
		assert.Equal(t, i+1, p.DayOffset)
		assert.Equal(t, "soil_moisture", p.Variable)
		assert.Empty(t, p.Status)
	}
}

func TestForecastRisingTemperature(t *testing.T) {
	// 20 to 34 over seven days
	values := make([]float64, 7)
	for i := range values {
		values[i] = 20 + float64(i)*14/6
	}
	samples := daily("temperature", values...)

	points, err := forecast.Forecast(samples, "temperature", 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 36.33, points[0].Predicted, 0.01)
}

func TestForecastInsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		samples []telemetry.Sample
	}{
		{name: "no samples"},
		{name: "one sample", samples: daily("light", 10)},
		{
			name: "one valid among missing",
			samples: []telemetry.Sample{
				{Timestamp: start, Values: map[string]float64{"light": 10}},
				{Timestamp: start.Add(time.Hour), Values: map[string]float64{"temperature": 20}},
				{Timestamp: start.Add(2 * time.Hour), Values: map[string]float64{}},
			},
		},
		{
			name: "single instant",
			samples: []telemetry.Sample{
				{Timestamp: start, Values: map[string]float64{"light": 10}},
				{Timestamp: start, Values: map[string]float64{"light": 12}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := forecast.Forecast(tt.samples, "light", forecast.DefaultHorizon)
			require.Error(t, err)
			assert.Nil(t, points)
			assert.True(t, errors.HasCode(err, errors.ErrInsufficientData))
			assert.True(t, errors.IsDataError(err))
		})
	}
}

func TestForecastSkipsMissingValues(t *testing.T) {
	samples := daily("light", 100, 110, 120, 130)
	samples[1].Values = map[string]float64{"temperature": 1}

	points, err := forecast.Forecast(samples, "light", 2)
	require.NoError(t, err)
	assert.InDelta(t, 140.0, points[0].Predicted, 1e-9)
	assert.InDelta(t, 150.0, points[1].Predicted, 1e-9)
}

func TestForecastUsesFractionalDays(t *testing.T) {
	samples := []telemetry.Sample{
		{Timestamp: start, Values: map[string]float64{"light": 0}},
		{Timestamp: start.Add(12 * time.Hour), Values: map[string]float64{"light": 1}},
	}

	line, err := forecast.Fit(forecast.Pairs(samples, "light"))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, line.Slope, 1e-9)

	points, err := forecast.Forecast(samples, "light", 1)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, points[0].Predicted, 1e-9)
}

func TestForecastDeterministic(t *testing.T) {
	samples := daily("temperature", 20.1, 19.7, 22.3, 21.9, 23.4)

	first, err := forecast.Forecast(samples, "temperature", 7)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := forecast.Forecast(samples, "temperature", 7)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestForecastRejectsBadHorizon(t *testing.T) {
	_, err := forecast.Forecast(daily("light", 1, 2), "light", 0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
}
