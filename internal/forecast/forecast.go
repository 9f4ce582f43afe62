package forecast

import (
	"fmt"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/telemetry"
)

const (
	DefaultHorizon = 7

	secondsPerDay = 86400.0
)

// Status classifies a forecast point against its threshold
type Status string

const (
	StatusNormal  Status = "normal"
	StatusTooLow  Status = "too_low"
	StatusTooHigh Status = "too_high"
)

// Point is one predicted day. Status is empty until evaluated.
type Point struct {
	DayOffset int
	Variable  string
	Predicted float64
	Status    Status
}

// Line is a fitted trend, value = Intercept + Slope*day
type Line struct {
	Slope     float64
	Intercept float64
}

// At returns the trend value at day x
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// Pair is one (elapsed day, value) observation
type Pair struct {
	Day   float64
	Value float64
}

// Pairs builds observations for variable, measuring elapsed days from the
// earliest sample. Samples without the variable are dropped.
func Pairs(samples []telemetry.Sample, variable string) []Pair {
	if len(samples) == 0 {
		return nil
	}

	origin := samples[0].Timestamp
	for _, s := range samples[1:] {
		if s.Timestamp.Before(origin) {
			origin = s.Timestamp
		}
	}

	pairs := make([]Pair, 0, len(samples))
	for _, s := range samples {
		v, ok := s.Value(variable)
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{
			Day:   s.Timestamp.Sub(origin).Seconds() / secondsPerDay,
			Value: v,
		})
	}

	return pairs
}

// Fit computes the ordinary least-squares line through pairs. It needs at
// least two pairs spread over more than one instant.
func Fit(pairs []Pair) (Line, error) {
	errFactory := errors.New()

	if len(pairs) < 2 {
		return Line{}, errFactory.WithMessage(errors.ErrInsufficientData,
			fmt.Sprintf("need at least 2 valid samples, got %d", len(pairs)))
	}

	n := float64(len(pairs))
	var sumX, sumY float64
	for _, p := range pairs {
		sumX += p.Day
		sumY += p.Value
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, p := range pairs {
		dx := p.Day - meanX
		sxx += dx * dx
		sxy += dx * (p.Value - meanY)
	}

	if sxx == 0 {
		return Line{}, errFactory.WithMessage(errors.ErrInsufficientData,
			"all samples share one timestamp")
	}

	slope := sxy / sxx

	return Line{Slope: slope, Intercept: meanY - slope*meanX}, nil
}

// Forecast fits a trend for variable and predicts days 1..horizon past the
// last observed day.
func Forecast(samples []telemetry.Sample, variable string, horizon int) ([]Point, error) {
	if horizon < 1 {
		return nil, errors.New().WithMessage(errors.ErrInvalidArgument,
			fmt.Sprintf("horizon must be positive, got %d", horizon))
	}

	pairs := Pairs(samples, variable)

	line, err := Fit(pairs)
	if err != nil {
		return nil, err
	}

	last := pairs[0].Day
	for _, p := range pairs[1:] {
		if p.Day > last {
			last = p.Day
		}
	}

	points := make([]Point, 0, horizon)
	for day := 1; day <= horizon; day++ {
		points = append(points, Point{
			DayOffset: day,
			Variable:  variable,
			Predicted: line.At(last + float64(day)),
		})
	}

	return points, nil
}
