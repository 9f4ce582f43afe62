package threshold

import (
	"codeberg.org/mutker/trendalarm/internal/alarm"
	"codeberg.org/mutker/trendalarm/internal/catalog"
	"codeberg.org/mutker/trendalarm/internal/forecast"
)

// Classify returns the status of value against t. A nil bound never trips.
func Classify(value float64, t catalog.Threshold) forecast.Status {
	switch {
	case t.Min != nil && value < *t.Min:
		return forecast.StatusTooLow
	case t.Max != nil && value > *t.Max:
		return forecast.StatusTooHigh
	default:
		return forecast.StatusNormal
	}
}

// Direction is the alarm wording for a status
func Direction(s forecast.Status) string {
	switch s {
	case forecast.StatusTooLow:
		return "too low"
	case forecast.StatusTooHigh:
		return "too high"
	default:
		return ""
	}
}

// Evaluate classifies points and returns one alarm per non-normal point.
// Points whose variable has no threshold are dropped. Consecutive violating
// days each raise their own alarm.
func Evaluate(deviceID string, thresholds map[string]catalog.Threshold, points []forecast.Point) ([]forecast.Point, []alarm.Event) {
	classified := make([]forecast.Point, 0, len(points))
	var events []alarm.Event

	for _, p := range points {
		t, ok := thresholds[p.Variable]
		if !ok {
			continue
		}

		p.Status = Classify(p.Predicted, t)
		classified = append(classified, p)

		if p.Status == forecast.StatusNormal {
			continue
		}

		events = append(events, alarm.Event{
			DeviceID:  deviceID,
			Variable:  p.Variable,
			DayOffset: p.DayOffset,
			Predicted: p.Predicted,
			Direction: Direction(p.Status),
		})
	}

	return classified, events
}
