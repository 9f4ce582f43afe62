package alarm

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultTopic  = "plant_care/alarms"
	DefaultBroker = "tcp://localhost:1883"
)

// Event is a forecast point that left its safe range
type Event struct {
	DeviceID  string
	Variable  string
	DayOffset int
	Predicted float64
	// Direction is "too low" or "too high"
	Direction string
}

// Message renders the human readable alarm text
func (e Event) Message() string {
	return fmt.Sprintf("[Prediction Alarm] %s - %s will be %s (Day %d: %s)",
		e.DeviceID, e.Variable, e.Direction, e.DayOffset, FormatValue(e.Predicted))
}

// Payload is the JSON body published for an Event
type Payload struct {
	DeviceID string `json:"device_id"`
	Message  string `json:"message"`
}

// Publisher delivers alarm events at most once
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Round rounds v to two decimals
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatValue renders v rounded to two decimals, keeping one decimal place
// for whole numbers
func FormatValue(v float64) string {
	s := strconv.FormatFloat(Round(v), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}

	return s
}

// BrokerURL adds the tcp scheme and default port when missing
func BrokerURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return DefaultBroker
	}

	if !strings.Contains(address, "://") {
		address = "tcp://" + address
	}

	hostPart := address[strings.Index(address, "://")+3:]
	if !strings.Contains(hostPart, ":") {
		address += ":1883"
	}

	return address
}
