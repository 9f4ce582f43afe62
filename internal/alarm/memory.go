package alarm

import (
	"context"
	"sync"
)

// Recorder is an in-memory Publisher for tests and dry runs
type Recorder struct {
	mu     sync.Mutex
	events []Event
	// Err is returned from every Publish when set
	Err error
}

// NewRecorder returns an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)

	return nil
}

func (*Recorder) Close() {}

// Events returns a copy of the published events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}
