package audit

import (
	"context"
	"sync"
	"time"
)

// Memory keeps records in process, for tests
type Memory struct {
	mu      sync.Mutex
	records []Record
	// Err is returned from every write when set
	Err error
	// SuccessErr is returned from RecordSuccess only
	SuccessErr error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordSuccess(_ context.Context, runID, deviceID string, result Result) error {
	m.mu.Lock()
	err := m.SuccessErr
	m.mu.Unlock()
	if err != nil {
		return err
	}

	return m.add(Record{RunID: runID, DeviceID: deviceID, Kind: KindSuccess, Result: &result})
}

func (m *Memory) RecordFailure(_ context.Context, runID, deviceID string, cause error) error {
	return m.add(Record{RunID: runID, DeviceID: deviceID, Kind: KindFailure, Error: errorText(cause)})
}

func (*Memory) Close() error {
	return nil
}

func (m *Memory) add(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	rec.Time = time.Now()
	m.records = append(m.records, rec)

	return nil
}

// Records returns a copy of everything recorded
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Record(nil), m.records...)
}

// ByKind filters records
func (m *Memory) ByKind(kind Kind) []Record {
	var out []Record
	for _, rec := range m.Records() {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}

	return out
}
