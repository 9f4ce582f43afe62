package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/trendalarm/internal/errors"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644

	blockHeader = "=== %s | device=%s | run=%s ===\n"
)

type fileRecorder struct {
	mu         sync.Mutex
	successLog string
	errorLog   string
	now        func() time.Time
}

// NewFileRecorder appends text blocks to two log files. Each block carries a
// header line with timestamp, device and run id followed by the body and a
// blank line.
func NewFileRecorder(successLog, errorLog string) (Recorder, error) {
	errFactory := errors.New()

	if successLog == "" || errorLog == "" {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "audit log paths must be set")
	}

	for _, path := range []string{successLog, errorLog} {
		if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
			return nil, errFactory.Wrap(errors.ErrInitFailed, err)
		}
	}

	return &fileRecorder{
		successLog: successLog,
		errorLog:   errorLog,
		now:        time.Now,
	}, nil
}

func (r *fileRecorder) RecordSuccess(_ context.Context, runID, deviceID string, result Result) error {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.New().Wrap(ErrWrite, err)
	}

	return r.append(r.successLog, runID, deviceID, string(body))
}

func (r *fileRecorder) RecordFailure(_ context.Context, runID, deviceID string, cause error) error {
	return r.append(r.errorLog, runID, deviceID, errorText(cause))
}

func (*fileRecorder) Close() error {
	return nil
}

func (r *fileRecorder) append(path, runID, deviceID, body string) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	block := fmt.Sprintf(blockHeader, r.now().UTC().Format(time.RFC3339), deviceID, runID) + body + "\n\n"

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}

	if _, err := f.WriteString(block); err != nil {
		f.Close()
		return errFactory.Wrap(ErrWrite, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return errFactory.Wrap(ErrWrite, err)
	}

	if err := f.Close(); err != nil {
		return errFactory.Wrap(ErrWrite, err)
	}

	return nil
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}

	return err.Error()
}
