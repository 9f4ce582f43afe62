package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/trendalarm/internal/errors"
)

const defaultFileName = "trendalarm.pid"

// Path returns path, or a file in the temp dir when path is empty
func Path(path string) string {
	if path == "" {
		return filepath.Join(os.TempDir(), defaultFileName)
	}

	return path
}

// Write writes the current process ID to the PID file at path. It fails with
// ErrAlreadyRunning when the file names a live process.
func Write(path string) error {
	errFactory := errors.New()
	path = Path(path)

	if bytes, err := os.ReadFile(path); err == nil {
		// PID file exists, check if the process is running
		if running(strings.TrimSpace(string(bytes))) {
			return errFactory.WithMessage(errors.ErrAlreadyRunning, "another instance holds "+path)
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file at path
func Remove(path string) error {
	errFactory := errors.New()
	path = Path(path)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// running treats an unparsable PID as stale
func running(raw string) bool {
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
