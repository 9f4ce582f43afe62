package runguard

import (
	"context"
	"os"
	"path/filepath"

	"codeberg.org/mutker/trendalarm/internal/errors"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

type fileStore struct {
	path string
}

// NewFileStore keeps the marker as a single line of text at path
func NewFileStore(path string) (MarkerStore, error) {
	if path == "" {
		return nil, errors.New().WithMessage(errors.ErrInvalidArgument, "marker path is empty")
	}

	return &fileStore{path: path}, nil
}

func (s *fileStore) Load(_ context.Context) (Week, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Week{}, false, nil
	}
	if err != nil {
		return Week{}, false, err
	}

	week, err := ParseWeek(string(data))
	if err != nil {
		return Week{}, false, err
	}

	return week, true, nil
}

func (s *fileStore) Save(_ context.Context, week Week) error {
	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirPerm); err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated marker.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(week.String()+"\n"), defaultFilePerm); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

func (*fileStore) Close() error {
	return nil
}
