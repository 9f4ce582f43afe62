package audit

import (
	"codeberg.org/mutker/trendalarm/internal/config"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
)

// Open builds the recorder selected by cfg
func Open(cfg config.AuditConfig) (Recorder, error) {
	switch cfg.Backend {
	case "file":
		return NewFileRecorder(cfg.SuccessLog, cfg.ErrorLog)
	case "sqlite":
		return NewSQLiteRecorder(cfg.DBPath, logger.Default())
	default:
		return nil, errors.New().WithData(errors.ErrInvalidConfig, "unknown audit backend "+cfg.Backend)
	}
}
