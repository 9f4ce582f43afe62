package audit

import "codeberg.org/mutker/trendalarm/internal/errors"

const (
	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("audit_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("audit_schema_validation_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed
	ErrWrite        = errors.ErrAuditWrite
)
