package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Pipeline errors
	ErrCatalogUnavailable ErrorCode = "catalog_unavailable"
	ErrDataError          ErrorCode = "data_error"
	ErrInsufficientData   ErrorCode = "insufficient_data"
	ErrPublishFailed      ErrorCode = "publish_failed"
	ErrMarkerIO           ErrorCode = "marker_io_failed"
	ErrAuditWrite         ErrorCode = "audit_write_failed"
	ErrDeviceFailed       ErrorCode = "device_failed"
	ErrDeviceNotFound     ErrorCode = "device_not_found"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrUnavailable:        "Service unavailable",
	ErrInvalidConfig:      "Invalid configuration",
	ErrReadConfig:         "Failed to read configuration",
	ErrInvalidInterval:    "Invalid interval value",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInitFailed:         "Initialization failed",
	ErrShutdownFailed:     "Shutdown failed",
	ErrAlreadyRunning:     "Another instance is already running",
	ErrCatalogUnavailable: "Device catalog unavailable",
	ErrDataError:          "Missing or malformed telemetry",
	ErrInsufficientData:   "Insufficient data for forecast",
	ErrPublishFailed:      "Failed to publish alarm",
	ErrMarkerIO:           "Run marker unavailable",
	ErrAuditWrite:         "Failed to write audit record",
	ErrDeviceFailed:       "Device processing failed",
	ErrDeviceNotFound:     "Device not in catalog",
	ErrOperationFailed:    "Operation failed",
	ErrTimeout:            "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
