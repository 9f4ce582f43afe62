package errors

// ErrorCode identifies a class of failure. Handling in the pipeline branches
// on codes, never on message text.
type ErrorCode string

// Error is an error carrying a code and optional context data
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
	// Is matches any Error with the same code
	Is(target error) bool
}

// Factory creates coded errors
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}

var _ Error = (*appError)(nil)
