package errors

// PlatformError extends the standard error interface with a code, a retry
// classification and attached metadata.
//
// Values are immutable. Helpers that "modify" an error return a new one.
type PlatformError interface {
	error

	// Code returns the error code identifying the failure category.
	Code() ErrorCode

	// Classification reports whether retrying the operation may succeed.
	Classification() ErrorClassification

	// Message returns the human-readable message without the cause.
	Message() string

	// Context returns a copy of the attached metadata, or nil.
	Context() map[string]interface{}

	// Unwrap returns the wrapped cause, or nil.
	Unwrap() error
}
