// Package errors provides the structured error type used across textio.
// It extends Go's standard error handling with error codes, retry
// classification and context metadata.
package errors

// ErrorCode represents a specific error condition.
// Codes are strings so they read well in logs and error messages.
type ErrorCode string

const (
	// Argument errors.

	// CodeInvalidArgument indicates a nil, negative or out-of-range parameter.
	// It is always reported before any buffer is touched.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeInvalidConfig indicates a configuration value that cannot be used.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Lifecycle errors.

	// CodeClosed indicates an operation on a reader, writer or file that has
	// already been closed.
	CodeClosed ErrorCode = "RESOURCE_CLOSED"

	// CodeInProgress indicates a second operation was issued while another
	// one on the same instance had not completed.
	CodeInProgress ErrorCode = "OPERATION_IN_PROGRESS"

	// CodeCanceled indicates the caller's context ended the operation.
	CodeCanceled ErrorCode = "CANCELED"

	// Data errors.

	// CodeMalformedInput indicates bytes that could not be decoded or text
	// that could not be encoded under a strict encoding.
	CodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// Storage errors.

	// CodeIO indicates the underlying byte source or sink failed.
	CodeIO ErrorCode = "IO_FAILURE"

	// CodeNotFound indicates a requested file or encoding does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeUnsupported indicates the backend cannot perform the operation.
	CodeUnsupported ErrorCode = "UNSUPPORTED"

	// System errors.

	// CodeInternal indicates a broken internal invariant.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)
