package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps err with a code and message while keeping err reachable
// through Unwrap, errors.Is and errors.As.
//
// If err already carries a PlatformError its classification is kept.
// Returns nil if err is nil.
//
// Example:
//
//	if err := ctx.Err(); err != nil {
//	    return errors.Wrap(err, errors.CodeCanceled, "refill canceled")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var platformErr PlatformError
	if errors.As(err, &platformErr) {
		classification = platformErr.Classification()
	}

	return &platformError{
		code:           code,
		classification: classification,
		message:        message,
		cause:          err,
	}
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) PlatformError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}
