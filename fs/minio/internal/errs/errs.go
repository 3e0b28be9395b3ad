// Package errs translates MinIO errors for the minio filesystem.
package errs

import (
	"fmt"
	"io/fs"

	"github.com/jmgilman/go/textio/errors"
	"github.com/minio/minio-go/v7"
)

// Translate converts MinIO error responses to io/fs sentinels where one
// applies, and wraps anything else as an IO_FAILURE platform error.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fs.ErrNotExist
	case "AccessDenied":
		return fs.ErrPermission
	}

	return errors.Wrap(err, errors.CodeIO, "minio request failed")
}

// PathError wraps err in a fs.PathError for the given operation and path.
// If err is nil, returns nil.
func PathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// PathErrorf creates a fs.PathError with a formatted error message.
func PathErrorf(op, path, format string, args ...interface{}) error {
	return &fs.PathError{Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}
