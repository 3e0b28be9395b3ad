package core

import (
	"errors"
	"io/fs"
)

var (
	// ErrNotExist is returned when a file does not exist.
	// Re-exported from io/fs for convenience.
	ErrNotExist = fs.ErrNotExist

	// ErrExist is returned when a file already exists.
	ErrExist = fs.ErrExist

	// ErrPermission is returned when permission is denied.
	ErrPermission = fs.ErrPermission

	// ErrClosed is returned when an operation is performed on a closed file.
	ErrClosed = fs.ErrClosed

	// ErrUnsupported is returned when a provider cannot perform an operation,
	// for example appending to an object in an S3 bucket.
	ErrUnsupported = errors.New("operation not supported")
)
