package textio

import (
	"context"
	"io/fs"

	"github.com/jmgilman/go/textio/errors"
)

var (
	// ErrClosed is returned by operations on a closed Reader or Writer.
	// It matches fs.ErrClosed with errors.Is.
	ErrClosed error = errors.Wrap(fs.ErrClosed, errors.CodeClosed, "text stream is closed")

	// ErrOperationInProgress is returned when an operation is issued while
	// another operation on the same Reader or Writer has not completed.
	ErrOperationInProgress error = errors.New(errors.CodeInProgress, "another operation is in progress on this text stream")
)

// invalidArgument builds an INVALID_ARGUMENT error carrying the given
// key/value pairs as context.
func invalidArgument(msg string, kv ...any) error {
	err := errors.New(errors.CodeInvalidArgument, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		err = errors.WithContext(err, key, kv[i+1])
	}
	return err
}

// checkRange validates an (index, count) window over a buffer of length n.
func checkRange(n, index, count int) error {
	switch {
	case index < 0:
		return invalidArgument("index must be non-negative", "index", index)
	case count < 0:
		return invalidArgument("count must be non-negative", "count", count)
	case n-index < count:
		return invalidArgument("index and count exceed the buffer", "index", index, "count", count, "length", n)
	}
	return nil
}

// canceled wraps the context's error.
func canceled(ctx context.Context, op string) error {
	return errors.Wrapf(ctx.Err(), errors.CodeCanceled, "%s canceled", op)
}

// malformed wraps a decoder or encoder failure. errors.Is still matches
// the original error.
func malformed(err error, op string) error {
	return errors.Wrapf(err, errors.CodeMalformedInput, "%s failed", op)
}
