// Package errors provides structured error handling for textio.
//
// Every failure textio itself originates carries an ErrorCode and a
// classification. Failures of the underlying byte source or sink, and of
// the encoding collaborator, are passed through untouched so callers can
// match them with the standard errors.Is and errors.As.
//
// # Codes used by the codec
//
//   - CodeInvalidArgument: negative counts, ranges past the buffer, nil sources
//   - CodeClosed: operations after Close
//   - CodeInProgress: a second operation while one is outstanding
//   - CodeCanceled: the caller's context ended the operation
//
// # Quick Start
//
//	err := errors.Newf(errors.CodeInvalidArgument, "count must be non-negative, got %d", count)
//	err = errors.WithContext(err, "count", count)
//
//	if errors.GetCode(err) == errors.CodeInProgress {
//	    // wait for the pending operation, then retry
//	}
//
// Standard library helpers keep working through the chain:
//
//	closed := errors.Wrap(fs.ErrClosed, errors.CodeClosed, "reader is closed")
//	stderrors.Is(closed, fs.ErrClosed) // true
package errors
