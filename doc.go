// Package textio reads and writes character text over byte streams.
//
// A Reader decodes a byte source into runes through a fixed-size buffer.
// It strips the encoding's preamble and, unless disabled, detects the
// UTF-8, UTF-16 and UTF-32 byte-order marks, switching encoding when one
// is found. A Writer encodes text to a byte sink, writing the preamble
// once before the first bytes.
//
// # Quick Start
//
//	r, err := textio.NewReader(src)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for line, err := range r.Lines() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(line)
//	}
//
// Writing UTF-16 with a byte-order mark and CRLF line endings:
//
//	w, err := textio.NewWriter(dst,
//	    textio.WithEncoding(textio.UTF16LE),
//	    textio.WithNewLine("\r\n"),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := w.WriteLine("hello"); err != nil {
//	    return err
//	}
//	return w.Close()
//
// # Files
//
// OpenText, CreateText and AppendText open streams over any
// fs/core filesystem; ReadAllText, WriteAllLines and friends wrap the
// common one-shot cases.
//
// # Concurrency
//
// A Reader or Writer runs one operation at a time. The *Async methods
// start an operation on a new goroutine and return a Pending; until it
// completes every other call on the same instance fails with
// ErrOperationInProgress instead of blocking.
//
// # Errors
//
// Failures raised by this package carry an errors.ErrorCode from
// github.com/jmgilman/go/textio/errors. Source and sink errors are
// returned as is; decoder and encoder failures are wrapped with
// CodeMalformedInput and still match the original error with errors.Is.
package textio
