package textio

import "io"

// TextReader is the read side shared by *Reader and NullReader.
type TextReader interface {
	Peek() (rune, error)
	ReadRune() (ch rune, size int, err error)
	ReadInto(buf []rune, index, count int) (int, error)
	ReadLine() (string, error)
	ReadToEnd() (string, error)
	Close() error
}

// TextWriter is the write side shared by *Writer and NullWriter.
type TextWriter interface {
	io.Writer
	io.StringWriter
	WriteRune(ch rune) error
	WriteLine(s string) error
	Flush() error
	Close() error
}

// NullReader is always at end of stream. It is stateless and safe for
// concurrent use.
var NullReader TextReader = nullReader{}

// NullWriter discards everything written to it. It is stateless and safe
// for concurrent use.
var NullWriter TextWriter = nullWriter{}

type nullReader struct{}

func (nullReader) Peek() (rune, error)          { return 0, io.EOF }
func (nullReader) ReadRune() (rune, int, error) { return 0, 0, io.EOF }
func (nullReader) ReadLine() (string, error)    { return "", io.EOF }
func (nullReader) ReadToEnd() (string, error)   { return "", nil }
func (nullReader) Close() error                 { return nil }

func (nullReader) ReadInto(buf []rune, index, count int) (int, error) {
	if err := checkRange(len(buf), index, count); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	return 0, io.EOF
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error)       { return len(p), nil }
func (nullWriter) WriteString(s string) (int, error) { return len(s), nil }
func (nullWriter) WriteRune(rune) error              { return nil }
func (nullWriter) WriteLine(string) error            { return nil }
func (nullWriter) Flush() error                      { return nil }
func (nullWriter) Close() error                      { return nil }

var (
	_ TextReader = (*Reader)(nil)
	_ TextWriter = (*Writer)(nil)
)
