package textio

import (
	"context"
	stderrors "errors"
	"io"
	"sync/atomic"
	"unicode/utf8"

	"github.com/jmgilman/go/textio/internal/logging"
	"github.com/jmgilman/go/textio/metrics"
)

// flusher is implemented by sinks that buffer, such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// text is accepted by the write path without conversion.
type text interface {
	~string | ~[]byte
}

// Writer encodes text to a byte sink.
//
// Text accumulates as UTF-8 in a fixed buffer and is encoded when the
// buffer fills, on Flush and on Close. The encoding's preamble is written
// once, ahead of the first encoded bytes, unless the sink is an io.Seeker
// already positioned past its start.
//
// A Writer admits one operation at a time. A call made while another call
// or an async operation is outstanding fails with ErrOperationInProgress.
type Writer struct {
	sink  io.Writer
	guard guard

	encoding *Encoding
	encoder  *Encoder

	charBuf []byte // pending UTF-8 text
	charPos int
	byteBuf []byte

	preambleWritten bool
	autoFlush       atomic.Bool
	newLine         atomic.Pointer[string]
	leaveOpen       bool
	closed          bool

	logger  *logging.Logger
	metrics metrics.Recorder
}

// NewWriter returns a Writer encoding to sink.
//
// By default the encoding is UTF8NoBOM, the buffer holds DefaultBufferSize
// bytes of text and lines end with DefaultNewLine. Close closes sink if it
// is an io.Closer, unless WithLeaveOpen(true) is given.
func NewWriter(sink io.Writer, opts ...Option) (*Writer, error) {
	if sink == nil {
		return nil, invalidArgument("sink must not be nil")
	}
	o, err := newOptions(UTF8NoBOM, opts)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		sink:      sink,
		guard:     newGuard(),
		encoding:  o.encoding,
		encoder:   o.encoding.NewEncoder(),
		charBuf:   make([]byte, o.bufferSize),
		byteBuf:   make([]byte, 0, o.encoding.MaxBytesForCharCount(o.bufferSize)+len(o.encoding.preamble)),
		leaveOpen: o.leaveOpen,
		logger:    o.logger.WithOperation("write"),
		metrics:   o.metrics,
	}
	w.autoFlush.Store(o.autoFlush)
	w.newLine.Store(&o.newLine)

	// Appending to existing content must not repeat the preamble.
	if s, ok := sink.(io.Seeker); ok {
		if pos, err := s.Seek(0, io.SeekCurrent); err == nil && pos > 0 {
			w.preambleWritten = true
		}
	}
	return w, nil
}

// Encoding returns the writer's encoding.
func (w *Writer) Encoding() *Encoding {
	return w.encoding
}

// Underlying returns the byte sink.
func (w *Writer) Underlying() io.Writer {
	return w.sink
}

// NewLine returns the terminator WriteLine appends. It is safe to call
// concurrently with any other method.
func (w *Writer) NewLine() string {
	return *w.newLine.Load()
}

// SetNewLine changes the terminator WriteLine appends.
func (w *Writer) SetNewLine(newLine string) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	w.newLine.Store(&newLine)
	return nil
}

// AutoFlush reports whether every write call is followed by a flush. It
// is safe to call concurrently with any other method.
func (w *Writer) AutoFlush() bool {
	return w.autoFlush.Load()
}

// SetAutoFlush turns flushing after every write call on or off. Turning
// it on flushes pending text immediately.
func (w *Writer) SetAutoFlush(autoFlush bool) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	w.autoFlush.Store(autoFlush)
	if autoFlush {
		return w.flush(context.Background(), false, true)
	}
	return nil
}

func (w *Writer) enter() error {
	if err := w.guard.enter(); err != nil {
		return err
	}
	if w.closed {
		w.guard.leave()
		return ErrClosed
	}
	return nil
}

// WriteRune writes a single character. Invalid runes are written as
// U+FFFD.
func (w *Writer) WriteRune(ch rune) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], ch)
	_, err := write(context.Background(), w, buf[:n])
	return err
}

// WriteString writes s. It implements io.StringWriter. On error n counts
// the bytes of s that were buffered; they are written by a later flush.
func (w *Writer) WriteString(s string) (n int, err error) {
	if err := w.enter(); err != nil {
		return 0, err
	}
	defer w.guard.leave()

	return write(context.Background(), w, s)
}

// Write writes p, which is taken to be UTF-8 text. An incomplete sequence
// at the end of p is completed by the next write. It implements
// io.Writer; on error n counts the bytes of p that were buffered.
func (w *Writer) Write(p []byte) (n int, err error) {
	if err := w.enter(); err != nil {
		return 0, err
	}
	defer w.guard.leave()

	return write(context.Background(), w, p)
}

// WriteRunes writes buf[index:index+count].
func (w *Writer) WriteRunes(buf []rune, index, count int) error {
	if err := checkRange(len(buf), index, count); err != nil {
		return err
	}
	if err := w.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	b := make([]byte, 0, count)
	for _, ch := range buf[index : index+count] {
		b = utf8.AppendRune(b, ch)
	}
	_, err := write(context.Background(), w, b)
	return err
}

// WriteLine writes s followed by the line terminator.
func (w *Writer) WriteLine(s string) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	return w.writeLine(context.Background(), s)
}

func (w *Writer) writeLine(ctx context.Context, s string) error {
	if _, err := appendText(ctx, w, s); err != nil {
		return err
	}
	_, err := write(ctx, w, *w.newLine.Load())
	return err
}

// write buffers s and honours auto-flush. It returns how much of s was
// buffered.
func write[T text](ctx context.Context, w *Writer, s T) (int, error) {
	n, err := appendText(ctx, w, s)
	if err != nil {
		return n, err
	}
	if w.autoFlush.Load() {
		return n, w.flush(ctx, false, true)
	}
	return n, nil
}

// appendText copies s into the text buffer, flushing whenever it fills.
// Nothing is buffered if ctx is already done; otherwise the count of
// buffered bytes is returned even when a flush fails part way.
func appendText[T text](ctx context.Context, w *Writer, s T) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, canceled(ctx, "write")
	}

	total := 0
	for len(s) > 0 {
		if w.charPos == len(w.charBuf) {
			if err := w.flush(ctx, false, false); err != nil {
				return total, err
			}
		}
		n := copy(w.charBuf[w.charPos:], s)
		w.charPos += n
		total += n
		s = s[n:]
	}
	return total, nil
}

// flush encodes the buffered text and hands it to the sink in one write.
//
// An interior flush (final false) leaves an incomplete trailing UTF-8
// sequence in the encoder for the next flush; a final flush encodes
// everything. flushSink also flushes a sink that buffers.
func (w *Writer) flush(ctx context.Context, final, flushSink bool) error {
	if err := ctx.Err(); err != nil {
		return canceled(ctx, "flush")
	}

	out := w.byteBuf[:0]
	if !w.preambleWritten {
		out = append(out, w.encoding.preamble...)
	}
	out, err := w.encoder.Encode(out, w.charBuf[:w.charPos], final)
	if err != nil {
		logging.LogFlush(ctx, w.logger, final, 0, err)
		return err
	}
	w.charPos = 0
	w.preambleWritten = true
	w.byteBuf = out[:0]

	if len(out) > 0 {
		n, err := w.sink.Write(out)
		if n > 0 {
			w.metrics.BytesWritten(n)
		}
		if err == nil && n < len(out) {
			err = io.ErrShortWrite
		}
		if err != nil {
			logging.LogFlush(ctx, w.logger, final, n, err)
			return err
		}
	}
	w.metrics.Flushed(final)
	logging.LogFlush(ctx, w.logger, final, len(out), nil)

	if f, ok := w.sink.(flusher); ok && flushSink {
		return f.Flush()
	}
	return nil
}

// Flush encodes all buffered text, including an incomplete trailing
// sequence, writes it to the sink and flushes the sink if it buffers.
// Flushing again without writing in between writes nothing.
func (w *Writer) Flush() error {
	return w.FlushContext(context.Background())
}

// FlushContext is Flush that fails without side effects if ctx is done.
func (w *Writer) FlushContext(ctx context.Context) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	return w.flush(ctx, true, true)
}

// Close flushes, releases the buffers and closes the sink unless the
// Writer was created with WithLeaveOpen(true). The sink is closed even if
// the flush fails. Closing twice is a no-op.
func (w *Writer) Close() error {
	if err := w.guard.enter(); err != nil {
		return err
	}
	defer w.guard.leave()

	if w.closed {
		return nil
	}
	err := w.flush(context.Background(), true, true)
	w.closed = true
	w.charBuf, w.byteBuf = nil, nil
	w.charPos = 0

	if c, ok := w.sink.(io.Closer); ok && !w.leaveOpen {
		err = stderrors.Join(err, c.Close())
	}
	return err
}

// WriteStringAsync writes s on a new goroutine.
func (w *Writer) WriteStringAsync(ctx context.Context, s string) *Pending[int] {
	if err := w.enter(); err != nil {
		return failed[int](err)
	}
	return goAsync(w.guard, func() (int, error) {
		return write(ctx, w, s)
	})
}

// WriteLineAsync writes s and the line terminator on a new goroutine.
func (w *Writer) WriteLineAsync(ctx context.Context, s string) *Pending[struct{}] {
	if err := w.enter(); err != nil {
		return failed[struct{}](err)
	}
	return goAsync(w.guard, func() (struct{}, error) {
		return struct{}{}, w.writeLine(ctx, s)
	})
}

// FlushAsync flushes on a new goroutine.
func (w *Writer) FlushAsync(ctx context.Context) *Pending[struct{}] {
	if err := w.enter(); err != nil {
		return failed[struct{}](err)
	}
	return goAsync(w.guard, func() (struct{}, error) {
		return struct{}{}, w.flush(ctx, true, true)
	})
}

var (
	_ io.Writer       = (*Writer)(nil)
	_ io.StringWriter = (*Writer)(nil)
	_ io.Closer       = (*Writer)(nil)
)
