package textio

import (
	"context"
	stderrors "errors"
	"io"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/jmgilman/go/textio/errors"
	"github.com/jmgilman/go/textio/internal/logging"
	"github.com/jmgilman/go/textio/metrics"
)

// maxConsecutiveEmptyReads is how many (0, nil) reads a refill tolerates
// before failing with io.ErrNoProgress.
const maxConsecutiveEmptyReads = 100

// Reader decodes text from a byte source.
//
// Bytes are read into a fixed byte buffer, decoded into a rune buffer and
// served from there. The first bytes of the stream are checked against the
// encoding's preamble and, when detection is enabled, against the known
// byte-order marks; a match switches the encoding and is not returned as
// text.
//
// A Reader admits one operation at a time. A call made while another call
// or an async operation is outstanding fails with ErrOperationInProgress.
type Reader struct {
	src   io.Reader
	guard guard

	encoding *Encoding
	current  atomic.Pointer[Encoding]
	decoder  *Decoder

	byteBuf []byte
	byteLen int
	bytePos int // preamble bytes matched so far

	charBuf  []rune
	charLen  int
	charPos  int
	maxChars int

	checkPreamble  bool
	detectEncoding bool
	blocked        bool
	srcErr         error // reported on the next refill

	sniffConfidence int
	leaveOpen       bool
	closed          bool

	logger  *logging.Logger
	metrics metrics.Recorder
}

// NewReader returns a Reader decoding src.
//
// By default the encoding is UTF8, byte-order mark detection is on and the
// buffer holds DefaultBufferSize bytes. Close closes src if it is an
// io.Closer, unless WithLeaveOpen(true) is given.
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	if src == nil {
		return nil, invalidArgument("source must not be nil")
	}
	o, err := newOptions(UTF8, opts)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		src:             src,
		guard:           newGuard(),
		byteBuf:         make([]byte, o.bufferSize),
		checkPreamble:   len(o.encoding.preamble) > 0,
		detectEncoding:  o.detect,
		sniffConfidence: o.sniffConfidence,
		leaveOpen:       o.leaveOpen,
		logger:          o.logger.WithOperation("read"),
		metrics:         o.metrics,
	}
	r.setEncoding(o.encoding)
	return r, nil
}

// setEncoding installs enc with a fresh decoder and a rune buffer large
// enough for one full byte buffer.
func (r *Reader) setEncoding(enc *Encoding) {
	r.encoding = enc
	r.current.Store(enc)
	r.decoder = enc.NewDecoder()
	r.maxChars = enc.MaxCharsForByteCount(len(r.byteBuf))
	if len(r.charBuf) < r.maxChars {
		r.charBuf = make([]rune, r.maxChars)
	}
}

// CurrentEncoding returns the encoding in use. It may change once, when
// the first bytes reveal a byte-order mark.
func (r *Reader) CurrentEncoding() *Encoding {
	return r.current.Load()
}

// Underlying returns the byte source.
func (r *Reader) Underlying() io.Reader {
	return r.src
}

func (r *Reader) enter() error {
	if err := r.guard.enter(); err != nil {
		return err
	}
	if r.closed {
		r.guard.leave()
		return ErrClosed
	}
	return nil
}

// readSource reads into p, retrying reads that return neither data nor
// an error.
func (r *Reader) readSource(p []byte) (int, error) {
	for range maxConsecutiveEmptyReads {
		n, err := r.src.Read(p)
		if n < 0 || n > len(p) {
			return 0, errors.WithContext(
				errors.New(errors.CodeInternal, "byte source returned an invalid count"), "count", n)
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, io.ErrNoProgress
}

// fill decodes the next chunk of the stream. With dst nil the rune buffer
// is refilled; otherwise runes are decoded straight into dst. It returns
// the number of runes produced; zero with a nil error is end of stream.
//
// Bytes are held back and more are read while the preamble check or
// byte-order mark detection cannot yet decide. At end of stream the
// pending decision is made with what is buffered and the held bytes are
// decoded.
func (r *Reader) fill(ctx context.Context, dst []rune) (int, error) {
	internal := dst == nil
	if internal {
		r.charPos, r.charLen = 0, 0
		dst = r.charBuf
	}

	if r.decoder.Buffered() > 0 {
		n, err := r.decoder.Decode(dst, nil, false)
		return r.produced(internal, n), err
	}

	if !r.checkPreamble && !r.detectEncoding {
		r.byteLen = 0
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, canceled(ctx, "read")
		}
		if err := r.srcErr; err != nil {
			r.srcErr = nil
			return 0, err
		}

		n, err := r.readSource(r.byteBuf[r.byteLen:])
		r.blocked = n < len(r.byteBuf)-r.byteLen
		r.byteLen += n
		if n > 0 {
			r.metrics.BytesRead(n)
		}

		final := stderrors.Is(err, io.EOF)
		if err != nil && !final {
			if n == 0 {
				return 0, err
			}
			r.srcErr = err
		}

		if r.checkPreamble {
			r.matchPreamble(ctx, final)
		}
		if !r.checkPreamble && r.detectEncoding {
			r.detect(ctx, final)
		}
		if r.checkPreamble || r.detectEncoding {
			continue
		}

		if internal {
			dst = r.charBuf
		}
		count, derr := r.decoder.Decode(dst, r.byteBuf[:r.byteLen], final)
		r.byteLen = 0
		count = r.produced(internal, count)
		if derr != nil {
			return count, derr
		}
		if count > 0 || final {
			return count, nil
		}
	}
}

func (r *Reader) produced(internal bool, n int) int {
	if internal {
		r.charLen = n
	}
	if n > 0 {
		r.metrics.RunesDecoded(n)
	}
	return n
}

// matchPreamble compares buffered bytes against the encoding's preamble.
// A mismatch ends the check; a full match strips the preamble and ends
// detection as well.
func (r *Reader) matchPreamble(ctx context.Context, final bool) {
	pre := r.encoding.preamble
	for r.bytePos < len(pre) && r.bytePos < r.byteLen {
		if r.byteBuf[r.bytePos] != pre[r.bytePos] {
			r.bytePos = 0
			r.checkPreamble = false
			return
		}
		r.bytePos++
	}

	if r.bytePos == len(pre) {
		r.consume(len(pre))
		r.bytePos = 0
		r.checkPreamble = false
		r.detectEncoding = false
		r.reportEncoding(ctx, logging.SourcePreamble, len(pre))
		return
	}

	if final {
		r.bytePos = 0
		r.checkPreamble = false
	}
}

// detect looks for a byte-order mark, falling back to sniffing when one
// is configured. It waits for more bytes while a longer mark could still
// match.
func (r *Reader) detect(ctx context.Context, final bool) {
	enc, size, more := DetectBOM(r.byteBuf[:r.byteLen])
	if more && !final {
		return
	}
	r.detectEncoding = false

	if enc != nil {
		r.consume(size)
		if enc != r.encoding {
			r.setEncoding(enc)
		}
		r.reportEncoding(ctx, logging.SourceBOM, size)
		return
	}

	if r.sniffConfidence > 0 && r.byteLen > 0 {
		if enc := sniffEncoding(r.byteBuf[:r.byteLen], r.sniffConfidence); enc != nil && enc.Name() != r.encoding.Name() {
			r.setEncoding(enc)
			r.reportEncoding(ctx, logging.SourceSniffed, 0)
		}
	}
}

// consume drops the first n buffered bytes.
func (r *Reader) consume(n int) {
	copy(r.byteBuf, r.byteBuf[n:r.byteLen])
	r.byteLen -= n
}

func (r *Reader) reportEncoding(ctx context.Context, source logging.Source, size int) {
	r.metrics.EncodingDetected(r.encoding.Name(), string(source))
	logging.LogEncodingDetected(ctx, r.logger, r.encoding.Name(), source, size)
}

// ensure makes at least one rune available. It returns false at end of
// stream.
func (r *Reader) ensure(ctx context.Context) (bool, error) {
	if r.charPos < r.charLen {
		return true, nil
	}
	n, err := r.fill(ctx, nil)
	return n > 0, err
}

// Peek returns the next rune without consuming it, or io.EOF at end of
// stream.
func (r *Reader) Peek() (rune, error) {
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.guard.leave()

	ok, err := r.ensure(context.Background())
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, io.EOF
	}
	return r.charBuf[r.charPos], nil
}

// ReadRune reads the next rune. size is the rune's UTF-8 length.
// At end of stream it returns io.EOF.
func (r *Reader) ReadRune() (ch rune, size int, err error) {
	if err := r.enter(); err != nil {
		return 0, 0, err
	}
	defer r.guard.leave()

	ok, err := r.ensure(context.Background())
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, io.EOF
	}
	ch = r.charBuf[r.charPos]
	r.charPos++
	return ch, utf8.RuneLen(ch), nil
}

// ReadInto reads up to count runes into buf[index:]. It returns early once
// the source has delivered less than was asked of it and at least one rune
// was read. It returns io.EOF when no rune was read at end of stream.
func (r *Reader) ReadInto(buf []rune, index, count int) (int, error) {
	return r.ReadIntoContext(context.Background(), buf, index, count)
}

// ReadIntoContext is ReadInto with cancellation checked before every read
// from the source.
func (r *Reader) ReadIntoContext(ctx context.Context, buf []rune, index, count int) (int, error) {
	if err := checkRange(len(buf), index, count); err != nil {
		return 0, err
	}
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.guard.leave()

	return r.readInto(ctx, buf, index, count)
}

// ReadRunes reads up to len(p) runes into p, like ReadInto(p, 0, len(p)).
func (r *Reader) ReadRunes(p []rune) (int, error) {
	return r.ReadInto(p, 0, len(p))
}

func (r *Reader) readInto(ctx context.Context, buf []rune, index, count int) (int, error) {
	if count == 0 {
		return 0, nil
	}

	total := 0
	for count > 0 {
		n := r.charLen - r.charPos
		if n == 0 {
			if count >= r.maxChars && !r.checkPreamble && !r.detectEncoding {
				got, err := r.fill(ctx, buf[index:index+count])
				total += got
				if err != nil {
					return total, err
				}
				if got == 0 {
					break
				}
				index += got
				count -= got
				if r.blocked {
					break
				}
				continue
			}

			got, err := r.fill(ctx, nil)
			if err != nil {
				return total, err
			}
			if got == 0 {
				break
			}
			n = got
		}

		n = min(n, count)
		copy(buf[index:], r.charBuf[r.charPos:r.charPos+n])
		r.charPos += n
		index += n
		total += n
		count -= n
		if r.blocked {
			break
		}
	}

	if total == 0 {
		return 0, io.EOF
	}
	return total, nil
}

// ReadBlock reads runes into buf[index:] until count runes were read or
// the stream ends. It returns io.EOF when no rune was read.
func (r *Reader) ReadBlock(buf []rune, index, count int) (int, error) {
	if err := checkRange(len(buf), index, count); err != nil {
		return 0, err
	}
	if err := r.enter(); err != nil {
		return 0, err
	}
	defer r.guard.leave()

	ctx := context.Background()
	total := 0
	for total < count {
		n, err := r.readInto(ctx, buf, index+total, count-total)
		total += n
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}
	}
	if total == 0 && count > 0 {
		return 0, io.EOF
	}
	return total, nil
}

// ReadLine reads a line, excluding its terminator. "\n", "\r" and "\r\n"
// end a line; a "\r\n" split across two refills is still one terminator.
// The last line need not be terminated. At end of stream it returns
// io.EOF.
func (r *Reader) ReadLine() (string, error) {
	return r.ReadLineContext(context.Background())
}

// ReadLineContext is ReadLine with cancellation checked before every read
// from the source.
func (r *Reader) ReadLineContext(ctx context.Context) (string, error) {
	if err := r.enter(); err != nil {
		return "", err
	}
	defer r.guard.leave()

	return r.readLine(ctx)
}

func (r *Reader) readLine(ctx context.Context) (string, error) {
	ok, err := r.ensure(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", io.EOF
	}

	scan := r.charPos
	for {
		for i := scan; i < r.charLen; i++ {
			ch := r.charBuf[i]
			if ch != '\r' && ch != '\n' {
				continue
			}
			line := string(r.charBuf[r.charPos:i])
			r.charPos = i + 1
			if ch == '\r' {
				r.skipLF(ctx)
			}
			return line, nil
		}

		scanned := r.charLen - r.charPos
		n, err := r.fillMore(ctx)
		if err != nil {
			return "", err
		}
		if n == 0 {
			line := string(r.charBuf[r.charPos:r.charLen])
			r.charPos = r.charLen
			return line, nil
		}
		scan = r.charPos + scanned
	}
}

// fillMore decodes the next chunk behind the unread runes, growing the
// rune buffer as needed. The unread runes stay buffered when it fails.
func (r *Reader) fillMore(ctx context.Context) (int, error) {
	keep := r.charLen - r.charPos
	if keep == 0 {
		return r.fill(ctx, nil)
	}

	copy(r.charBuf, r.charBuf[r.charPos:r.charLen])
	r.charPos, r.charLen = 0, keep
	if len(r.charBuf)-keep < r.maxChars {
		r.charBuf = slices.Grow(r.charBuf[:keep], r.maxChars)
		r.charBuf = r.charBuf[:cap(r.charBuf)]
	}

	n, err := r.fill(ctx, r.charBuf[keep:])
	r.charLen += n
	return n, err
}

// skipLF consumes a '\n' following a '\r', refilling if the '\r' was the
// last buffered rune. A refill failure is kept for the next call since the
// line itself is complete.
func (r *Reader) skipLF(ctx context.Context) {
	if r.charPos == r.charLen {
		_, err := r.fill(ctx, nil)
		if err != nil && !errors.HasCode(err, errors.CodeCanceled) {
			r.srcErr = err
		}
	}
	if r.charPos < r.charLen && r.charBuf[r.charPos] == '\n' {
		r.charPos++
	}
}

// ReadToEnd reads the rest of the stream. At end of stream it returns an
// empty string and a nil error.
func (r *Reader) ReadToEnd() (string, error) {
	return r.ReadToEndContext(context.Background())
}

// ReadToEndContext is ReadToEnd with cancellation checked before every
// read from the source. On error the text read so far is returned with it.
func (r *Reader) ReadToEndContext(ctx context.Context) (string, error) {
	if err := r.enter(); err != nil {
		return "", err
	}
	defer r.guard.leave()

	return r.readToEnd(ctx)
}

func (r *Reader) readToEnd(ctx context.Context) (string, error) {
	var sb strings.Builder
	for {
		writeRunes(&sb, r.charBuf[r.charPos:r.charLen])
		r.charPos = r.charLen
		n, err := r.fill(ctx, nil)
		if err != nil {
			return sb.String(), err
		}
		if n == 0 {
			return sb.String(), nil
		}
	}
}

// Lines returns an iterator over the remaining lines. Iteration stops at
// end of stream or after yielding the first error.
func (r *Reader) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := r.ReadLine()
			if stderrors.Is(err, io.EOF) {
				return
			}
			if !yield(line, err) || err != nil {
				return
			}
		}
	}
}

// EndOfStream reports whether the stream has no more text. It may read
// from the source.
func (r *Reader) EndOfStream() (bool, error) {
	if err := r.enter(); err != nil {
		return false, err
	}
	defer r.guard.leave()

	ok, err := r.ensure(context.Background())
	return !ok && err == nil, err
}

// DiscardBufferedData drops all buffered bytes and runes and resets the
// decoder. Call it after repositioning the source. The encoding is kept
// and the preamble is not checked again.
func (r *Reader) DiscardBufferedData() error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.guard.leave()

	r.byteLen, r.bytePos = 0, 0
	r.charLen, r.charPos = 0, 0
	r.checkPreamble = false
	r.blocked = false
	r.srcErr = nil
	r.decoder = r.encoding.NewDecoder()
	return nil
}

// Close releases the buffers and closes the source unless the Reader was
// created with WithLeaveOpen(true). Closing twice is a no-op.
func (r *Reader) Close() error {
	if err := r.guard.enter(); err != nil {
		return err
	}
	defer r.guard.leave()

	if r.closed {
		return nil
	}
	r.closed = true
	r.byteBuf, r.charBuf = nil, nil
	r.byteLen, r.charLen, r.charPos = 0, 0, 0

	if c, ok := r.src.(io.Closer); ok && !r.leaveOpen {
		return c.Close()
	}
	return nil
}

// ReadLineAsync reads a line on a new goroutine.
func (r *Reader) ReadLineAsync(ctx context.Context) *Pending[string] {
	if err := r.enter(); err != nil {
		return failed[string](err)
	}
	return goAsync(r.guard, func() (string, error) {
		return r.readLine(ctx)
	})
}

// ReadToEndAsync reads the rest of the stream on a new goroutine.
func (r *Reader) ReadToEndAsync(ctx context.Context) *Pending[string] {
	if err := r.enter(); err != nil {
		return failed[string](err)
	}
	return goAsync(r.guard, func() (string, error) {
		return r.readToEnd(ctx)
	})
}

// ReadIntoAsync reads into buf on a new goroutine. Arguments are validated
// before it returns. buf must not be touched until the operation is done.
func (r *Reader) ReadIntoAsync(ctx context.Context, buf []rune, index, count int) *Pending[int] {
	if err := checkRange(len(buf), index, count); err != nil {
		return failed[int](err)
	}
	if err := r.enter(); err != nil {
		return failed[int](err)
	}
	return goAsync(r.guard, func() (int, error) {
		return r.readInto(ctx, buf, index, count)
	})
}

func writeRunes(sb *strings.Builder, rs []rune) {
	for _, ch := range rs {
		sb.WriteRune(ch)
	}
}

var (
	_ io.RuneReader = (*Reader)(nil)
	_ io.Closer     = (*Reader)(nil)
)
