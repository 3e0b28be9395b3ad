package textio

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/jmgilman/go/textio/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
)

func TestNewReader_Validation(t *testing.T) {
	_, err := NewReader(nil)
	require.True(t, errors.HasCode(err, errors.CodeInvalidArgument))

	_, err = NewReader(strings.NewReader(""), WithBufferSize(-1))
	require.True(t, errors.HasCode(err, errors.CodeInvalidArgument))

	_, err = NewReader(strings.NewReader(""), WithEncoding(nil))
	require.True(t, errors.HasCode(err, errors.CodeInvalidArgument))

	r, err := NewReader(strings.NewReader(""), WithBufferSize(10))
	require.NoError(t, err)
	require.Len(t, r.byteBuf, MinBufferSize)
}

func TestReader_DetectionDoesNotAlterPlainText(t *testing.T) {
	const text = "plain ascii\nand ünïcödé\r\nlast 𝄞"

	for _, enc := range []*Encoding{UTF8, UTF16LE, UTF16BE, UTF32LE, UTF32BE} {
		t.Run(enc.String(), func(t *testing.T) {
			raw, err := enc.Encoding().NewEncoder().Bytes([]byte(text))
			require.NoError(t, err)

			a, err := NewReader(bytes.NewReader(raw), WithEncoding(enc))
			require.NoError(t, err)
			b, err := NewReader(bytes.NewReader(raw), WithEncoding(enc), WithDetectEncoding(false))
			require.NoError(t, err)

			got, err := a.ReadToEnd()
			require.NoError(t, err)
			want, err := b.ReadToEnd()
			require.NoError(t, err)
			require.Equal(t, text, got)
			require.Equal(t, want, got)
			require.Equal(t, enc.Name(), a.CurrentEncoding().Name())
		})
	}
}

func TestReader_StripsByteOrderMarks(t *testing.T) {
	const text = "aé€𝄞"
	encodings := []*Encoding{UTF8, UTF16LE, UTF16BE, UTF32LE, UTF32BE}

	for _, enc := range encodings {
		t.Run(enc.String(), func(t *testing.T) {
			raw := encode(t, enc, text)

			for name, src := range map[string]io.Reader{
				"whole":    bytes.NewReader(raw),
				"one byte": iotest.OneByteReader(bytes.NewReader(raw)),
			} {
				t.Run(name, func(t *testing.T) {
					r, err := NewReader(src)
					require.NoError(t, err)

					got, err := r.ReadToEnd()
					require.NoError(t, err)
					require.Equal(t, text, got)
					require.Equal(t, enc.Name(), r.CurrentEncoding().Name())
				})
			}
		})
	}
}

func TestReader_PreambleThenLine(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte{0xEF, 0xBB, 0xBF, 0x48, 0x69}))
	require.NoError(t, err)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "Hi", line)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_HoldsAmbiguousMark(t *testing.T) {
	t.Run("completes to utf-32le", func(t *testing.T) {
		src := &chunkReader{data: []byte{0xFF, 0xFE, 0x00, 0x00, 0x41, 0x00, 0x00, 0x00}, size: 2}
		r, err := NewReader(src)
		require.NoError(t, err)

		got, err := r.ReadToEnd()
		require.NoError(t, err)
		require.Equal(t, "A", got)
		require.Same(t, UTF32LE, r.CurrentEncoding())
	})

	t.Run("resolves to utf-16le", func(t *testing.T) {
		src := &chunkReader{data: []byte{0xFF, 0xFE, 0x41, 0x00}, size: 2}
		r, err := NewReader(src)
		require.NoError(t, err)

		got, err := r.ReadToEnd()
		require.NoError(t, err)
		require.Equal(t, "A", got)
		require.Same(t, UTF16LE, r.CurrentEncoding())
	})

	t.Run("alone at end of stream", func(t *testing.T) {
		r, err := NewReader(bytes.NewReader([]byte{0xFF, 0xFE}))
		require.NoError(t, err)

		got, err := r.ReadToEnd()
		require.NoError(t, err)
		require.Empty(t, got)
		require.Same(t, UTF16LE, r.CurrentEncoding())
	})
}

func TestReader_DetectionDisabled(t *testing.T) {
	raw := encode(t, UTF16LE, "A")
	r, err := NewReader(bytes.NewReader(raw), WithDetectEncoding(false), WithEncoding(UTF8NoBOM))
	require.NoError(t, err)

	got, err := r.ReadToEnd()
	require.NoError(t, err)
	require.Equal(t, "\uFFFD\uFFFDA\x00", got)
	require.Same(t, UTF8NoBOM, r.CurrentEncoding())
}

func TestReader_ReadLine(t *testing.T) {
	r, err := NewReader(strings.NewReader("a\rb\nc\r\n\nd"))
	require.NoError(t, err)

	var lines []string
	for line, err := range r.Lines() {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	require.Equal(t, []string{"a", "b", "c", "", "d"}, lines)
}

func TestReader_ReadLine_CRLFAcrossRefill(t *testing.T) {
	first := strings.Repeat("x", MinBufferSize-1)
	r, err := NewReader(strings.NewReader(first+"\r\nnext"), WithBufferSize(MinBufferSize))
	require.NoError(t, err)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, first, line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "next", line)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_ReadLine_TrailingCR(t *testing.T) {
	r, err := NewReader(strings.NewReader("a\r"))
	require.NoError(t, err)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "a", line)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_PeekAndReadRune(t *testing.T) {
	r, err := NewReader(strings.NewReader("é!"))
	require.NoError(t, err)

	ch, err := r.Peek()
	require.NoError(t, err)
	require.Equal(t, 'é', ch)

	ch, size, err := r.ReadRune()
	require.NoError(t, err)
	require.Equal(t, 'é', ch)
	require.Equal(t, 2, size)

	ch, _, err = r.ReadRune()
	require.NoError(t, err)
	require.Equal(t, '!', ch)

	_, err = r.Peek()
	require.ErrorIs(t, err, io.EOF)
	end, err := r.EndOfStream()
	require.NoError(t, err)
	require.True(t, end)
}

func TestReader_ReadInto_DirectPath(t *testing.T) {
	text := strings.Repeat("0123456789", 30)
	r, err := NewReader(strings.NewReader(text),
		WithBufferSize(MinBufferSize), WithEncoding(UTF8NoBOM), WithDetectEncoding(false))
	require.NoError(t, err)

	buf := make([]rune, 400)
	n, err := r.ReadInto(buf, 0, len(buf))
	require.NoError(t, err)
	require.Equal(t, len(text), n)
	require.Equal(t, text, string(buf[:n]))
	require.Zero(t, r.charLen, "runes should bypass the internal buffer")

	_, err = r.ReadInto(buf, 0, len(buf))
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_ReadInto_ReturnsWhenSourceBlocks(t *testing.T) {
	src := &chunkReader{data: []byte(strings.Repeat("a", 50)), size: 10}
	r, err := NewReader(src)
	require.NoError(t, err)

	buf := make([]rune, 40)
	n, err := r.ReadInto(buf, 0, 40)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	n, err = r.ReadBlock(buf, 0, 40)
	require.NoError(t, err)
	require.Equal(t, 40, n)
}

func TestReader_ReadInto_Arguments(t *testing.T) {
	r, err := NewReader(strings.NewReader("abc"))
	require.NoError(t, err)
	buf := make([]rune, 4)

	_, err = r.ReadInto(buf, -1, 1)
	require.True(t, errors.HasCode(err, errors.CodeInvalidArgument))
	_, err = r.ReadInto(buf, 0, -1)
	require.True(t, errors.HasCode(err, errors.CodeInvalidArgument))
	_, err = r.ReadInto(buf, 2, 5)
	require.True(t, errors.HasCode(err, errors.CodeInvalidArgument))

	n, err := r.ReadInto(buf, 0, 0)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = r.ReadInto(buf, 1, 3)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []rune{0, 'a', 'b', 'c'}, buf)
}

func TestReader_SplitMultiByteSequences(t *testing.T) {
	var sb strings.Builder
	for i := range 200 {
		sb.WriteString("línea ")
		sb.WriteRune(rune('a' + i%26))
		sb.WriteString(" € 𝄞\n")
	}
	text := sb.String()

	for _, enc := range []*Encoding{UTF8, UTF16BE, UTF32LE} {
		t.Run(enc.String(), func(t *testing.T) {
			src := iotest.HalfReader(bytes.NewReader(encode(t, enc, text)))
			r, err := NewReader(src, WithBufferSize(MinBufferSize))
			require.NoError(t, err)

			got, err := r.ReadToEnd()
			require.NoError(t, err)
			require.Equal(t, text, got)
		})
	}
}

func TestReader_LegacyEncoding(t *testing.T) {
	latin1, err := Lookup("latin1")
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader([]byte{0x63, 0x61, 0x66, 0xE9}), WithEncoding(latin1))
	require.NoError(t, err)

	got, err := r.ReadToEnd()
	require.NoError(t, err)
	require.Equal(t, "café", got)
}

func TestReader_StrictRejectsInvalidUTF8(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte{0x61, 0xFF, 0x62}), WithEncoding(UTF8.Strict()))
	require.NoError(t, err)

	_, _, err = r.ReadRune()
	require.ErrorIs(t, err, encoding.ErrInvalidUTF8)
	require.True(t, errors.HasCode(err, errors.CodeMalformedInput))
}

func TestReader_ContinuesPastInvalidUTF8(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte{0x61, 0xFF, 0x62, 0x63}), WithEncoding(UTF8.Strict()))
	require.NoError(t, err)

	_, err = r.ReadToEnd()
	require.True(t, errors.HasCode(err, errors.CodeMalformedInput))

	got, err := r.ReadToEnd()
	require.NoError(t, err)
	require.Equal(t, "abc", got)
}

func TestReader_ReadLine_InvalidUTF8MidLine(t *testing.T) {
	src := &chunkReader{data: []byte{0x61, 0x62, 0xFF, 0x63, 0x0A, 0x64}, size: 2}
	r, err := NewReader(src, WithEncoding(UTF8.Strict()))
	require.NoError(t, err)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, encoding.ErrInvalidUTF8)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "abc", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "d", line)
}

func TestReader_NoProgress(t *testing.T) {
	r, err := NewReader(emptyReader{})
	require.NoError(t, err)

	_, _, err = r.ReadRune()
	require.ErrorIs(t, err, io.ErrNoProgress)
}

func TestReader_ErrorAfterData(t *testing.T) {
	boom := stderrors.New("boom")
	r, err := NewReader(&dataErrReader{data: []byte("abc"), err: boom})
	require.NoError(t, err)

	got, err := r.ReadToEnd()
	require.ErrorIs(t, err, boom)
	require.Equal(t, "abc", got)
}

func TestReader_SourceError(t *testing.T) {
	boom := stderrors.New("boom")
	r, err := NewReader(iotest.ErrReader(boom))
	require.NoError(t, err)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, boom)
}

func TestReader_Canceled(t *testing.T) {
	src := strings.NewReader("line\n")
	r, err := NewReader(src)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.ReadLineContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, errors.HasCode(err, errors.CodeCanceled))
	require.Equal(t, 5, src.Len(), "a canceled read must not touch the source")

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "line", line)
}

func TestReader_ReadLine_CanceledMidLine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &cancelReader{
		r:      &chunkReader{data: []byte("abcd\nrest\n"), size: 2},
		cancel: cancel,
	}
	r, err := NewReader(src)
	require.NoError(t, err)

	_, err = r.ReadLineContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, errors.HasCode(err, errors.CodeCanceled))

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "abcd", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "rest", line)

	_, err = r.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_ReadLine_LongerThanBuffer(t *testing.T) {
	long := strings.Repeat("0123456789", 100)
	src := &chunkReader{data: []byte(long + "\r\nnext"), size: 50}
	r, err := NewReader(src, WithBufferSize(MinBufferSize))
	require.NoError(t, err)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, long, line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "next", line)
}

func TestReader_DiscardBufferedData(t *testing.T) {
	src := strings.NewReader("first\nsecond\n")
	r, err := NewReader(src)
	require.NoError(t, err)

	line, err := r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "first", line)

	_, err = src.Seek(0, io.SeekStart)
	require.NoError(t, err)
	require.NoError(t, r.DiscardBufferedData())

	line, err = r.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "first", line)
}

func TestReader_Close(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("abc")}
	r, err := NewReader(src)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.Equal(t, 1, src.closed)

	_, _, err = r.ReadRune()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, err, fs.ErrClosed)
	_, err = r.ReadLine()
	require.ErrorIs(t, err, ErrClosed)
}

func TestReader_LeaveOpen(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("abc")}
	r, err := NewReader(src, WithLeaveOpen(true))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.Zero(t, src.closed)
	require.Same(t, src, r.Underlying())
}

func TestReader_Observability(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &recordingMetrics{}

	raw := encode(t, UTF16LE, "hi")
	r, err := NewReader(bytes.NewReader(raw), WithLogger(logger), WithMetrics(rec))
	require.NoError(t, err)

	_, err = r.ReadToEnd()
	require.NoError(t, err)

	require.Equal(t, len(raw), rec.bytesRead)
	require.Equal(t, 2, rec.runes)
	require.Equal(t, []string{"utf-16le/bom"}, rec.detections)
	require.Contains(t, logs.String(), `"msg":"text encoding detected"`)
	require.Contains(t, logs.String(), `"encoding":"utf-16le"`)
	require.Contains(t, logs.String(), `"operation":"read"`)
}

func TestReader_Sniffing(t *testing.T) {
	latin1, err := Lookup("latin1")
	require.NoError(t, err)
	const text = "déjà vu, très élégant, où ça? über"

	r, err := NewReader(strings.NewReader(text), WithEncoding(latin1), WithCharsetSniffing(90))
	require.NoError(t, err)

	got, err := r.ReadToEnd()
	require.NoError(t, err)
	require.Equal(t, text, got)
	require.Equal(t, "utf-8", r.CurrentEncoding().Name())
}
