package textio

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// encode returns the preamble of enc followed by s in that encoding.
func encode(t *testing.T, enc *Encoding, s string) []byte {
	t.Helper()
	b, err := enc.Encoding().NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return append(enc.Preamble(), b...)
}

// chunkReader returns at most size bytes per call.
type chunkReader struct {
	data []byte
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), c.size)], c.data)
	c.data = c.data[n:]
	return n, nil
}

// emptyReader never makes progress.
type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }

// dataErrReader returns its data and err from the same call.
type dataErrReader struct {
	data []byte
	err  error
	done bool
}

func (d *dataErrReader) Read(p []byte) (int, error) {
	if d.done {
		return 0, io.EOF
	}
	d.done = true
	return copy(p, d.data), d.err
}

// gateReader blocks its first read until gate is closed.
type gateReader struct {
	gate chan struct{}
	r    io.Reader
}

func (g *gateReader) Read(p []byte) (int, error) {
	<-g.gate
	return g.r.Read(p)
}

// closeTracker records Close calls.
type closeTracker struct {
	io.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

// recordingSink records every write, flush and close.
type recordingSink struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	writes  []int
	flushes int
	closed  int
	gate    chan struct{}
	short   bool
}

func (s *recordingSink) Write(p []byte) (int, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, len(p))
	if s.short && len(p) > 1 {
		p = p[:len(p)-1]
	}
	return s.buf.Write(p)
}

func (s *recordingSink) Flush() error {
	s.flushes++
	return nil
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func (s *recordingSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// seekSink reports a fixed position, as a file opened for append would.
type seekSink struct {
	bytes.Buffer
	pos int64
}

func (s *seekSink) Seek(int64, int) (int64, error) {
	return s.pos, nil
}

// recordingMetrics captures recorder calls.
type recordingMetrics struct {
	bytesRead    int
	runes        int
	detections   []string
	bytesWritten int
	flushes      []bool
}

func (m *recordingMetrics) BytesRead(n int)    { m.bytesRead += n }
func (m *recordingMetrics) RunesDecoded(n int) { m.runes += n }
func (m *recordingMetrics) BytesWritten(n int) { m.bytesWritten += n }
func (m *recordingMetrics) Flushed(final bool) { m.flushes = append(m.flushes, final) }

func (m *recordingMetrics) EncodingDetected(encoding, source string) {
	m.detections = append(m.detections, encoding+"/"+source)
}

// failOnceSink fails its first write with err.
type failOnceSink struct {
	bytes.Buffer
	err    error
	failed bool
}

func (f *failOnceSink) Write(p []byte) (int, error) {
	if !f.failed {
		f.failed = true
		return 0, f.err
	}
	return f.Buffer.Write(p)
}

// cancelReader calls cancel after every read.
type cancelReader struct {
	r      io.Reader
	cancel func()
}

func (c *cancelReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.cancel()
	return n, err
}
