package textio

import (
	"log/slog"
	"runtime"
	"strings"

	"github.com/jmgilman/go/textio/errors"
	"github.com/jmgilman/go/textio/internal/logging"
	"github.com/jmgilman/go/textio/metrics"
	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultBufferSize is the buffer size used when none is given.
	DefaultBufferSize = 1024

	// MinBufferSize is the smallest buffer a Reader or Writer will use.
	// Smaller requests are rounded up.
	MinBufferSize = 128
)

// DefaultNewLine is the line terminator writers use unless configured.
var DefaultNewLine = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// options holds the construction parameters shared by Reader and Writer.
type options struct {
	encoding        *Encoding
	detect          bool
	bufferSize      int
	leaveOpen       bool
	autoFlush       bool
	newLine         string
	logger          *logging.Logger
	metrics         metrics.Recorder
	sniffConfidence int
	err             error
}

// Option configures a Reader or Writer.
type Option func(*options)

func newOptions(enc *Encoding, opts []Option) (*options, error) {
	o := &options{
		encoding:   enc,
		detect:     true,
		bufferSize: DefaultBufferSize,
		newLine:    DefaultNewLine,
		logger:     logging.NewNopLogger(),
		metrics:    metrics.Nop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.bufferSize < MinBufferSize {
		o.bufferSize = MinBufferSize
	}
	return o, nil
}

// WithEncoding sets the encoding. For readers it is the default used when
// no byte-order mark is found; its preamble is stripped if present.
func WithEncoding(enc *Encoding) Option {
	return func(o *options) {
		if enc == nil {
			o.err = invalidArgument("encoding must not be nil")
			return
		}
		o.encoding = enc
	}
}

// WithDetectEncoding enables or disables byte-order mark detection on
// readers. It is enabled by default.
func WithDetectEncoding(detect bool) Option {
	return func(o *options) {
		o.detect = detect
	}
}

// WithBufferSize sets the buffer size: bytes for readers, UTF-8 bytes of
// pending text for writers. Zero selects DefaultBufferSize; values below
// MinBufferSize are rounded up; negative values are rejected.
func WithBufferSize(size int) Option {
	return func(o *options) {
		switch {
		case size < 0:
			o.err = invalidArgument("buffer size must be non-negative", "size", size)
		case size == 0:
			o.bufferSize = DefaultBufferSize
		default:
			o.bufferSize = size
		}
	}
}

// WithLeaveOpen keeps the underlying source or sink open when the Reader
// or Writer is closed.
func WithLeaveOpen(leaveOpen bool) Option {
	return func(o *options) {
		o.leaveOpen = leaveOpen
	}
}

// WithAutoFlush makes a Writer flush after every write call.
func WithAutoFlush(autoFlush bool) Option {
	return func(o *options) {
		o.autoFlush = autoFlush
	}
}

// WithNewLine sets the terminator WriteLine appends.
func WithNewLine(newLine string) Option {
	return func(o *options) {
		o.newLine = newLine
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logging.FromSlog(logger)
	}
}

// WithMetrics sets the metrics recorder. A nil recorder disables metrics.
func WithMetrics(rec metrics.Recorder) Option {
	return func(o *options) {
		if rec == nil {
			rec = metrics.Nop{}
		}
		o.metrics = rec
	}
}

// WithCharsetSniffing makes a reader that finds no byte-order mark guess
// the encoding from the first buffered bytes. A guess with confidence
// (1-100) below minConfidence is ignored. Zero disables sniffing.
func WithCharsetSniffing(minConfidence int) Option {
	return func(o *options) {
		if minConfidence < 0 || minConfidence > 100 {
			o.err = invalidArgument("sniff confidence must be within [0, 100]", "confidence", minConfidence)
			return
		}
		o.sniffConfidence = minConfidence
	}
}

// Config holds options loaded from the environment.
type Config struct {
	// Encoding is a label accepted by Lookup. Empty keeps the default.
	Encoding string `envconfig:"ENCODING"`

	// Preamble forces the encoding's byte-order mark on or off.
	// Empty keeps the encoding's own setting.
	Preamble string `envconfig:"PREAMBLE"`

	// DetectEncoding toggles byte-order mark detection on readers.
	DetectEncoding bool `envconfig:"DETECT_ENCODING" default:"true"`

	// BufferSize is the buffer size in bytes.
	BufferSize int `envconfig:"BUFFER_SIZE" default:"1024"`

	// NewLine is "lf", "crlf", "cr" or a literal terminator.
	// Empty keeps DefaultNewLine.
	NewLine string `envconfig:"NEWLINE"`

	// AutoFlush makes writers flush after every write.
	AutoFlush bool `envconfig:"AUTO_FLUSH"`

	// SniffConfidence enables charset sniffing above this confidence.
	SniffConfidence int `envconfig:"SNIFF_CONFIDENCE"`
}

// LoadConfig reads Config from environment variables named
// <prefix>_ENCODING, <prefix>_BUFFER_SIZE and so on.
func LoadConfig(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to load text stream configuration")
	}
	return cfg, nil
}

// Options converts the configuration into options.
func (c Config) Options() ([]Option, error) {
	opts := []Option{
		WithDetectEncoding(c.DetectEncoding),
		WithBufferSize(c.BufferSize),
		WithAutoFlush(c.AutoFlush),
		WithCharsetSniffing(c.SniffConfidence),
	}

	if c.Encoding != "" || c.Preamble != "" {
		enc := UTF8NoBOM
		if c.Encoding != "" {
			var err error
			if enc, err = Lookup(c.Encoding); err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid encoding")
			}
		}
		switch strings.ToLower(c.Preamble) {
		case "":
		case "true", "on", "yes", "1":
			enc = enc.WithPreamble(true)
		case "false", "off", "no", "0":
			enc = enc.WithPreamble(false)
		default:
			return nil, errors.WithContext(
				errors.New(errors.CodeInvalidConfig, "invalid preamble setting"), "preamble", c.Preamble)
		}
		opts = append(opts, WithEncoding(enc))
	}

	if c.NewLine != "" {
		nl, err := ParseNewLine(c.NewLine)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithNewLine(nl))
	}
	return opts, nil
}

// ParseNewLine maps "lf", "crlf" and "cr" to their terminators. Any other
// value containing only CR and LF characters is returned as is.
func ParseNewLine(s string) (string, error) {
	switch strings.ToLower(s) {
	case "lf", `\n`:
		return "\n", nil
	case "crlf", `\r\n`:
		return "\r\n", nil
	case "cr", `\r`:
		return "\r", nil
	}
	if s != "" && strings.Trim(s, "\r\n") == "" {
		return s, nil
	}
	return "", errors.WithContext(errors.New(errors.CodeInvalidConfig, "invalid line terminator"), "newline", s)
}
