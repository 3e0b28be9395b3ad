// Command textconv transcodes text files between character encodings.
//
// Usage:
//
//	textconv [flags] file...
//
// The source encoding is taken from the byte-order mark when present and
// from -from otherwise. Converted files are written to the -out directory
// under their base name, or to standard output when -out is empty.
//
// Every flag has an environment default: TEXTCONV_FROM, TEXTCONV_TO,
// TEXTCONV_BOM, TEXTCONV_NEWLINE, TEXTCONV_OUT, TEXTCONV_JOBS and
// TEXTCONV_LOG_LEVEL.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmgilman/go/textio"
	"github.com/jmgilman/go/textio/errors"
	"github.com/jmgilman/go/textio/fs/billy"
	"github.com/jmgilman/go/textio/internal/logging"
	"github.com/jmgilman/go/textio/metrics"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// envConfig holds the environment defaults for the flags.
type envConfig struct {
	From     string `envconfig:"FROM" default:"utf-8"`
	To       string `envconfig:"TO" default:"utf-8"`
	BOM      string `envconfig:"BOM"`
	NewLine  string `envconfig:"NEWLINE" default:"keep"`
	Out      string `envconfig:"OUT"`
	Jobs     int    `envconfig:"JOBS" default:"4"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
}

// job is a parsed command line.
type job struct {
	from    *textio.Encoding
	to      *textio.Encoding
	newLine string // empty keeps line endings as they are
	outDir  string
	jobs    int
	verbose bool
	files   []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "textconv: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var env envConfig
	if err := envconfig.Process("TEXTCONV", &env); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to read environment")
	}

	flags := flag.NewFlagSet("textconv", flag.ContinueOnError)
	flags.SetOutput(stderr)
	from := flags.String("from", env.From, "encoding to assume when the input has no byte-order mark")
	to := flags.String("to", env.To, "output encoding")
	bom := flags.String("bom", env.BOM, "force the output byte-order mark on or off")
	newLine := flags.String("newline", env.NewLine, "line endings to write: keep, lf, crlf or cr")
	outDir := flags.String("out", env.Out, "output directory; standard output when empty")
	jobs := flags.Int("jobs", env.Jobs, "files converted in parallel")
	logLevel := flags.String("log-level", env.LogLevel, "log level: debug, info, warn or error")
	verbose := flags.Bool("v", false, "print conversion counters when done")
	if err := flags.Parse(args); err != nil {
		return err
	}

	j, err := parseJob(*from, *to, *bom, *newLine, *outDir, *jobs, flags.Args())
	if err != nil {
		return err
	}
	j.verbose = *verbose

	level, err := logging.ParseLogLevel(*logLevel)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid log level")
	}
	logger := logging.NewLogger(logging.LogConfig{Level: level, Output: stderr})

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg, "textconv")

	err = convertAll(ctx, j, stdout, logger.Slog(), rec)
	if j.verbose {
		if serr := summarize(stderr, reg); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

func parseJob(from, to, bom, newLine, outDir string, jobs int, files []string) (*job, error) {
	if len(files) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "no input files")
	}
	if jobs < 1 {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidArgument, "jobs must be positive"), "jobs", jobs)
	}

	j := &job{outDir: outDir, jobs: jobs, files: files}

	var err error
	if j.from, err = textio.Lookup(from); err != nil {
		return nil, err
	}
	if j.to, err = textio.Lookup(to); err != nil {
		return nil, err
	}

	switch strings.ToLower(bom) {
	case "":
	case "on", "true", "yes":
		j.to = j.to.WithPreamble(true)
	case "off", "false", "no":
		j.to = j.to.WithPreamble(false)
	default:
		return nil, errors.WithContext(errors.New(errors.CodeInvalidArgument, "invalid -bom value"), "bom", bom)
	}

	if !strings.EqualFold(newLine, "keep") {
		if j.newLine, err = textio.ParseNewLine(newLine); err != nil {
			return nil, err
		}
	}
	if outDir != "" {
		if err := checkOutDir(outDir, files); err != nil {
			return nil, err
		}
	}
	return j, nil
}

// checkOutDir rejects an output directory that holds one of the inputs,
// since creating the output would truncate the input.
func checkOutDir(outDir string, files []string) error {
	out, err := filepath.Abs(outDir)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidArgument, "invalid output directory")
	}
	for _, name := range files {
		dir, err := filepath.Abs(filepath.Dir(name))
		if err != nil {
			return errors.WithContext(errors.Wrap(err, errors.CodeInvalidArgument, "invalid input path"), "file", name)
		}
		if dir == out {
			return errors.WithContext(
				errors.New(errors.CodeInvalidArgument, "output directory contains the input"), "file", name)
		}
	}
	return nil
}

// convertAll converts every file, at most j.jobs at a time. Output to
// stdout is sequential so files do not interleave.
func convertAll(ctx context.Context, j *job, stdout io.Writer, logger *slog.Logger, rec metrics.Recorder) error {
	var out *billy.FS
	if j.outDir != "" {
		if err := os.MkdirAll(j.outDir, 0o755); err != nil {
			return err
		}
		out = billy.NewLocal(j.outDir)
	}

	g, ctx := errgroup.WithContext(ctx)
	if out == nil {
		g.SetLimit(1)
	} else {
		g.SetLimit(j.jobs)
	}

	for _, name := range j.files {
		g.Go(func() error {
			c := &converter{job: j, out: out, stdout: stdout, logger: logger, metrics: rec}
			if err := c.convert(ctx, name); err != nil {
				return errors.WithContext(err, "file", name)
			}
			logger.Info("converted", "file", name, "from", j.from.Name(), "to", j.to.Name())
			return nil
		})
	}
	return g.Wait()
}

// converter transcodes one file.
type converter struct {
	job     *job
	out     *billy.FS
	stdout  io.Writer
	logger  *slog.Logger
	metrics metrics.Recorder
}

func (c *converter) options(enc *textio.Encoding) []textio.Option {
	return []textio.Option{
		textio.WithEncoding(enc),
		textio.WithLogger(c.logger),
		textio.WithMetrics(c.metrics),
	}
}

func (c *converter) convert(ctx context.Context, name string) (err error) {
	in := billy.NewLocal(filepath.Dir(name))
	r, err := textio.OpenText(in, filepath.Base(name), c.options(c.job.from)...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()

	var w *textio.Writer
	if c.out != nil {
		w, err = textio.CreateText(c.out, filepath.Base(name), c.options(c.job.to)...)
	} else {
		w, err = textio.NewWriter(c.stdout, append(c.options(c.job.to), textio.WithLeaveOpen(true))...)
	}
	if err != nil {
		return err
	}

	if err := transcode(ctx, r, w, c.job.newLine); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// transcode copies r to w, rewriting line endings to newLine unless it is
// empty.
func transcode(ctx context.Context, r *textio.Reader, w *textio.Writer, newLine string) error {
	buf := make([]rune, 4096)
	t := &newLineTranslator{newLine: newLine}
	var sb strings.Builder

	for {
		n, err := r.ReadIntoContext(ctx, buf, 0, len(buf))
		if n > 0 {
			sb.Reset()
			t.translate(&sb, buf[:n])
			if _, werr := w.WriteString(sb.String()); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	sb.Reset()
	t.finish(&sb)
	_, err := w.WriteString(sb.String())
	return err
}

// newLineTranslator rewrites "\r", "\n" and "\r\n" to a single terminator.
// A trailing '\r' is held until the next rune shows whether it starts a
// "\r\n" pair.
type newLineTranslator struct {
	newLine   string
	pendingCR bool
}

func (t *newLineTranslator) translate(sb *strings.Builder, in []rune) {
	if t.newLine == "" {
		for _, ch := range in {
			sb.WriteRune(ch)
		}
		return
	}

	for _, ch := range in {
		switch ch {
		case '\r':
			if t.pendingCR {
				sb.WriteString(t.newLine)
			}
			t.pendingCR = true
		case '\n':
			sb.WriteString(t.newLine)
			t.pendingCR = false
		default:
			if t.pendingCR {
				sb.WriteString(t.newLine)
				t.pendingCR = false
			}
			sb.WriteRune(ch)
		}
	}
}

func (t *newLineTranslator) finish(sb *strings.Builder) {
	if t.pendingCR {
		sb.WriteString(t.newLine)
		t.pendingCR = false
	}
}

// summarize prints every counter in reg, one per line.
func summarize(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
