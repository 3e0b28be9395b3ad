package textio

import (
	stderrors "errors"
	"io"
	"iter"
	"os"

	"github.com/jmgilman/go/textio/fs/core"
)

// OpenText opens name for reading as text. The Reader owns the file and
// closes it on Close.
func OpenText(fsys core.ReadFS, name string, opts ...Option) (*Reader, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, append(opts, WithLeaveOpen(false))...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// CreateText creates or truncates name for writing text. The Writer owns
// the file and closes it on Close.
func CreateText(fsys core.WriteFS, name string, opts ...Option) (*Writer, error) {
	f, err := fsys.Create(name)
	if err != nil {
		return nil, err
	}
	return ownWriter(f, opts)
}

// AppendText opens name for appending text, creating it if needed. The
// preamble is only written when the file starts out empty. Providers
// that cannot append return core.ErrUnsupported.
func AppendText(fsys core.WriteFS, name string, opts ...Option) (*Writer, error) {
	f, err := fsys.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return ownWriter(f, opts)
}

func ownWriter(f core.File, opts []Option) (*Writer, error) {
	w, err := NewWriter(f, append(opts, WithLeaveOpen(false))...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// ReadAllText reads the whole of name.
func ReadAllText(fsys core.ReadFS, name string, opts ...Option) (string, error) {
	r, err := OpenText(fsys, name, opts...)
	if err != nil {
		return "", err
	}
	s, err := r.ReadToEnd()
	return s, stderrors.Join(err, r.Close())
}

// ReadAllLines reads every line of name.
func ReadAllLines(fsys core.ReadFS, name string, opts ...Option) ([]string, error) {
	var lines []string
	for line, err := range ReadLines(fsys, name, opts...) {
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ReadLines returns an iterator over the lines of name. The file is opened
// when iteration starts and closed when it ends. An open, read or close
// failure is yielded as the final element.
func ReadLines(fsys core.ReadFS, name string, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r, err := OpenText(fsys, name, opts...)
		if err != nil {
			yield("", err)
			return
		}

		for {
			line, err := r.ReadLine()
			if stderrors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = r.Close()
				yield("", err)
				return
			}
			if !yield(line, nil) {
				_ = r.Close()
				return
			}
		}
		if err := r.Close(); err != nil {
			yield("", err)
		}
	}
}

// WriteAllText replaces the content of name with text.
func WriteAllText(fsys core.WriteFS, name, text string, opts ...Option) error {
	w, err := CreateText(fsys, name, opts...)
	if err != nil {
		return err
	}
	return finish(w, func() error {
		_, err := w.WriteString(text)
		return err
	})
}

// WriteAllLines replaces the content of name with lines, each followed by
// the line terminator.
func WriteAllLines(fsys core.WriteFS, name string, lines []string, opts ...Option) error {
	w, err := CreateText(fsys, name, opts...)
	if err != nil {
		return err
	}
	return finish(w, func() error { return writeLines(w, lines) })
}

// AppendAllText appends text to name, creating it if needed.
func AppendAllText(fsys core.WriteFS, name, text string, opts ...Option) error {
	w, err := AppendText(fsys, name, opts...)
	if err != nil {
		return err
	}
	return finish(w, func() error {
		_, err := w.WriteString(text)
		return err
	})
}

// AppendAllLines appends lines to name, creating it if needed.
func AppendAllLines(fsys core.WriteFS, name string, lines []string, opts ...Option) error {
	w, err := AppendText(fsys, name, opts...)
	if err != nil {
		return err
	}
	return finish(w, func() error { return writeLines(w, lines) })
}

func writeLines(w *Writer, lines []string) error {
	for _, line := range lines {
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

// finish runs fn and closes w, reporting both failures.
func finish(w *Writer, fn func() error) error {
	return stderrors.Join(fn(), w.Close())
}
