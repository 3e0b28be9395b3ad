package fstest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/jmgilman/go/textio/fs/core"
)

// testSink checks Create, OpenFile and the append contract.
func testSink(t *testing.T, filesystem core.FS, config FSTestConfig) {
	run(t, config, "Sink", "CreateTruncates", func(t *testing.T) {
		writeFile(t, filesystem, config, "sink/trunc.txt", []byte("a much longer first version"))
		writeFile(t, filesystem, config, "sink/trunc.txt", []byte("short"))

		if got := readFile(t, filesystem, "sink/trunc.txt"); string(got) != "short" {
			t.Errorf("content after second Create: got %q, want %q", got, "short")
		}
	})

	run(t, config, "Sink", "OpenFileCreate", func(t *testing.T) {
		if !config.VirtualDirectories {
			if err := filesystem.MkdirAll("sink", 0o755); err != nil {
				t.Fatalf("MkdirAll(%q): got error %v", "sink", err)
			}
		}
		f, err := filesystem.OpenFile("sink/new.txt", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			t.Fatalf("OpenFile(%q, O_CREATE): got error %v, want nil", "sink/new.txt", err)
		}
		if f.Name() == "" {
			t.Errorf("Name(): got empty string")
		}
		if _, err := f.Write([]byte("created")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		if got := readFile(t, filesystem, "sink/new.txt"); string(got) != "created" {
			t.Errorf("content: got %q, want %q", got, "created")
		}
	})

	run(t, config, "Sink", "Append", func(t *testing.T) {
		writeFile(t, filesystem, config, "sink/append.txt", []byte("head|"))

		f, err := filesystem.OpenFile("sink/append.txt", os.O_WRONLY|os.O_APPEND, 0o644)
		if !config.SupportsAppend {
			if err == nil {
				_ = f.Close()
				t.Fatalf("OpenFile(O_APPEND): got nil error, want core.ErrUnsupported")
			}
			if !errors.Is(err, core.ErrUnsupported) {
				t.Errorf("OpenFile(O_APPEND): got error %v, want core.ErrUnsupported", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("OpenFile(O_APPEND): got error %v, want nil", err)
		}
		if seeker, ok := f.(io.Seeker); ok {
			pos, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				t.Fatalf("Seek(0, SeekCurrent): got error %v", err)
			}
			if pos != int64(len("head|")) {
				t.Errorf("offset after O_APPEND open: got %d, want %d", pos, len("head|"))
			}
		}
		if _, err := f.Write([]byte("tail")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		if got := readFile(t, filesystem, "sink/append.txt"); !bytes.Equal(got, []byte("head|tail")) {
			t.Errorf("content after append: got %q, want %q", got, "head|tail")
		}
	})
}
