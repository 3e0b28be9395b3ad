package fstest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/jmgilman/go/textio"
	"github.com/jmgilman/go/textio/fs/core"
)

// testText checks that textio's file helpers behave on the provider.
func testText(t *testing.T, filesystem core.FS, config FSTestConfig) {
	if !config.VirtualDirectories {
		if err := filesystem.MkdirAll("text", 0o755); err != nil {
			t.Fatalf("MkdirAll(%q): setup failed: %v", "text", err)
		}
	}

	run(t, config, "Text", "RoundTrip", func(t *testing.T) {
		encodings := []*textio.Encoding{
			textio.UTF8, textio.UTF8NoBOM, textio.UTF16LE, textio.UTF16BE, textio.UTF32LE, textio.UTF32BE,
		}
		want := "héllo\r\nwörld\n€ and 𝄞\r"
		for i, enc := range encodings {
			t.Run(enc.String(), func(t *testing.T) {
				name := fmt.Sprintf("text/roundtrip-%d.txt", i)
				if err := textio.WriteAllText(filesystem, name, want, textio.WithEncoding(enc)); err != nil {
					t.Fatalf("WriteAllText(%q): got error %v, want nil", name, err)
				}
				got, err := textio.ReadAllText(filesystem, name)
				if err != nil {
					t.Fatalf("ReadAllText(%q): got error %v, want nil", name, err)
				}
				if got != want {
					t.Errorf("ReadAllText(%q): got %q, want %q", name, got, want)
				}
			})
		}
	})

	run(t, config, "Text", "Lines", func(t *testing.T) {
		lines := []string{"alpha", "", "gamma"}
		if err := textio.WriteAllLines(filesystem, "text/lines.txt", lines, textio.WithNewLine("\r\n")); err != nil {
			t.Fatalf("WriteAllLines(): got error %v, want nil", err)
		}
		got, err := textio.ReadAllLines(filesystem, "text/lines.txt")
		if err != nil {
			t.Fatalf("ReadAllLines(): got error %v, want nil", err)
		}
		if len(got) != len(lines) {
			t.Fatalf("ReadAllLines(): got %d lines %q, want %q", len(got), got, lines)
		}
		for i := range lines {
			if got[i] != lines[i] {
				t.Errorf("line %d: got %q, want %q", i, got[i], lines[i])
			}
		}
	})

	run(t, config, "Text", "AppendSinglePreamble", func(t *testing.T) {
		name := "text/append.txt"
		if err := textio.WriteAllText(filesystem, name, "first;", textio.WithEncoding(textio.UTF8)); err != nil {
			t.Fatalf("WriteAllText(%q): got error %v, want nil", name, err)
		}

		err := textio.AppendAllText(filesystem, name, "second", textio.WithEncoding(textio.UTF8))
		if !config.SupportsAppend {
			if !errors.Is(err, core.ErrUnsupported) {
				t.Errorf("AppendAllText(%q): got error %v, want core.ErrUnsupported", name, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("AppendAllText(%q): got error %v, want nil", name, err)
		}

		raw := readFile(t, filesystem, name)
		want := append(append([]byte{}, textio.UTF8.Preamble()...), "first;second"...)
		if !bytes.Equal(raw, want) {
			t.Errorf("raw content: got % x, want % x", raw, want)
		}
	})

	run(t, config, "Text", "OpenMissing", func(t *testing.T) {
		if _, err := textio.OpenText(filesystem, "text/missing.txt"); err == nil {
			t.Errorf("OpenText(%q): got nil error, want error", "text/missing.txt")
		}
	})
}
