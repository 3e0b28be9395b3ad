package fstest

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/textio/fs/core"
)

// testSource checks Open, Stat and Exists.
func testSource(t *testing.T, filesystem core.FS, config FSTestConfig) {
	content := []byte("line one\r\nline two\n")
	writeFile(t, filesystem, config, "src/data.txt", content)

	run(t, config, "Source", "OpenAndRead", func(t *testing.T) {
		f, err := filesystem.Open("src/data.txt")
		if err != nil {
			t.Fatalf("Open(%q): got error %v, want nil", "src/data.txt", err)
		}
		defer func() { _ = f.Close() }()

		got, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("ReadAll(): got error %v, want nil", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("ReadAll(): got %q, want %q", got, content)
		}
	})

	run(t, config, "Source", "ShortReads", func(t *testing.T) {
		f, err := filesystem.Open("src/data.txt")
		if err != nil {
			t.Fatalf("Open(%q): got error %v, want nil", "src/data.txt", err)
		}
		defer func() { _ = f.Close() }()

		var got []byte
		buf := make([]byte, 3)
		for {
			n, err := f.Read(buf)
			got = append(got, buf[:n]...)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("Read(): got error %v, want nil", err)
			}
		}
		if !bytes.Equal(got, content) {
			t.Errorf("chunked Read(): got %q, want %q", got, content)
		}
	})

	run(t, config, "Source", "Stat", func(t *testing.T) {
		info, err := filesystem.Stat("src/data.txt")
		if err != nil {
			t.Fatalf("Stat(%q): got error %v, want nil", "src/data.txt", err)
		}
		if info.Size() != int64(len(content)) {
			t.Errorf("Stat(%q).Size(): got %d, want %d", "src/data.txt", info.Size(), len(content))
		}
		if info.IsDir() {
			t.Errorf("Stat(%q).IsDir(): got true, want false", "src/data.txt")
		}
	})

	run(t, config, "Source", "Exists", func(t *testing.T) {
		ok, err := filesystem.Exists("src/data.txt")
		if err != nil || !ok {
			t.Errorf("Exists(%q): got (%v, %v), want (true, nil)", "src/data.txt", ok, err)
		}
		ok, err = filesystem.Exists("src/missing.txt")
		if err != nil || ok {
			t.Errorf("Exists(%q): got (%v, %v), want (false, nil)", "src/missing.txt", ok, err)
		}
	})

	run(t, config, "Source", "OpenNotExist", func(t *testing.T) {
		f, err := filesystem.Open("src/missing.txt")
		if err == nil {
			_ = f.Close()
			// Some object stores only report a missing key on first read.
			t.Fatalf("Open(%q): got nil error, want fs.ErrNotExist", "src/missing.txt")
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Open(%q): got error %v, want fs.ErrNotExist", "src/missing.txt", err)
		}
	})
}

// writeFile creates name with content, creating parents when required.
func writeFile(t *testing.T, filesystem core.FS, config FSTestConfig, name string, content []byte) {
	t.Helper()
	if !config.VirtualDirectories {
		if err := filesystem.MkdirAll(parent(name), 0o755); err != nil {
			t.Fatalf("MkdirAll(%q): setup failed: %v", parent(name), err)
		}
	}
	f, err := filesystem.Create(name)
	if err != nil {
		t.Fatalf("Create(%q): setup failed: %v", name, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		t.Fatalf("Write(%q): setup failed: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close(%q): setup failed: %v", name, err)
	}
}

// readFile returns the full content of name.
func readFile(t *testing.T, filesystem core.FS, name string) []byte {
	t.Helper()
	f, err := filesystem.Open(name)
	if err != nil {
		t.Fatalf("Open(%q): got error %v, want nil", name, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll(%q): got error %v, want nil", name, err)
	}
	return data
}

func parent(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return "."
}
