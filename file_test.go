package textio

import (
	"io"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/textio/fs/billy"
	"github.com/stretchr/testify/require"
)

func readRaw(t *testing.T, fsys *billy.FS, name string) []byte {
	t.Helper()
	f, err := fsys.Open(name)
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	return b
}

func TestWriteAllText_ReadAllText(t *testing.T) {
	fsys := billy.NewMemory()

	require.NoError(t, WriteAllText(fsys, "notes.txt", "grüße\r\n", WithEncoding(UTF16BE)))
	require.Equal(t, encode(t, UTF16BE, "grüße\r\n"), readRaw(t, fsys, "notes.txt"))

	got, err := ReadAllText(fsys, "notes.txt")
	require.NoError(t, err)
	require.Equal(t, "grüße\r\n", got)
}

func TestWriteAllText_Truncates(t *testing.T) {
	fsys := billy.NewMemory()

	require.NoError(t, WriteAllText(fsys, "a.txt", "a much longer first version"))
	require.NoError(t, WriteAllText(fsys, "a.txt", "short"))

	got, err := ReadAllText(fsys, "a.txt")
	require.NoError(t, err)
	require.Equal(t, "short", got)
}

func TestWriteAllLines_ReadLines(t *testing.T) {
	fsys := billy.NewMemory()
	lines := []string{"one", "two", "three"}

	require.NoError(t, WriteAllLines(fsys, "lines.txt", lines, WithNewLine("\n")))
	require.Equal(t, "one\ntwo\nthree\n", string(readRaw(t, fsys, "lines.txt")))

	var got []string
	for line, err := range ReadLines(fsys, "lines.txt") {
		require.NoError(t, err)
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	require.Equal(t, lines[:2], got)

	all, err := ReadAllLines(fsys, "lines.txt")
	require.NoError(t, err)
	require.Equal(t, lines, all)
}

func TestAppendAllText_SinglePreamble(t *testing.T) {
	fsys := billy.NewMemory()

	require.NoError(t, AppendAllText(fsys, "log.txt", "first;", WithEncoding(UTF8)))
	require.NoError(t, AppendAllText(fsys, "log.txt", "second", WithEncoding(UTF8)))
	require.NoError(t, AppendAllLines(fsys, "log.txt", []string{"", "third"}, WithEncoding(UTF8), WithNewLine("\n")))

	want := append([]byte{0xEF, 0xBB, 0xBF}, "first;second\nthird\n"...)
	require.Equal(t, want, readRaw(t, fsys, "log.txt"))
}

func TestOpenText_Missing(t *testing.T) {
	fsys := billy.NewMemory()

	_, err := OpenText(fsys, "missing.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = ReadAllText(fsys, "missing.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = ReadAllLines(fsys, "missing.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenText_ClosesFileOnBadOptions(t *testing.T) {
	fsys := billy.NewMemory()
	require.NoError(t, WriteAllText(fsys, "a.txt", "x"))

	_, err := OpenText(fsys, "a.txt", WithBufferSize(-1))
	require.Error(t, err)

	_, err = CreateText(fsys, "b.txt", WithEncoding(nil))
	require.Error(t, err)
}

func TestCreateText_OwnsFile(t *testing.T) {
	fsys := billy.NewMemory()

	w, err := CreateText(fsys, "owned.txt", WithLeaveOpen(true))
	require.NoError(t, err)
	require.NoError(t, w.WriteLine("x"))
	require.NoError(t, w.Close())

	f := w.Underlying().(io.Closer)
	require.Error(t, f.Close(), "the writer closes the file it opened")
}
