package textio

import (
	"testing"
	"unicode/utf8"

	"github.com/jmgilman/go/textio/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
)

func TestDecoder_CarriesPartialUnits(t *testing.T) {
	d := UTF16LE.NewDecoder()
	dst := make([]rune, 8)

	n, err := d.Decode(dst, []byte{0x61}, false)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = d.Decode(dst, []byte{0x00, 0x62, 0x00}, false)
	require.NoError(t, err)
	require.Equal(t, []rune("ab"), dst[:n])

	n, err = d.Decode(dst, []byte{0x63}, true)
	require.NoError(t, err)
	require.Equal(t, []rune{utf8.RuneError}, dst[:n])
}

func TestDecoder_Spill(t *testing.T) {
	d := UTF8NoBOM.NewDecoder()
	dst := make([]rune, 1)

	n, err := d.Decode(dst, []byte("abc"), false)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 'a', dst[0])
	require.Equal(t, 2, d.Buffered())

	n, err = d.Decode(dst, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 'b', dst[0])

	d.Reset()
	require.Zero(t, d.Buffered())
}

func TestDecoder_StrictUTF8(t *testing.T) {
	d := UTF8.Strict().NewDecoder()
	dst := make([]rune, 8)

	n, err := d.Decode(dst, []byte{0xE2, 0x82}, false)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = d.Decode(dst, []byte{0xAC}, false)
	require.NoError(t, err)
	require.Equal(t, []rune("€"), dst[:n])

	_, err = d.Decode(dst, []byte{0xC0, 0x41}, true)
	require.ErrorIs(t, err, encoding.ErrInvalidUTF8)
	require.True(t, errors.HasCode(err, errors.CodeMalformedInput))

	n, err = d.Decode(dst, nil, true)
	require.NoError(t, err)
	require.Equal(t, []rune("A"), dst[:n])
}

func TestEncoder_CarriesPartialSequence(t *testing.T) {
	e := UTF8NoBOM.NewEncoder()

	out, err := e.Encode(nil, []byte{0xE2, 0x82}, false)
	require.NoError(t, err)
	require.Empty(t, out)

	out, err = e.Encode(out, []byte{0xAC}, true)
	require.NoError(t, err)
	require.Equal(t, []byte("€"), out)
}

func TestEncoder_FlushReplacesTruncatedSequence(t *testing.T) {
	e := UTF16BE.NewEncoder()

	out, err := e.Encode(nil, []byte{'a', 0xE2}, true)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x61, 0xFF, 0xFD}, out)
}

func TestEncoder_StrictFailureLeavesDst(t *testing.T) {
	e := UTF16LE.Strict().NewEncoder()
	dst := []byte{0x01}

	out, err := e.Encode(dst, []byte{'a', 0xFF}, true)
	require.ErrorIs(t, err, encoding.ErrInvalidUTF8)
	require.Equal(t, []byte{0x01}, out)
}

func TestEncoder_UnrepresentableRunes(t *testing.T) {
	latin1, err := Lookup("latin1")
	require.NoError(t, err)

	out, err := latin1.NewEncoder().Encode(nil, []byte("a☃"), true)
	require.NoError(t, err)
	require.Equal(t, []byte("a\x1a"), out)

	_, err = latin1.Strict().NewEncoder().Encode(nil, []byte("a☃"), true)
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.CodeMalformedInput))
}
