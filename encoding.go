package textio

import (
	"strings"
	"unicode/utf8"

	"github.com/jmgilman/go/textio/errors"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// Encoding describes a character encoding: how to build its stateful
// decoder and encoder, its preamble, and how to size buffers for it.
//
// Encodings are immutable. The With* and Strict methods return copies.
type Encoding struct {
	name string
	enc  encoding.Encoding

	// preamble is written before the first encoded byte and recognised at
	// the start of a stream. signature is the canonical byte-order mark,
	// kept so a BOM-less variant can be turned back on.
	preamble  []byte
	signature []byte

	unitSize   int // minimum bytes per character
	maxPending int // maximum undecoded tail a decoder carries between calls
	expansion  int // maximum encoded bytes per UTF-8 input byte

	utf8   bool
	strict bool
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
)

// Unicode encodings. The x/text codecs underneath ignore byte-order marks;
// readers strip them and writers emit the preamble themselves.
var (
	// UTF8 is UTF-8 with the EF BB BF preamble. It is the default reader
	// encoding.
	UTF8 = &Encoding{
		name: "utf-8", enc: unicode.UTF8, preamble: bomUTF8, signature: bomUTF8,
		unitSize: 1, maxPending: 3, expansion: 3, utf8: true,
	}

	// UTF8NoBOM is UTF-8 without a preamble. It is the default writer
	// encoding.
	UTF8NoBOM = &Encoding{
		name: "utf-8", enc: unicode.UTF8, signature: bomUTF8,
		unitSize: 1, maxPending: 3, expansion: 3, utf8: true,
	}

	// UTF16LE is little-endian UTF-16 with the FF FE preamble.
	UTF16LE = &Encoding{
		name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		preamble: bomUTF16LE, signature: bomUTF16LE,
		unitSize: 2, maxPending: 3, expansion: 2,
	}

	// UTF16BE is big-endian UTF-16 with the FE FF preamble.
	UTF16BE = &Encoding{
		name: "utf-16be", enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
		preamble: bomUTF16BE, signature: bomUTF16BE,
		unitSize: 2, maxPending: 3, expansion: 2,
	}

	// UTF32LE is little-endian UTF-32 with the FF FE 00 00 preamble.
	UTF32LE = &Encoding{
		name: "utf-32le", enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
		preamble: bomUTF32LE, signature: bomUTF32LE,
		unitSize: 4, maxPending: 3, expansion: 4,
	}

	// UTF32BE is big-endian UTF-32 with the 00 00 FE FF preamble.
	UTF32BE = &Encoding{
		name: "utf-32be", enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
		preamble: bomUTF32BE, signature: bomUTF32BE,
		unitSize: 4, maxPending: 3, expansion: 4,
	}
)

// NewEncoding wraps an arbitrary x/text encoding. Sizing is conservative:
// one byte per character, up to 8 undecoded bytes carried between calls,
// and up to 4 output bytes per UTF-8 input byte.
func NewEncoding(name string, enc encoding.Encoding, preamble []byte) *Encoding {
	return &Encoding{
		name:       name,
		enc:        enc,
		preamble:   clone(preamble),
		signature:  clone(preamble),
		unitSize:   1,
		maxPending: 8,
		expansion:  4,
	}
}

// labels maps the Unicode labels Lookup resolves without x/net.
var labels = map[string]*Encoding{
	"utf-8":     UTF8NoBOM,
	"utf8":      UTF8NoBOM,
	"utf-8-bom": UTF8,
	"utf-16":    UTF16LE,
	"utf-16le":  UTF16LE,
	"utf-16be":  UTF16BE,
	"utf-32":    UTF32LE,
	"utf-32le":  UTF32LE,
	"utf-32be":  UTF32BE,
}

// Lookup resolves a charset label such as "utf-16be", "latin1" or
// "shift_jis". Unicode labels resolve to the presets; "utf-8" resolves to
// UTF8NoBOM and "utf-8-bom" to UTF8. Other labels follow the WHATWG
// Encoding Standard and carry no preamble.
func Lookup(label string) (*Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if enc, ok := labels[key]; ok {
		return enc, nil
	}

	enc, name := charset.Lookup(key)
	if enc == nil {
		return nil, errors.WithContext(
			errors.New(errors.CodeNotFound, "unknown encoding label"), "label", label)
	}
	return NewEncoding(name, enc, nil), nil
}

// Name returns the encoding's canonical name.
func (e *Encoding) Name() string { return e.name }

// String implements fmt.Stringer.
func (e *Encoding) String() string {
	if len(e.preamble) > 0 && e.utf8 {
		return e.name + " (bom)"
	}
	return e.name
}

// Preamble returns a copy of the bytes written before encoded text.
func (e *Encoding) Preamble() []byte { return clone(e.preamble) }

// Encoding returns the underlying x/text encoding.
func (e *Encoding) Encoding() encoding.Encoding { return e.enc }

// IsStrict reports whether the encoding reports malformed or
// unrepresentable text instead of substituting it.
func (e *Encoding) IsStrict() bool { return e.strict }

// Strict returns a copy whose encoder fails on invalid UTF-8 input and on
// characters the encoding cannot represent. For UTF-8 the decoder also
// fails on invalid bytes. Other decoders substitute U+FFFD regardless.
func (e *Encoding) Strict() *Encoding {
	c := *e
	c.strict = true
	return &c
}

// WithPreamble returns a copy with the canonical byte-order mark enabled
// or disabled. Encodings without a byte-order mark are returned unchanged.
func (e *Encoding) WithPreamble(enabled bool) *Encoding {
	if len(e.signature) == 0 || enabled == (len(e.preamble) > 0) {
		return e
	}
	c := *e
	c.preamble = nil
	if enabled {
		c.preamble = e.signature
	}
	return &c
}

// MaxCharsForByteCount bounds the runes produced by decoding n fresh bytes
// together with any tail the decoder carried over.
func (e *Encoding) MaxCharsForByteCount(n int) int {
	if n < 0 {
		n = 0
	}
	return (n+e.maxPending)/e.unitSize + 1
}

// MaxBytesForCharCount bounds the bytes produced by encoding n bytes of
// UTF-8 text together with a carried partial sequence.
func (e *Encoding) MaxBytesForCharCount(n int) int {
	if n < 0 {
		n = 0
	}
	return (n + utf8.UTFMax) * e.expansion
}

// NewDecoder returns a fresh stateful decoder.
func (e *Encoding) NewDecoder() *Decoder {
	var t transform.Transformer = e.enc.NewDecoder()
	if e.strict && e.utf8 {
		t = encoding.UTF8Validator
	}
	return &Decoder{t: t}
}

// NewEncoder returns a fresh stateful encoder.
func (e *Encoding) NewEncoder() *Encoder {
	enc := e.enc.NewEncoder()
	var t transform.Transformer
	if e.strict {
		t = transform.Chain(encoding.UTF8Validator, enc)
	} else {
		t = encoding.ReplaceUnsupported(enc)
	}
	return &Encoder{t: t}
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
