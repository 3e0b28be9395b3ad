package textio

import (
	stderrors "errors"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Decoder converts bytes to runes, carrying incomplete sequences between
// calls.
type Decoder struct {
	t       transform.Transformer
	pending []byte // undecoded tail from the previous call
	spill   []rune // decoded runes that did not fit in the previous dst
	scratch []byte // UTF-8 output of t
}

// Decode decodes src into dst and returns the number of runes written.
//
// An incomplete trailing sequence is kept for the next call unless flush is
// set, in which case it is decoded (usually as U+FFFD) and the decoder is
// reset. If dst is too small the excess runes are returned by the next
// call before any new input. A malformed sequence fails the call after
// the runes before it were written; decoding resumes past its first byte
// on the next call.
func (d *Decoder) Decode(dst []rune, src []byte, flush bool) (int, error) {
	n := copy(dst, d.spill)
	d.spill = d.spill[n:]
	if len(d.spill) == 0 {
		d.spill = nil
	}

	in := src
	if len(d.pending) > 0 {
		in = append(d.pending, src...)
		d.pending = nil
	}

	if want := len(in)*3 + utf8.UTFMax; cap(d.scratch) < want {
		d.scratch = make([]byte, want)
	}

	for {
		nDst, nSrc, err := d.t.Transform(d.scratch[:cap(d.scratch)], in, flush)
		n = d.emit(dst, n, d.scratch[:nDst])
		in = in[nSrc:]

		switch {
		case err == nil:
			if flush {
				d.t.Reset()
			}
			return n, nil
		case stderrors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.scratch = make([]byte, 2*cap(d.scratch))
			}
		case stderrors.Is(err, transform.ErrShortSrc):
			if flush {
				// The transformer refused to finish the tail at end of input.
				for range in {
					n = d.put(dst, n, utf8.RuneError)
				}
				d.t.Reset()
				return n, nil
			}
			d.pending = append([]byte(nil), in...)
			return n, nil
		default:
			// Skip the offending byte and keep the rest for the next call.
			d.t.Reset()
			if len(in) > 1 {
				d.pending = append([]byte(nil), in[1:]...)
			}
			return n, malformed(err, "decode")
		}
	}
}

// Buffered returns the number of decoded runes waiting to be returned.
func (d *Decoder) Buffered() int {
	return len(d.spill)
}

// Reset discards all carried state.
func (d *Decoder) Reset() {
	d.t.Reset()
	d.pending = nil
	d.spill = nil
}

func (d *Decoder) emit(dst []rune, n int, b []byte) int {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		n = d.put(dst, n, r)
		b = b[size:]
	}
	return n
}

func (d *Decoder) put(dst []rune, n int, r rune) int {
	if n < len(dst) {
		dst[n] = r
		return n + 1
	}
	d.spill = append(d.spill, r)
	return n
}

// Encoder converts UTF-8 text to bytes, carrying incomplete UTF-8
// sequences between calls.
type Encoder struct {
	t       transform.Transformer
	pending []byte
}

// Encode appends the encoding of src to dst.
//
// An incomplete trailing UTF-8 sequence is kept for the next call unless
// flush is set, in which case the encoder is reset after the tail is
// encoded. On error dst is returned truncated to its original length and
// the carried state is left as it was before the call.
func (e *Encoder) Encode(dst, src []byte, flush bool) ([]byte, error) {
	start := len(dst)
	saved := e.pending

	in := src
	if len(e.pending) > 0 {
		in = append(append([]byte(nil), e.pending...), src...)
		e.pending = nil
	}

	for {
		if cap(dst)-len(dst) < utf8.UTFMax*4 {
			dst = grow(dst, len(in)*4+utf8.UTFMax*4)
		}
		nDst, nSrc, err := e.t.Transform(dst[len(dst):cap(dst)], in, flush)
		dst = dst[:len(dst)+nDst]
		in = in[nSrc:]

		switch {
		case err == nil:
			if flush {
				e.t.Reset()
			}
			return dst, nil
		case stderrors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = grow(dst, 2*cap(dst)+utf8.UTFMax)
			}
		case stderrors.Is(err, transform.ErrShortSrc) && !flush:
			e.pending = append([]byte(nil), in...)
			return dst, nil
		default:
			e.t.Reset()
			e.pending = saved
			return dst[:start], malformed(err, "encode")
		}
	}
}

// Reset discards all carried state.
func (e *Encoder) Reset() {
	e.t.Reset()
	e.pending = nil
}

// grow returns b with room for at least n more bytes.
func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b
	}
	nb := make([]byte, len(b), len(b)+n)
	copy(nb, b)
	return nb
}
