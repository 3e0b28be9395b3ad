package textio

import "bytes"

// signatures lists the recognised byte-order marks, longest first so that
// FF FE 00 00 wins over FF FE.
var signatures = []struct {
	enc *Encoding
	bom []byte
}{
	{UTF32LE, bomUTF32LE},
	{UTF32BE, bomUTF32BE},
	{UTF8, bomUTF8},
	{UTF16LE, bomUTF16LE},
	{UTF16BE, bomUTF16BE},
}

// DetectBOM matches the start of b against the known byte-order marks.
//
// It returns the encoding and length of the longest full match, or nil and
// 0. more reports that b is a proper prefix of a longer signature, so the
// answer may change once more bytes are available: FF FE alone is
// UTF-16LE but could still become UTF-32LE.
func DetectBOM(b []byte) (enc *Encoding, size int, more bool) {
	for _, s := range signatures {
		if len(b) < len(s.bom) {
			if bytes.HasPrefix(s.bom, b) {
				more = true
			}
			continue
		}
		if enc == nil && bytes.HasPrefix(b, s.bom) {
			enc, size = s.enc, len(s.bom)
		}
	}
	return enc, size, more
}
