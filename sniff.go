package textio

import "github.com/saintfish/chardet"

// sniffEncoding guesses the encoding of sample. It returns nil when the
// detector is unsure or names a charset Lookup does not know.
func sniffEncoding(sample []byte, minConfidence int) *Encoding {
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res.Confidence < minConfidence {
		return nil
	}
	enc, err := Lookup(res.Charset)
	if err != nil {
		return nil
	}
	return enc
}
