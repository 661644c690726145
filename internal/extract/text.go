package extract

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	xunicode "golang.org/x/text/encoding/unicode"
)

// maxControlRatio is the share of control characters above which a
// decoding is considered binary garbage.
const maxControlRatio = 0.10

// decodeText tries each encoding in order and returns the first decoding
// that looks like text.
func decodeText(data []byte, encodings []string) (string, bool) {
	if len(data) == 0 {
		return "", true
	}

	for _, name := range encodings {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "utf-8", "utf8":
			if s, ok := decodeUTF8(data); ok {
				return s, true
			}
		case "utf-16", "utf16":
			if s, ok := decodeUTF16(data); ok {
				return s, true
			}
		default:
			enc := legacyEncoding(name)
			if enc == nil {
				continue
			}
			out, err := enc.NewDecoder().Bytes(data)
			if err == nil && plausible(string(out)) {
				return string(out), true
			}
		}
	}
	return "", false
}

func decodeUTF8(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		return "", false
	}
	s := string(data)
	return s, plausible(s)
}

// decodeUTF16 only accepts input that starts with a byte-order mark;
// guessing endianness of BOM-less data misreads single-byte text.
func decodeUTF16(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return "", false
	}
	dec := xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", false
	}
	s := string(out)
	return s, plausible(s)
}

func legacyEncoding(name string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252
	case "iso-8859-1", "latin-1", "latin1":
		return charmap.ISO8859_1
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil
	}
	return enc
}

// plausible rejects decodings containing NUL, replacement characters from
// undefined code points, or too many control characters.
func plausible(s string) bool {
	total, bad := 0, 0
	for _, r := range s {
		total++
		switch {
		case r == 0:
			return false
		case r == utf8.RuneError:
			bad++
		case r == '\n' || r == '\r' || r == '\t' || r == '\f':
		case unicode.IsControl(r):
			bad++
		}
	}
	if total == 0 {
		return true
	}
	return float64(bad)/float64(total) <= maxControlRatio
}
