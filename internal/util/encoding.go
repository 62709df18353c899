package util

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// DecodeCharset decodes raw session bytes using the charset configured for the
// session and returns a UTF-8 string. Unknown charsets and undecodable input
// degrade to a direct byte-to-string conversion instead of failing: pattern
// matching over partial terminal output must never error out.
func DecodeCharset(b []byte, charset string) string {
	if len(b) == 0 {
		return ""
	}
	enc := lookupEncoding(charset)
	if enc == nil {
		// utf-8 or unknown: keep raw bytes, Go string matching tolerates
		// invalid sequences
		return string(b)
	}
	if s, ok := tryDecode(enc, b); ok {
		return s
	}
	return string(b)
}

// EnsureUTF8Bytes tries common legacy encodings for bytes that are not valid
// UTF-8 and returns a UTF-8 string. Used when no charset was configured.
func EnsureUTF8Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	encs := []encoding.Encoding{
		simplifiedchinese.GB18030,
		simplifiedchinese.GBK,
		traditionalchinese.Big5,
		charmap.Windows1252,
		charmap.ISO8859_1,
	}
	for _, enc := range encs {
		if s, ok := tryDecode(enc, b); ok {
			return s
		}
	}
	return string(b)
}

// EncodeCharset encodes outbound text with the configured charset. Unknown
// charsets and unrepresentable runes fall back to the raw UTF-8 bytes.
func EncodeCharset(s string, charset string) []byte {
	enc := lookupEncoding(charset)
	if enc == nil {
		return []byte(s)
	}
	encoded, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}

func lookupEncoding(charset string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "gbk":
		return simplifiedchinese.GBK
	case "gb18030", "gb2312":
		return simplifiedchinese.GB18030
	case "big5":
		return traditionalchinese.Big5
	case "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1
	case "windows-1252", "cp1252":
		return charmap.Windows1252
	default:
		return nil
	}
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	reader := transform.NewReader(bytes.NewReader(b), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", false
	}
	if utf8.Valid(decoded) {
		return string(decoded), true
	}
	return "", false
}
