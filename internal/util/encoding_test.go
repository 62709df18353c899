package util

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// gbkZhongwen is "中文" encoded as GBK.
var gbkZhongwen = []byte{0xD6, 0xD0, 0xCE, 0xC4}

func TestDecodeCharsetGBK(t *testing.T) {
	assert.Equal(t, "中文", DecodeCharset(gbkZhongwen, "gbk"))
	assert.Equal(t, "中文", DecodeCharset(gbkZhongwen, "GBK"))
	// gb18030 is a superset of gbk
	assert.Equal(t, "中文", DecodeCharset(gbkZhongwen, "gb18030"))
}

func TestDecodeCharsetLatin1(t *testing.T) {
	// 0xE9 is é in latin1
	assert.Equal(t, "é", DecodeCharset([]byte{0xE9}, "latin1"))
	assert.Equal(t, "é", DecodeCharset([]byte{0xE9}, "iso-8859-1"))
}

func TestDecodeCharsetUTF8Passthrough(t *testing.T) {
	assert.Equal(t, "hello 中文", DecodeCharset([]byte("hello 中文"), "utf-8"))
	assert.Equal(t, "hello", DecodeCharset([]byte("hello"), ""))
}

func TestDecodeCharsetUnknownFallsBack(t *testing.T) {
	// unknown charset degrades to raw bytes, must not error or panic
	assert.Equal(t, "plain", DecodeCharset([]byte("plain"), "klingon"))
}

func TestDecodeCharsetEmpty(t *testing.T) {
	assert.Equal(t, "", DecodeCharset(nil, "gbk"))
	assert.Equal(t, "", DecodeCharset([]byte{}, ""))
}

func TestEncodeCharsetRoundTrip(t *testing.T) {
	encoded := EncodeCharset("中文", "gbk")
	assert.Equal(t, gbkZhongwen, encoded)
	assert.Equal(t, "中文", DecodeCharset(encoded, "gbk"))
}

func TestEncodeCharsetUnknownKeepsUTF8(t *testing.T) {
	assert.Equal(t, []byte("中文"), EncodeCharset("中文", "utf-8"))
	assert.Equal(t, []byte("abc"), EncodeCharset("abc", ""))
}

func TestEnsureUTF8Bytes(t *testing.T) {
	out := EnsureUTF8Bytes(gbkZhongwen)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "中文", out)

	// valid utf-8 passes through unchanged
	assert.Equal(t, "已经是UTF-8", EnsureUTF8Bytes([]byte("已经是UTF-8")))
	assert.Equal(t, "", EnsureUTF8Bytes(nil))
}
