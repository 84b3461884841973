package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateTextKeepsShortText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "hello", tp.TruncateText("hello", 100))
	assert.Equal(t, "hello", tp.TruncateText("hello", 0), "zero disables the limit")
}

func TestTruncateTextNeverSplitsRunes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "předplatné" repeated; the cut point lands inside a multi-byte rune.
	text := strings.Repeat("předplatné ", 100)
	out := tp.TruncateText(text, 25)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, truncationMarker))
	assert.LessOrEqual(t, len(out), 25+len(truncationMarker))
}

func TestSanitizeUTF8DropsInvalidBytes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
	assert.Equal(t, "čisté", tp.SanitizeUTF8("čisté"))
}

func TestProcessTextCombinesBoth(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.ProcessText("a\xffb"+strings.Repeat("x", 100), 10)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "abxxxxxxxx"), "invalid byte dropped before the size cut")
	assert.True(t, strings.HasSuffix(out, truncationMarker))
}
