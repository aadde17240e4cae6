package rater

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOptions(t *testing.T) {
	opts := categoryOptions()
	require.Len(t, opts, 6)

	assert.Equal(t, "direct", opts[0].Value)
	assert.Equal(t, "direct (3)", opts[0].Key)
	assert.Equal(t, "hallucination", opts[3].Value)
	assert.Equal(t, choiceSkip, opts[4].Value)
	assert.Equal(t, choiceQuit, opts[5].Value)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short  ", 400))

	long := strings.Repeat("a", 500)
	got := truncate(long, 400)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Len(t, []rune(got), 400)
}

func TestTruncate_MultiByteRunes(t *testing.T) {
	// Truncation must never split a rune mid-sequence.
	got := truncate(strings.Repeat("日本語", 200), 400)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
