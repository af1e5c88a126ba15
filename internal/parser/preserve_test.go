package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldPreserve(t *testing.T) {
	assert.True(t, ShouldPreserve(801, 800))
	assert.False(t, ShouldPreserve(800, 800))
	assert.False(t, ShouldPreserve(1, 0)) // zero threshold falls back to default 800
}

func TestTitleExcerptTruncatesAtWordCount(t *testing.T) {
	text := strings.Repeat("word ", 300)
	excerpt := TitleExcerpt(text, 200)
	assert.Len(t, strings.Fields(excerpt), 200)
}

func TestTitleExcerptShorterThanLimit(t *testing.T) {
	excerpt := TitleExcerpt("only four words here", 200)
	assert.Equal(t, "only four words here", excerpt)
}

func TestFormatNoteCollapsesWhitespaceAndRebreaks(t *testing.T) {
	formatted := FormatNote("This   is  a note.   It has two sentences.")
	assert.Equal(t, "This is a note.\nIt has two sentences.", formatted)
}

func TestPreservedContentTrimsTrailingPeriod(t *testing.T) {
	assert.Equal(t, "a long essay about gardening", PreservedContent("  a long essay about gardening.  "))
}
