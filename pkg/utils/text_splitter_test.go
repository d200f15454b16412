package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("hello world", 100, 10)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitText_OverlapPreservesBoundaries(t *testing.T) {
	text := "abcdefghij" // 10 runes
	chunks := SplitText(text, 4, 2)

	assert.Equal(t, "abcd", chunks[0])
	assert.Equal(t, "cdef", chunks[1])

	// Last chunk ends at the end of the text
	last := chunks[len(chunks)-1]
	assert.Equal(t, byte('j'), last[len(last)-1])
}

func TestSplitText_OverlapLargerThanChunkFallsBack(t *testing.T) {
	text := "abcdefghij"
	chunks := SplitText(text, 3, 5)

	// Step falls back to chunkSize, no infinite loop, full coverage
	assert.Equal(t, []string{"abc", "def", "ghi", "j"}, chunks)
}

func TestSplitText_MultibyteRunesNotCut(t *testing.T) {
	text := "日本語のテキストです"
	chunks := SplitText(text, 4, 1)
	for _, c := range chunks {
		for _, r := range c {
			assert.NotEqual(t, rune(0xFFFD), r)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hello", TruncateRunes("hello", 20))
	assert.Equal(t, "hello wor", TruncateRunes("hello world", 9))
	assert.Equal(t, "日本語のテ", TruncateRunes("日本語のテキストです", 5))
	assert.Equal(t, "", TruncateRunes("anything", 0))
}
