// Package chunker splits text that exceeds a provider's request limit into
// word-aligned segments and joins translated segments back together.
//
// Splitting never breaks inside a word. Reassembly uses a single space
// between segments, so the original inter-word spacing (line breaks, runs of
// spaces, tabs) is not reproduced exactly.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Split greedily packs the whitespace-delimited words of text into segments
// of at most maxLen unicode code points. When appending the next word would
// exceed maxLen, the current segment is closed and the word starts a new one.
//
// A single word longer than maxLen becomes its own oversized segment; it is
// never truncated. Empty or whitespace-only text yields nil. If maxLen ≤ 0
// the words are returned as one segment.
func Split(text string, maxLen int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxLen <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		segments []string
		current  strings.Builder
		curLen   int
	)

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)

		if curLen == 0 {
			current.WriteString(word)
			curLen = wordLen
			continue
		}

		if curLen+1+wordLen > maxLen {
			segments = append(segments, current.String())
			current.Reset()
			current.WriteString(word)
			curLen = wordLen
			continue
		}

		current.WriteByte(' ')
		current.WriteString(word)
		curLen += 1 + wordLen
	}

	if curLen > 0 {
		segments = append(segments, current.String())
	}

	return segments
}

// Join reassembles translated segments with a single space.
func Join(segments []string) string {
	return strings.Join(segments, " ")
}

// Exceeds reports whether text is longer than maxLen code points.
func Exceeds(text string, maxLen int) bool {
	return maxLen > 0 && utf8.RuneCountInString(text) > maxLen
}
