package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/valpere/lokator/internal/chunker"
)

// --- Split tests ---

func TestSplit_ShortText(t *testing.T) {
	text := "Hello, world!"
	chunks := chunker.Split(text, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected %q, got %q", text, chunks[0])
	}
}

func TestSplit_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		if chunks := chunker.Split(text, 10); chunks != nil {
			t.Errorf("Split(%q) = %v, want nil", text, chunks)
		}
	}
}

func TestSplit_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := chunker.Split(text, 0)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk when maxLen=0, got %d", len(chunks))
	}
}

func TestSplit_GreedyPacking(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := chunker.Split(text, 13)

	want := []string{"one two three", "four five six", "seven eight", "nine ten"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplit_ExactFit(t *testing.T) {
	// "aaaa bbbb" is exactly 9 runes and must stay together.
	chunks := chunker.Split("aaaa bbbb cccc", 9)
	if len(chunks) != 2 || chunks[0] != "aaaa bbbb" || chunks[1] != "cccc" {
		t.Errorf("unexpected chunks: %q", chunks)
	}
}

func TestSplit_OversizedWord(t *testing.T) {
	long := strings.Repeat("x", 30)
	chunks := chunker.Split("short "+long+" tail", 10)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[1] != long {
		t.Errorf("oversized word must be kept whole, got %q", chunks[1])
	}
}

func TestSplit_WordsPreserved(t *testing.T) {
	text := "The quick  brown fox\njumps over\tthe lazy dog. " + strings.Repeat("lorem ipsum dolor sit amet ", 40)

	for _, maxLen := range []int{1, 5, 17, 64, 500} {
		chunks := chunker.Split(text, maxLen)

		rejoined := chunker.Join(chunks)
		got := strings.Fields(rejoined)
		want := strings.Fields(text)
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("maxLen=%d: words changed after split/join", maxLen)
		}

		for i, c := range chunks {
			if utf8.RuneCountInString(c) > maxLen && len(strings.Fields(c)) != 1 {
				t.Errorf("maxLen=%d: chunk %d exceeds limit: %q", maxLen, i, c)
			}
			if c != strings.TrimSpace(c) {
				t.Errorf("chunk %d has leading/trailing whitespace: %q", i, c)
			}
		}
	}
}

func TestSplit_RuneAware(t *testing.T) {
	// Each Cyrillic word is 6 runes but 12 bytes.
	text := "привет привет привет"
	chunks := chunker.Split(text, 13)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "привет привет" {
		t.Errorf("unexpected first chunk %q", chunks[0])
	}
}

// --- Exceeds tests ---

func TestExceeds(t *testing.T) {
	if chunker.Exceeds("abc", 3) {
		t.Error("3 runes must not exceed limit 3")
	}
	if !chunker.Exceeds("abcd", 3) {
		t.Error("4 runes must exceed limit 3")
	}
	if chunker.Exceeds("abcd", 0) {
		t.Error("limit 0 means unlimited")
	}
}
