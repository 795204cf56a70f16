// Package postprocess tidies provider output so it fits back into the
// localization file next to the original text.
//
// Machine translation APIs routinely trim surrounding whitespace, HTML-escape
// apostrophes (MyMemory returns "&#39;") and sometimes wrap short strings in
// quotes. Clean undoes those changes when the original text did not have them.
package postprocess

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Clean returns translated adjusted to original.
func Clean(original, translated string) string {
	if !hasEntity(original) {
		translated = html.UnescapeString(translated)
	}
	if !isQuoteWrapped(strings.TrimSpace(original)) {
		translated = removeQuoteWrapping(strings.TrimSpace(translated))
	}
	return restoreEdges(original, translated)
}

// hasEntity reports whether text already contains an HTML character
// reference that must survive as written.
func hasEntity(text string) bool {
	i := strings.IndexByte(text, '&')
	for i >= 0 {
		rest := text[i:]
		if end := strings.IndexByte(rest, ';'); end > 1 && end < 12 {
			if html.UnescapeString(rest[:end+1]) != rest[:end+1] {
				return true
			}
		}
		next := strings.IndexByte(rest[1:], '&')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

// restoreEdges gives translated the leading and trailing whitespace of
// original.
func restoreEdges(original, translated string) string {
	core := strings.TrimSpace(translated)
	if core == "" {
		return translated
	}
	lead := original[:len(original)-len(strings.TrimLeftFunc(original, unicode.IsSpace))]
	trail := original[len(strings.TrimRightFunc(original, unicode.IsSpace)):]
	return lead + core + trail
}

var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'«':  '»',
	'“':  '”',
	'‘':  '’',
	'„':  '“',
}

func isQuoteWrapped(text string) bool {
	if utf8.RuneCountInString(text) < 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	closing, ok := quotePairs[first]
	return ok && closing == last
}

// removeQuoteWrapping strips one matching pair of outer quotes. The pair must
// enclose the whole string: text such as `"a" and "b"` starts and ends with
// quotes that belong to different words and is returned as is.
func removeQuoteWrapping(text string) string {
	if !isQuoteWrapped(text) {
		return text
	}
	runes := []rune(text)
	open, closing := runes[0], runes[len(runes)-1]
	inner := string(runes[1 : len(runes)-1])
	if strings.ContainsRune(inner, open) || strings.ContainsRune(inner, closing) {
		return text
	}
	return strings.TrimSpace(inner)
}
