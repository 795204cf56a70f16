// Package placeholder shields inline markup in localization strings from
// machine translation. Protect swaps HTML/XML tags, format items such as
// {name}, {0} or {{count}}, and printf verbs for numbered markers ([PH0],
// [PH1], …); Restore puts the originals back once the provider has answered.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// {{name}} interpolation used by i18next / handlebars style bundles
	reDoubleBrace = regexp.MustCompile(`\{\{[^{}]+\}\}`)

	// {name}, {0}, {count, number}
	reFormatItem = regexp.MustCompile(`\{[^{}\s][^{}]*\}`)

	// HTML/XML tags: opening, closing, and self-closing
	reHTMLTag = regexp.MustCompile(`<[^<>]+>`)

	// %s, %d, %1$s, %.2f, %@; a lone percent sign is left alone
	rePrintf = regexp.MustCompile(`%(?:\d+\$)?[-+#0]*\d*(?:\.\d+)?[sdfiuxXcoeEgGq@]`)

	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces inline markup with numbered placeholders in the order the
// patterns are applied. It returns the modified text and the captured
// originals for Restore.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := marker(len(markers))
		markers = append(markers, match)
		return id
	}

	// Double braces before single so {{x}} is captured whole.
	text = reDoubleBrace.ReplaceAllStringFunc(text, replace)
	text = reFormatItem.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)
	text = rePrintf.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers in text with the originals captured by
// Protect. Unknown indices are left as-is.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// Validate returns the indices of markers that no longer appear in text.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, marker(i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// MissingError reports placeholders a provider dropped or mangled.
type MissingError struct {
	Missing []int
	Total   int
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("translation lost %d of %d placeholders", len(e.Missing), e.Total)
}

// Wrap protects text, hands the protected form to translate and restores the
// result. Text without markup is passed through untouched. A result missing
// any marker yields *MissingError.
func Wrap(text string, translate func(string) (string, error)) (string, error) {
	protected, markers := Protect(text)
	if len(markers) == 0 {
		return translate(text)
	}

	out, err := translate(protected)
	if err != nil {
		return "", err
	}

	if missing := Validate(out, markers); len(missing) > 0 {
		return "", &MissingError{Missing: missing, Total: len(markers)}
	}
	return Restore(out, markers), nil
}

func marker(i int) string {
	return "[PH" + strconv.Itoa(i) + "]"
}
