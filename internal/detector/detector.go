// Package detector guesses the source language of a localization document.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/lokator/internal/document"
)

// maxSample bounds how much document text is fed to the detector.
const maxSample = 4096

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of text.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// DetectDocument samples the translatable values of doc in order and
// returns the detected ISO code. Metadata is ignored.
func (d *Detector) DetectDocument(doc *document.Document) (string, bool) {
	var b strings.Builder
	for _, key := range doc.TranslatableKeys() {
		text, _ := doc.Get(key)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(". ")
		}
		b.WriteString(text)
		if b.Len() >= maxSample {
			break
		}
	}
	return d.DetectISO(b.String())
}
