// Package validator flags translated entries that do not appear to be in
// the target language, typically because the provider echoed the source.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/lokator/internal/detector"
	"github.com/valpere/lokator/internal/document"
	"github.com/valpere/lokator/internal/translator"
)

// minValidationLength is the minimum rune count required to attempt language detection.
const minValidationLength = 20

type Validator struct {
	det *detector.Detector
}

// New wraps det, building a detector when det is nil. The detector is
// expensive to build; share it.
func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// IsValid returns true when text appears to be written in targetLang.
// Short or undetectable texts pass.
func (v *Validator) IsValid(text, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	want := translator.BaseLang(targetLang)
	if detected != want {
		return false, fmt.Errorf("expected %s but detected %s", want, detected)
	}

	return true, nil
}

// Mismatch is a translated entry that looks like another language.
type Mismatch struct {
	Key string
	Err error
}

// Check validates every non-blank translatable entry of doc in order.
func (v *Validator) Check(doc *document.Document, targetLang string) []Mismatch {
	var out []Mismatch
	for _, key := range doc.TranslatableKeys() {
		text, _ := doc.Get(key)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if ok, err := v.IsValid(text, targetLang); !ok {
			out = append(out, Mismatch{Key: key, Err: err})
		}
	}
	return out
}
