package translator

import (
	"context"
	"time"
)

// ProbeText is translated by TestConnection to validate a provider.
const ProbeText = "Hello"

const (
	probeSourceLang = "en"
	probeTargetLang = "ru"
)

// maxErrorBody caps the raw response snippet kept in a TranslationError.
const maxErrorBody = 512

// Provider is an external translation backend.
//
// Translate returns empty or whitespace-only text unchanged without a network
// call. TestConnection performs a real translation of ProbeText and never
// fails loudly; any error collapses to false.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	TestConnection(ctx context.Context) bool
}

// Per-variant request timeouts.
const (
	GoogleTimeout         = 5 * time.Minute
	LibreTranslateTimeout = 5 * time.Minute
	MyMemoryTimeout       = 30 * time.Second
)

// testConnection is shared by every variant.
func testConnection(ctx context.Context, p Provider) bool {
	out, err := p.Translate(ctx, ProbeText, probeSourceLang, probeTargetLang)
	return err == nil && out != ""
}
