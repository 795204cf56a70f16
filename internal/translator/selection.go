package translator

import (
	"fmt"
	"strings"
)

// ProviderID names one of the built-in providers.
type ProviderID string

const (
	ProviderGoogle         ProviderID = "google"
	ProviderLibreTranslate ProviderID = "libretranslate"
	ProviderMyMemory       ProviderID = "mymemory"
)

// ProviderIDs lists the supported providers in display order.
func ProviderIDs() []ProviderID {
	return []ProviderID{ProviderLibreTranslate, ProviderMyMemory, ProviderGoogle}
}

// ParseProviderID accepts a provider name case-insensitively.
func ParseProviderID(name string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range ProviderIDs() {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (want one of %s)", name, joinIDs(ProviderIDs()))
}

// Selection chooses a provider and carries the settings only that provider
// needs. It is passed by value; nothing downstream stores or logs it.
type Selection struct {
	ID      ProviderID
	APIKey  string // google
	BaseURL string // libretranslate instance
	Email   string // mymemory
}

// String describes the selection without exposing the API key.
func (s Selection) String() string {
	switch s.ID {
	case ProviderGoogle:
		if s.APIKey == "" {
			return "google (no key)"
		}
		return "google (key set)"
	case ProviderLibreTranslate:
		url := s.BaseURL
		if url == "" {
			url = DefaultLibreTranslateURL
		}
		return fmt.Sprintf("libretranslate (%s)", url)
	default:
		return string(s.ID)
	}
}

// New constructs the provider named by sel.
func New(sel Selection) (Provider, error) {
	switch sel.ID {
	case ProviderGoogle:
		if strings.TrimSpace(sel.APIKey) == "" {
			return nil, fmt.Errorf("provider google requires an API key")
		}
		return NewGoogleService(sel.APIKey), nil
	case ProviderLibreTranslate:
		return NewLibreTranslateService(sel.BaseURL), nil
	case ProviderMyMemory:
		return NewMyMemoryService(sel.Email), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", sel.ID)
	}
}

func joinIDs(ids []ProviderID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}
