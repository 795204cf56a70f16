package internal

// TranslationRequest describes a single provider call for one document entry.
// It lives only for the duration of that call.
type TranslationRequest struct {
	Key          string `json:"key"`
	OriginalText string `json:"original_text"`
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
}
