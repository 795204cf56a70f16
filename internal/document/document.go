// Package document implements the flat JSON localization document: an
// ordered key → text mapping with reserved metadata keys.
//
// The expected file format is:
//
//	{
//	    "__LANG": "EN",
//	    "__VERSION": "1",
//	    "greeting": "Hello",
//	    "farewell": "Goodbye"
//	}
//
// Keys starting with "__" are metadata. Their values may be any JSON type and
// are written back verbatim; only "__LANG" is ever rewritten. All other keys
// are translatable and must hold strings.
//
// Round-trip fidelity: key order from the source file is preserved.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	// MetadataPrefix marks keys that are never sent to a translation provider.
	MetadataPrefix = "__"

	// LanguageKey holds the document language code.
	LanguageKey = "__LANG"
)

// entry is a single key in the document.
type entry struct {
	key      string
	value    string          // decoded value for translatable keys
	isMeta   bool            // true for "__" keys
	rawValue json.RawMessage // original JSON value bytes (preserved for meta)
}

// Document is a parsed localization document.
// It is not safe for concurrent mutation.
type Document struct {
	// entries stores all keys in document order.
	entries []entry
	// index maps key → index in entries.
	index map[string]int
}

// New returns an empty document.
func New() *Document {
	return &Document{index: make(map[string]int)}
}

// IsMetadata reports whether key is a reserved metadata key.
func IsMetadata(key string) bool {
	return strings.HasPrefix(key, MetadataPrefix)
}

// Parse decodes a JSON object, preserving key order.
func Parse(data []byte) (*Document, error) {
	d := New()

	dec := json.NewDecoder(bytes.NewReader(data))

	// Expect opening '{'
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing document: expected '{', got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing document key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing document: expected string key, got %T", keyTok)
		}

		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return nil, fmt.Errorf("parsing value for %q: %w", key, err)
		}

		if _, dup := d.index[key]; dup {
			return nil, fmt.Errorf("parsing document: duplicate key %q", key)
		}

		e := entry{key: key, isMeta: IsMetadata(key), rawValue: rawVal}
		if !e.isMeta {
			// null would otherwise decode to "" and be saved as an empty string
			if trimmed := bytes.TrimSpace(rawVal); len(trimmed) == 0 || trimmed[0] != '"' {
				return nil, fmt.Errorf("parsing document: value for %q is not a string", key)
			}
			if err := json.Unmarshal(rawVal, &e.value); err != nil {
				return nil, fmt.Errorf("parsing document: value for %q is not a string", key)
			}
		}

		d.index[key] = len(d.entries)
		d.entries = append(d.entries, e)
	}

	// Expect closing '}' and nothing after it.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing document: unexpected trailing data after object")
	}

	return d, nil
}

// Len returns the number of entries, metadata included.
func (d *Document) Len() int { return len(d.entries) }

// Keys returns all keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// TranslatableKeys returns all non-metadata keys in document order.
func (d *Document) TranslatableKeys() []string {
	var keys []string
	for _, e := range d.entries {
		if !e.isMeta {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Get returns the text of a translatable key.
func (d *Document) Get(key string) (string, bool) {
	if idx, ok := d.index[key]; ok && !d.entries[idx].isMeta {
		return d.entries[idx].value, true
	}
	return "", false
}

// Set overwrites the value of an existing translatable key.
// Returns false if the key is unknown or is metadata.
func (d *Document) Set(key, value string) bool {
	idx, ok := d.index[key]
	if !ok || d.entries[idx].isMeta {
		return false
	}
	d.entries[idx].value = value
	d.entries[idx].rawValue = encodeString(value)
	return true
}

// Meta returns the raw JSON value of a metadata key.
func (d *Document) Meta(key string) (json.RawMessage, bool) {
	if idx, ok := d.index[key]; ok && d.entries[idx].isMeta {
		return d.entries[idx].rawValue, true
	}
	return nil, false
}

// Language returns the string value of __LANG, if present.
func (d *Document) Language() (string, bool) {
	raw, ok := d.Meta(LanguageKey)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// SetLanguage rewrites __LANG to the upper-cased code. Documents without
// __LANG are left unchanged. Returns true if the key was rewritten.
func (d *Document) SetLanguage(code string) bool {
	idx, ok := d.index[LanguageKey]
	if !ok {
		return false
	}
	d.entries[idx].rawValue = encodeString(strings.ToUpper(code))
	return true
}

// Marshal produces two-space indented JSON preserving key order.
func (d *Document) Marshal() ([]byte, error) {
	var b bytes.Buffer
	if len(d.entries) == 0 {
		b.WriteString("{}\n")
		return b.Bytes(), nil
	}

	b.WriteString("{\n")
	for i, e := range d.entries {
		b.WriteString("  ")
		b.Write(encodeString(e.key))
		b.WriteString(": ")

		val := e.rawValue
		if !e.isMeta {
			val = encodeString(e.value)
		}
		var indented bytes.Buffer
		if err := json.Indent(&indented, val, "  ", "  "); err != nil {
			return nil, fmt.Errorf("encoding value for %q: %w", e.key, err)
		}
		b.Write(indented.Bytes())

		if i < len(d.entries)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")

	return b.Bytes(), nil
}

// encodeString returns the JSON encoding of s without HTML escaping, so
// markup inside localized text stays readable in the output file.
func encodeString(s string) json.RawMessage {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
