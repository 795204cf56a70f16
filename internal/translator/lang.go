package translator

import (
	"strings"

	"golang.org/x/text/language"
)

const traditionalChinese = "zh-TW"

// NormalizeLang lower-cases a language code and reduces it to its ISO 639-1
// base ("pt-BR" → "pt"). Traditional Chinese (zh-TW, zh-HK, zh-Hant) keeps
// its region as "zh-TW". Codes that do not parse are returned lower-cased.
func NormalizeLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return code
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	if base.String() == "zh" {
		if script, _ := tag.Script(); script.String() == "Hant" {
			return traditionalChinese
		}
	}
	return base.String()
}

// BaseLang is NormalizeLang without any region ("zh-TW" → "zh").
func BaseLang(code string) string {
	base, _, _ := strings.Cut(NormalizeLang(code), "-")
	return base
}

// myMemoryLang applies MyMemory's region-qualified form for Chinese.
func myMemoryLang(code string) string {
	code = NormalizeLang(code)
	if code == "zh" {
		return "zh-CN"
	}
	return code
}

// libreLang maps Traditional Chinese to LibreTranslate's "zt" code.
func libreLang(code string) string {
	code = NormalizeLang(code)
	if code == traditionalChinese {
		return "zt"
	}
	return code
}
