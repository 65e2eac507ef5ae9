// Package translation implements the contextual translation pipeline:
// source language detection, per-user history context, prompt
// construction, and the Gemini call with multi-model fallback and retry.
package translation

// Language is a short source/target language tag.
type Language string

const (
	Japanese Language = "ja"
	Polish   Language = "pl"
	English  Language = "en"
)

// polishDiacritics are the letters specific to Polish orthography.
const polishDiacritics = "ąćęłńóśźżĄĆĘŁŃÓŚŹŻ"

// Detect classifies text into a source language tag. Japanese script
// takes precedence over Polish diacritics; anything else is English.
func Detect(text string) Language {
	for _, r := range text {
		if isJapaneseRune(r) {
			return Japanese
		}
	}
	for _, r := range text {
		if isPolishRune(r) {
			return Polish
		}
	}
	return English
}

// Target returns the translation target for a source language. Japanese
// translates to English (with an additional Polish rendition requested in
// the prompt); every other source translates to Japanese.
func Target(source Language) Language {
	if source == Japanese {
		return English
	}
	return Japanese
}

func isJapaneseRune(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x309F: // hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // katakana
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return true
	}
	return false
}

func isPolishRune(r rune) bool {
	for _, p := range polishDiacritics {
		if r == p {
			return true
		}
	}
	return false
}
