package qa

import "strings"

// Language is the closed response-language enum (SPEC_FULL.md §3,
// supplemented from original_source/backend/app/models/document.py's
// SupportedLanguage).
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
	LanguageGerman     Language = "de"
	LanguagePortuguese Language = "pt"
	LanguageChinese    Language = "zh"
	LanguageJapanese   Language = "ja"
	LanguageArabic     Language = "ar"
	LanguageHindi      Language = "hi"
)

// DetectionResult is what step 2 of C13 needs: a best-guess language, a
// confidence in [0,1], and the method that produced it.
type DetectionResult struct {
	Language   Language
	Confidence float64
	Method     string
}

// scriptRanges maps a language to unicode rune ranges that are a near-
// certain signal of that language when present (no Latin-script language
// shares them). No example repo imports a language-detection library, so
// this is a small heuristic built on stdlib unicode ranges and common
// stopwords rather than a third-party detector (documented in DESIGN.md).
var scriptRanges = []struct {
	lang string
	lo   rune
	hi   rune
}{
	{"zh", 0x4E00, 0x9FFF},   // CJK unified ideographs
	{"ja", 0x3040, 0x30FF},   // hiragana + katakana
	{"ar", 0x0600, 0x06FF},   // Arabic
	{"hi", 0x0900, 0x097F},   // Devanagari
}

var stopwords = map[Language][]string{
	LanguageEnglish:    {" the ", " and ", " is ", " of ", " to ", " in ", " this "},
	LanguageSpanish:    {" el ", " la ", " de ", " que ", " y ", " en ", " los ", " las "},
	LanguageFrench:     {" le ", " la ", " de ", " et ", " les ", " des ", " un ", " une "},
	LanguageGerman:     {" der ", " die ", " das ", " und ", " ist ", " nicht ", " den "},
	LanguagePortuguese: {" o ", " a ", " de ", " que ", " e ", " do ", " da ", " os "},
}

// DetectLanguage guesses text's language. It first checks for a script
// that uniquely identifies a non-Latin language (high confidence), then
// falls back to counting stopword hits across the Latin-script candidates
// (moderate confidence proportional to hit density), and finally defaults
// to English with low confidence.
func DetectLanguage(text string) DetectionResult {
	for _, sr := range scriptRanges {
		for _, r := range text {
			if r >= sr.lo && r <= sr.hi {
				return DetectionResult{Language: Language(sr.lang), Confidence: 0.95, Method: "script"}
			}
		}
	}

	padded := " " + strings.ToLower(text) + " "
	bestLang := LanguageEnglish
	bestHits := 0
	totalWords := len(strings.Fields(text))
	for lang, words := range stopwords {
		hits := 0
		for _, w := range words {
			hits += strings.Count(padded, w)
		}
		if hits > bestHits {
			bestHits = hits
			bestLang = lang
		}
	}

	if bestHits == 0 || totalWords == 0 {
		return DetectionResult{Language: LanguageEnglish, Confidence: 0.3, Method: "default"}
	}

	confidence := float64(bestHits) / float64(totalWords)
	if confidence > 1 {
		confidence = 1
	}
	return DetectionResult{Language: bestLang, Confidence: confidence, Method: "stopword-overlap"}
}

// Resolve applies C13 step 2's precedence: an explicit override always
// wins; otherwise a confident auto-detection (>0.8) wins; otherwise the
// configured default applies.
func Resolve(autoDetect bool, override Language, def Language, detected DetectionResult) Language {
	if override != "" {
		return override
	}
	if autoDetect && detected.Confidence > 0.8 {
		return detected.Language
	}
	return def
}
