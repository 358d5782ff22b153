// Package readability implements C7 (spec.md §4.7): Flesch-Kincaid grade
// level and Flesch reading ease, computed from the standard syllable/
// word/sentence counts, plus the original-vs-summary delta. It is a pure
// function; any failure to analyze text (empty input) yields all-zero
// metrics rather than an error, per spec.
package readability

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Metrics is C7's output contract.
type Metrics struct {
	OriginalGrade float64
	SummaryGrade  float64
	Delta         float64
	FleschScore   float64
}

// Score computes readability metrics for original and summary text and
// their delta (original_grade - summary_grade; positive means the summary
// reads easier, per spec.md's fixed sign convention).
func Score(original, summary string) Metrics {
	originalGrade, originalFlesch := analyze(original)
	summaryGrade, _ := analyze(summary)

	return Metrics{
		OriginalGrade: originalGrade,
		SummaryGrade:  summaryGrade,
		Delta:         originalGrade - summaryGrade,
		FleschScore:   originalFlesch,
	}
}

// analyze returns (Flesch-Kincaid grade, Flesch reading ease) for text.
// Both default to 0 when text has no countable words or sentences.
func analyze(text string) (grade, flesch float64) {
	text = norm.NFC.String(text)
	words := splitWords(text)
	if len(words) == 0 {
		return 0, 0
	}

	sentences := countSentences(text)
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	wordCount := float64(len(words))
	sentenceCount := float64(sentences)
	syllableCount := float64(syllables)

	grade = 0.39*(wordCount/sentenceCount) + 11.8*(syllableCount/wordCount) - 15.59
	flesch = 206.835 - 1.015*(wordCount/sentenceCount) - 84.6*(syllableCount/wordCount)

	return grade, flesch
}

// splitWords extracts word tokens made of Unicode letters and digits.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// countSentences counts sentence-terminal punctuation runs.
func countSentences(text string) int {
	count := 0
	prevTerminal := false
	for _, r := range text {
		isTerminal := r == '.' || r == '!' || r == '?'
		if isTerminal && !prevTerminal {
			count++
		}
		prevTerminal = isTerminal
	}
	return count
}

// countSyllables applies the standard vowel-group heuristic: count vowel
// groups, drop a silent trailing "e", and floor at 1 per word.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	if word == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := isVowelRune(r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count <= 0 {
		count = 1
	}
	return count
}

func isVowelRune(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	default:
		return false
	}
}
