// Package redact implements C2, the PII redactor (spec.md §4.2). Grounded
// in the original service's privacy_service.py: an external scanner is
// preferred, falling back to a fixed regex catalog (email, phone, SSN,
// credit card, person-name heuristic) when the scanner is disabled or
// fails.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Match is one detected PII span.
type Match struct {
	PIIType         string
	Original        string
	StartByte       int
	EndByte         int
	Confidence      float64
	ReplacementToken string
}

// Summary is a histogram of PII type to occurrence count.
type Summary map[string]int

// Scanner is the external PII-scanning collaborator (e.g. a hosted DLP
// API). Out of scope per spec.md §1; this is the seam it plugs into.
type Scanner interface {
	Scan(text string) ([]Match, error)
}

const (
	typeEmail      = "EMAIL_ADDRESS"
	typePhone      = "PHONE_NUMBER"
	typePersonName = "PERSON_NAME"
	typeSSN        = "US_SOCIAL_SECURITY_NUMBER"
	typeCreditCard = "CREDIT_CARD_NUMBER"
)

var fallbackPatterns = map[string][]*regexp.Regexp{
	typeEmail: {
		regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	},
	typePhone: {
		regexp.MustCompile(`(?i)\(\d{3}\)\s?\d{3}-?\d{4}`),
		regexp.MustCompile(`(?i)\b\d{10}\b`),
	},
	typePersonName: {
		regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
	},
	typeSSN: {
		regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`),
	},
	typeCreditCard: {
		regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`),
	},
}

// Redactor implements C2.
type Redactor struct {
	scanner Scanner
	enabled bool
}

// New constructs a Redactor. enabled mirrors the DLP_ENABLED config toggle;
// when false (or scanner is nil, or the scanner call fails) the regex
// fallback catalog is used.
func New(scanner Scanner, enabled bool) *Redactor {
	return &Redactor{scanner: scanner, enabled: enabled}
}

// Redact detects and masks PII, returning the masked text, the match
// table, and a type->count summary (spec.md §4.2).
func (r *Redactor) Redact(text string) (string, []Match, Summary) {
	if strings.TrimSpace(text) == "" {
		return text, nil, Summary{}
	}

	var matches []Match
	if r.enabled && r.scanner != nil {
		if scanned, err := r.scanner.Scan(text); err == nil {
			matches = scanned
		}
	}
	if matches == nil {
		matches = r.detectFallback(text)
	}

	matches = resolveOverlaps(matches)
	masked := applyMasking(text, matches)

	summary := Summary{}
	for _, m := range matches {
		summary[m.PIIType]++
	}
	return masked, matches, summary
}

// detectFallback scans text against the fallback regex catalog. The
// replacement-token counter is local to this call (not a Redactor-lifetime
// field) and PII types are visited in sorted order, so that masking the
// same text twice always yields the same tokens (spec.md §8's ingest
// idempotence law). Each call numbers from 1, so a sub-span redacted on its
// own gets its own numbering; Mask re-applies an existing match table.
func (r *Redactor) detectFallback(text string) []Match {
	var matches []Match
	counter := 0
	piiTypes := make([]string, 0, len(fallbackPatterns))
	for piiType := range fallbackPatterns {
		piiTypes = append(piiTypes, piiType)
	}
	sort.Strings(piiTypes)
	for _, piiType := range piiTypes {
		for _, pattern := range fallbackPatterns[piiType] {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				start, end := loc[0], loc[1]
				original := text[start:end]
				if piiType == typePersonName && len(original) < 5 {
					continue
				}
				counter++
				matches = append(matches, Match{
					PIIType:          piiType,
					Original:         original,
					StartByte:        start,
					EndByte:          end,
					Confidence:       estimateConfidence(piiType, original),
					ReplacementToken: fmt.Sprintf("[%s_%d]", piiType, counter),
				})
			}
		}
	}
	return matches
}

func estimateConfidence(piiType, text string) float64 {
	switch piiType {
	case typeEmail, typeCreditCard, typeSSN:
		return 0.9
	case typePhone:
		return 0.7
	case typePersonName:
		return 0.5
	default:
		return 0.6
	}
}

// resolveOverlaps keeps, among overlapping spans, the one with highest
// confidence (spec.md §4.2: "overlapping matches are resolved by highest
// confidence").
func resolveOverlaps(matches []Match) []Match {
	if len(matches) == 0 {
		return matches
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].StartByte < matches[j].StartByte })

	kept := make([]Match, 0, len(matches))
	for _, m := range matches {
		overlapIdx := -1
		for i, k := range kept {
			if m.StartByte < k.EndByte && k.StartByte < m.EndByte {
				overlapIdx = i
				break
			}
		}
		if overlapIdx == -1 {
			kept = append(kept, m)
			continue
		}
		if m.Confidence > kept[overlapIdx].Confidence {
			kept[overlapIdx] = m
		}
	}
	return kept
}

// applyMasking substitutes each match's span with its replacement token,
// applying edits in strictly decreasing start-offset order so earlier
// offsets remain valid (spec.md §4.2).
func applyMasking(text string, matches []Match) string {
	ordered := make([]Match, len(matches))
	copy(ordered, matches)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartByte > ordered[j].StartByte })

	out := text
	for _, m := range ordered {
		if m.StartByte < 0 || m.EndByte > len(out) || m.StartByte > m.EndByte {
			continue
		}
		out = out[:m.StartByte] + m.ReplacementToken + out[m.EndByte:]
	}
	return out
}

// Mask re-applies an already-computed match table (tokens and all) to a
// span of text, without running detection again. Callers that already
// know where a sub-span sits within a larger redacted text (e.g. a layout
// block inside the full document) use this to stay byte-for-byte
// consistent with the original Redact call instead of re-detecting PII
// and minting a second, diverging set of tokens.
func Mask(text string, matches []Match) string {
	return applyMasking(text, matches)
}

// Hash returns the sha256 hex digest of text, used wherever PII-adjacent
// content must be referenced without ever surfacing raw text (e.g. C13's
// question_asked analytics event, spec.md §8 invariant 4).
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
