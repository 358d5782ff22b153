// Package segment implements C3, the clause segmenter (spec.md §4.3).
// Grounded in the original service's clause_segmenter.py: heading-pattern
// detection opens new clauses, short/continuation lines merge into the
// previous candidate, and a final validation pass folds tiny low-
// confidence clauses into their successor before assigning contiguous
// order.
package segment

import (
	"regexp"
	"strings"

	"clausecompass/internal/extract"
)

// Candidate is one ordered clause candidate (spec.md §4.3).
type Candidate struct {
	Text       string
	Start      int
	End        int
	Heading    bool
	Confidence float64
	Page       int
	BBox       *[4]float64
	Order      int
}

var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\d+\.\d*\s`),           // numbered: "1.", "2.1"
	regexp.MustCompile(`^\s*[IVXLCDM]+\.\s`),        // roman numeral
	regexp.MustCompile(`^\s*[a-zA-Z]\.\s`),          // lettered
	regexp.MustCompile(`(?i)^\s*(ARTICLE|SECTION|CLAUSE)\b`),
	regexp.MustCompile(`^[A-Z][A-Z0-9 \-,/]{4,60}$`), // short all-caps line
}

func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, p := range headingPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// Segment partitions extracted document text into ordered clause
// candidates (spec.md §4.3). When result.Method is layout-aware, one
// candidate is seeded per layout block of >=50 chars; otherwise the text
// is scanned line by line. Both paths share the same merge heuristic.
func Segment(result *extract.Result) []Candidate {
	if result.Method == extract.MethodLayoutAware {
		return segmentLayout(result)
	}
	return segmentLines(result)
}

func segmentLayout(result *extract.Result) []Candidate {
	var candidates []Candidate
	offset := 0
	for _, page := range result.Pages {
		for _, block := range page.Blocks {
			if len(block.Text) < 50 {
				offset += len(block.Text)
				continue
			}
			candidates = appendOrMerge(candidates, block.Text, offset, page.PageNumber, &block.BBox)
			offset += len(block.Text)
		}
	}
	return finalize(candidates)
}

func segmentLines(result *extract.Result) []Candidate {
	var candidates []Candidate
	offset := 0
	pageNum := 1
	for _, line := range strings.Split(result.Text, "\n") {
		candidates = appendOrMerge(candidates, line, offset, pageNum, nil)
		offset += len(line) + 1
	}
	return finalize(candidates)
}

func appendOrMerge(candidates []Candidate, text string, start, page int, bbox *[4]float64) []Candidate {
	firstLine := firstNonEmptyLine(text)
	heading := isHeading(firstLine)

	if len(candidates) == 0 || heading || !shouldMergeWithPrevious(candidates[len(candidates)-1], firstLine) {
		candidates = append(candidates, Candidate{
			Text:    text,
			Start:   start,
			End:     start + len(text),
			Heading: heading,
			Page:    page,
			BBox:    bbox,
		})
		return candidates
	}

	prev := &candidates[len(candidates)-1]
	prev.Text = prev.Text + "\n" + text
	prev.End = start + len(text)
	return candidates
}

// shouldMergeWithPrevious mirrors clause_segmenter.py's
// _should_merge_with_previous: a short previous clause (<20 words) always
// absorbs the next block; a lowercase-starting continuation line merges;
// a previous clause over 1000 chars never merges further.
func shouldMergeWithPrevious(prev Candidate, firstLine string) bool {
	if len(prev.Text) > 1000 {
		return false
	}
	if wordCount(prev.Text) < 20 {
		return true
	}
	trimmed := strings.TrimSpace(firstLine)
	if trimmed == "" {
		return false
	}
	first := []rune(trimmed)[0]
	return first >= 'a' && first <= 'z'
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// finalize runs the validation pass: clauses with <5 words and confidence
// <0.8 are merged into the NEXT candidate, text is cleaned, and order is
// assigned 1..N (spec.md §4.3).
func finalize(candidates []Candidate) []Candidate {
	for i := range candidates {
		candidates[i].Text = cleanText(candidates[i].Text)
		candidates[i].Confidence = confidenceFor(candidates[i])
	}

	var merged []Candidate
	var pending string
	for _, c := range candidates {
		text := c.Text
		if pending != "" {
			text = pending + " " + text
			pending = ""
		}
		if wordCount(text) < 5 && confidenceFor(Candidate{Text: text}) < 0.8 {
			pending = text
			continue
		}
		c.Text = text
		merged = append(merged, c)
	}
	if pending != "" && len(merged) > 0 {
		merged[len(merged)-1].Text = merged[len(merged)-1].Text + " " + pending
	} else if pending != "" {
		merged = append(merged, Candidate{Text: pending})
	}

	for i := range merged {
		merged[i].Order = i + 1
	}
	return merged
}

var pageArtifact = regexp.MustCompile(`(?i)\bPage\s+\d+(\s+of\s+\d+)?\b`)
var smartQuotes = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")

// cleanText whitespace-normalizes a candidate's text and strips form feeds
// and page-number artifacts (spec.md §4.3).
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\f", " ")
	text = pageArtifact.ReplaceAllString(text, "")
	text = smartQuotes.Replace(text)
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

// confidenceFor mirrors clause_segmenter.py's _calculate_clause_confidence:
// base 0.5, +0.2 for 20-500 words, -0.3 for <10 words, +up to 0.3 for legal
// keyword density, +0.1 for >=2 sentences, clamped to [0.1, 1.0].
func confidenceFor(c Candidate) float64 {
	words := wordCount(c.Text)
	score := 0.5
	switch {
	case words >= 20 && words <= 500:
		score += 0.2
	case words < 10:
		score -= 0.3
	}

	lower := strings.ToLower(c.Text)
	keywordHits := 0
	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			keywordHits++
		}
	}
	if keywordHits > 0 {
		bonus := 0.1 * float64(keywordHits)
		if bonus > 0.3 {
			bonus = 0.3
		}
		score += bonus
	}

	if strings.Count(c.Text, ".")+strings.Count(c.Text, ";") >= 2 {
		score += 0.1
	}

	if score < 0.1 {
		score = 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

var legalKeywords = []string{
	"shall", "agreement", "party", "herein", "pursuant", "liability",
	"termination", "indemnify", "warranty", "confidential",
}
