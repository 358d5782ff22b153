// Package extract implements C1, the text extractor: bytes in, page-
// structured text out, falling back through progressively weaker
// extractors (spec.md §4.1). Grounded in the teacher's document-chunker
// service, which performs the same "try the rich path, fall back to plain
// text" shape for legal documents, generalized here into an explicit
// three-tier fallback chain.
package extract

import (
	"bytes"
	"fmt"
	"strings"
)

// Method tags which extractor succeeded; downstream components (C3) use
// layout blocks only when Method is MethodLayoutAware.
type Method string

const (
	MethodLayoutAware Method = "layout-aware"
	MethodStructural  Method = "structural"
	MethodRawText     Method = "raw-text"
)

// Block is one layout-positioned span of text within a page.
type Block struct {
	Text       string
	Confidence float64
	BBox       [4]float64 // x0, y0, x1, y1; zero value when unknown
}

// Page is one extracted page.
type Page struct {
	PageNumber int
	Blocks     []Block
	Paragraphs []string
}

// Result is C1's output contract.
type Result struct {
	Text      string
	Pages     []Page
	PageCount int
	Method    Method
}

// Limits bounds extraction per spec.md §4.1.
type Limits struct {
	MaxBytes int64
	MaxPages int
}

// LayoutProvider is the external high-fidelity layout-aware extractor
// (e.g. a hosted document-AI service). Out of scope per spec.md §1; this
// is the seam its real implementation plugs into.
type LayoutProvider interface {
	Extract(data []byte, mime string) (*Result, error)
}

// Extractor implements C1's three-tier fallback chain.
type Extractor struct {
	layout LayoutProvider
}

// New constructs an Extractor. layout may be nil, in which case the
// layout-aware tier is skipped and extraction starts at the structural
// tier.
func New(layout LayoutProvider) *Extractor {
	return &Extractor{layout: layout}
}

var supportedMimes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Extract runs the fallback chain: layout-aware -> structural -> raw text.
func (e *Extractor) Extract(data []byte, filename, mime string, limits Limits) (*Result, error) {
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, &Error{Kind: ErrInputTooLarge, Msg: fmt.Sprintf("input %d bytes exceeds max %d", len(data), limits.MaxBytes)}
	}
	if !supportedMimes[mime] {
		return nil, &Error{Kind: ErrUnsupportedFormat, Msg: fmt.Sprintf("unsupported mime %q", mime)}
	}

	var result *Result
	var err error

	if e.layout != nil {
		result, err = e.layout.Extract(data, mime)
		if err == nil && result != nil && len(result.Pages) > 0 {
			result.Method = MethodLayoutAware
		} else {
			result = nil
		}
	}

	if result == nil {
		result, err = extractStructural(data, mime)
		if err == nil && result != nil && strings.TrimSpace(result.Text) != "" {
			result.Method = MethodStructural
		} else {
			result = nil
		}
	}

	if result == nil {
		result = extractRawText(data)
		result.Method = MethodRawText
	}

	if limits.MaxPages > 0 && result.PageCount > limits.MaxPages {
		return nil, &Error{Kind: ErrInputTooLarge, Msg: fmt.Sprintf("page count %d exceeds max %d", result.PageCount, limits.MaxPages)}
	}

	return result, nil
}

// extractStructural is a minimal structural parser for the fallback tier:
// splits on form-feed page breaks when present, otherwise treats the whole
// payload as one page. Real PDF/DOCX structural parsing is an external
// collaborator concern (spec.md §1); this tier exists so the extractor has
// a middle ground between the rich layout provider and raw bytes.
func extractStructural(data []byte, mime string) (*Result, error) {
	text := string(data)
	if !isMostlyPrintable(text) {
		return nil, fmt.Errorf("extract: payload not text-decodable")
	}

	pageTexts := strings.Split(text, "\f")
	pages := make([]Page, 0, len(pageTexts))
	for i, pt := range pageTexts {
		paras := splitParagraphs(pt)
		pages = append(pages, Page{PageNumber: i + 1, Paragraphs: paras})
	}

	return &Result{
		Text:      text,
		Pages:     pages,
		PageCount: len(pages),
	}, nil
}

// extractRawText is the last-resort tier: the whole payload as a single
// unstructured page.
func extractRawText(data []byte) *Result {
	text := string(bytes.ToValidUTF8(data, nil))
	return &Result{
		Text:      text,
		Pages:     []Page{{PageNumber: 1, Paragraphs: splitParagraphs(text)}},
		PageCount: 1,
	}
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func isMostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	printable := 0
	for _, r := range s {
		if r >= 0x20 && r < 0x7f || r == '\n' || r == '\t' || r == '\f' || r > 0x7f {
			printable++
		}
	}
	return float64(printable)/float64(len([]rune(s))) > 0.85
}

// ErrKind is the small error taxonomy local to C1; the orchestrator maps
// these onto xerrors.Kind at the boundary.
type ErrKind int

const (
	ErrInputTooLarge ErrKind = iota
	ErrUnsupportedFormat
)

// Error is C1's error type.
type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
