package extract

import "testing"

func TestExtract_UnsupportedMime(t *testing.T) {
	e := New(nil)
	_, err := e.Extract([]byte("hello"), "x.txt", "text/plain", Limits{})
	var extErr *Error
	if err == nil {
		t.Fatal("expected error for unsupported mime")
	}
	if ok := asError(err, &extErr); !ok || extErr.Kind != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtract_InputTooLarge(t *testing.T) {
	e := New(nil)
	_, err := e.Extract(make([]byte, 100), "x.pdf", "application/pdf", Limits{MaxBytes: 10})
	var extErr *Error
	if ok := asError(err, &extErr); !ok || extErr.Kind != ErrInputTooLarge {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestExtract_FallsBackToStructural(t *testing.T) {
	e := New(nil)
	result, err := e.Extract([]byte("Section 1. Term.\n\nThis agreement begins now."), "x.pdf", "application/pdf", Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != MethodStructural {
		t.Fatalf("expected structural fallback for plain text payload, got %v", result.Method)
	}
	if result.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", result.PageCount)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
