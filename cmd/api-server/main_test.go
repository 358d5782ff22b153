package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"clausecompass/internal/config"
	"clausecompass/internal/xerrors"
)

func TestAskBody_ToRequest_MapsAllFields(t *testing.T) {
	sessionID := "sess-1"
	body := askBody{
		DocumentID: "doc-1", Question: "who may terminate?", SessionID: &sessionID,
		UseConversationMemory: true, AutoDetectLanguage: true, LanguageOverride: "es",
	}

	req := body.toRequest()
	if req.DocumentID != "doc-1" || req.Question != body.Question {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.SessionID != &sessionID {
		t.Fatalf("expected SessionID pointer to be carried through unchanged")
	}
	if !req.UseConversationMemory || !req.AutoDetectLanguage {
		t.Fatalf("expected boolean flags to be carried through")
	}
	if string(req.LanguageOverride) != "es" {
		t.Fatalf("expected language override 'es', got %q", req.LanguageOverride)
	}
}

func TestWriteError_MapsKindToStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{xerrors.New(xerrors.InputValidation, "op", nil), http.StatusBadRequest},
		{xerrors.New(xerrors.NotFound, "op", nil), http.StatusNotFound},
		{xerrors.New(xerrors.InputTooLarge, "op", nil), http.StatusRequestEntityTooLarge},
		{xerrors.New(xerrors.DependencyFailure, "op", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, tc.err)
		if w.Code != tc.want {
			t.Fatalf("err %v: expected status %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := &server{cfg: &config.Settings{AllowedOrigins: []string{"https://app.example.com"}}}
	r := gin.New()
	r.Use(s.cors())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected allowed origin to be echoed, got %q", got)
	}
}

func TestCORS_OmitsHeaderForUnknownOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := &server{cfg: &config.Settings{AllowedOrigins: []string{"https://app.example.com"}}}
	r := gin.New()
	r.Use(s.cors())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := &server{cfg: &config.Settings{AllowedOrigins: []string{"*"}}}
	r := gin.New()
	r.Use(s.cors())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS preflight, got %d", w.Code)
	}
}
