package qa

import "testing"

func TestDetectLanguage_ChineseScriptHighConfidence(t *testing.T) {
	d := DetectLanguage("本协议由双方签署")
	if d.Language != LanguageChinese || d.Method != "script" {
		t.Fatalf("expected chinese/script, got %+v", d)
	}
	if d.Confidence < 0.9 {
		t.Fatalf("expected high confidence, got %f", d.Confidence)
	}
}

func TestDetectLanguage_SpanishStopwords(t *testing.T) {
	d := DetectLanguage("el contrato y la parte de este documento")
	if d.Language != LanguageSpanish {
		t.Fatalf("expected spanish, got %+v", d)
	}
}

func TestDetectLanguage_NoSignalDefaultsEnglishLowConfidence(t *testing.T) {
	d := DetectLanguage("xyzzy plugh")
	if d.Language != LanguageEnglish || d.Method != "default" {
		t.Fatalf("expected english/default, got %+v", d)
	}
	if d.Confidence >= 0.8 {
		t.Fatalf("expected low confidence, got %f", d.Confidence)
	}
}

func TestResolve_OverrideWinsOverDetection(t *testing.T) {
	detected := DetectionResult{Language: LanguageFrench, Confidence: 0.99}
	got := Resolve(true, LanguageGerman, LanguageEnglish, detected)
	if got != LanguageGerman {
		t.Fatalf("expected override to win, got %s", got)
	}
}

func TestResolve_ConfidentDetectionWinsOverDefault(t *testing.T) {
	detected := DetectionResult{Language: LanguageFrench, Confidence: 0.9}
	got := Resolve(true, "", LanguageEnglish, detected)
	if got != LanguageFrench {
		t.Fatalf("expected detected language, got %s", got)
	}
}

func TestResolve_LowConfidenceFallsBackToDefault(t *testing.T) {
	detected := DetectionResult{Language: LanguageFrench, Confidence: 0.5}
	got := Resolve(true, "", LanguageEnglish, detected)
	if got != LanguageEnglish {
		t.Fatalf("expected default language, got %s", got)
	}
}
