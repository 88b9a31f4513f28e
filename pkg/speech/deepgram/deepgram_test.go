package deepgram

import (
	"net/url"
	"testing"

	"github.com/lorescribe/lorescribe/pkg/speech"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg := speech.StreamConfig{
		SampleRate: 16000,
		Channels:   1,
		Language:   "en",
	}

	rawURL, err := p.buildURL(cfg)
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "language", "en", q.Get("language"))
	assertEqual(t, "punctuate", "true", q.Get("punctuate"))
	assertEqual(t, "interim_results", "true", q.Get("interim_results"))
	assertEqual(t, "sample_rate", "16000", q.Get("sample_rate"))
	assertEqual(t, "channels", "1", q.Get("channels"))
}

func TestBuildURL_CustomModel(t *testing.T) {
	p, err := New("key", WithModel("base"), WithLanguage("de-DE"), WithSampleRate(48000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(speech.StreamConfig{})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	q := u.Query()

	assertEqual(t, "model", "base", q.Get("model"))
	assertEqual(t, "language", "de-DE", q.Get("language"))
	assertEqual(t, "sample_rate", "48000", q.Get("sample_rate"))
}

func TestBuildURL_LanguageOverridenByCfg(t *testing.T) {
	// cfg.Language should take precedence over the provider-level default.
	p, err := New("key", WithLanguage("en"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(speech.StreamConfig{Language: "fr-FR", SampleRate: 16000})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	assertEqual(t, "language", "fr-FR", u.Query().Get("language"))
}

func TestBuildURL_Keywords(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cfg := speech.StreamConfig{
		SampleRate: 16000,
		Keywords:   []string{"Eldrinax", "Zorrath"},
	}

	rawURL, err := p.buildURL(cfg)
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	kws := u.Query()["keywords"]
	if len(kws) != 2 {
		t.Fatalf("expected 2 keywords, got %d: %v", len(kws), kws)
	}

	found := map[string]bool{}
	for _, kw := range kws {
		found[kw] = true
	}
	if !found["Eldrinax"] || !found["Zorrath"] {
		t.Errorf("expected both keywords present, got %v", kws)
	}
}

func TestBuildURL_NoKeywords(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(speech.StreamConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	if _, ok := u.Query()["keywords"]; ok {
		t.Error("expected no 'keywords' param when none provided")
	}
}

// ---- JSON parsing tests ----

func TestParseResponse_Final(t *testing.T) {
	raw := []byte(`{
		"type": "Results",
		"is_final": true,
		"channel": {
			"alternatives": [{
				"transcript": "Hello world",
				"confidence": 0.95
			}]
		}
	}`)

	seg, ok := parseResponse(raw)
	if !ok {
		t.Fatal("expected ok=true for valid Results message")
	}

	if !seg.final {
		t.Error("expected final=true")
	}
	assertEqual(t, "text", "Hello world", seg.text)
	if seg.confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %f", seg.confidence)
	}
}

func TestParseResponse_Partial(t *testing.T) {
	raw := []byte(`{
		"type": "Results",
		"is_final": false,
		"channel": {
			"alternatives": [{
				"transcript": "Hello",
				"confidence": 0.7
			}]
		}
	}`)

	seg, ok := parseResponse(raw)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if seg.final {
		t.Error("expected final=false for interim result")
	}
	assertEqual(t, "text", "Hello", seg.text)
}

func TestParseResponse_NonResultsType(t *testing.T) {
	raw := []byte(`{"type":"Metadata","request_id":"abc"}`)
	_, ok := parseResponse(raw)
	if ok {
		t.Error("expected ok=false for non-Results message")
	}
}

func TestParseResponse_EmptyAlternatives(t *testing.T) {
	raw := []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[]}}`)
	_, ok := parseResponse(raw)
	if ok {
		t.Error("expected ok=false when alternatives is empty")
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, ok := parseResponse([]byte(`{invalid`))
	if ok {
		t.Error("expected ok=false for invalid JSON")
	}
}

// ---- accumulator tests ----

func TestAccumulator_InterimReplacesNotAppends(t *testing.T) {
	var acc accumulator

	assertEqual(t, "first interim", "The", acc.apply(segment{text: "The"}))
	assertEqual(t, "revised interim", "The wizard", acc.apply(segment{text: "The wizard"}))
	// Interim results never advance the committed prefix.
	assertEqual(t, "shrunk interim", "The wiz", acc.apply(segment{text: "The wiz"}))
}

func TestAccumulator_FinalsCommit(t *testing.T) {
	var acc accumulator

	assertEqual(t, "final 1", "The wizard entered.", acc.apply(segment{text: "The wizard entered.", final: true}))
	// The next interim is shown after the committed prefix.
	assertEqual(t, "interim after final", "The wizard entered. He", acc.apply(segment{text: "He"}))
	assertEqual(t, "final 2", "The wizard entered. He sat down.", acc.apply(segment{text: "He sat down.", final: true}))
}

func TestAccumulator_EmptySegments(t *testing.T) {
	var acc accumulator

	assertEqual(t, "empty start", "", acc.apply(segment{text: ""}))
	acc.apply(segment{text: "Hello.", final: true})
	// Deepgram emits empty Results during silence; the committed prefix
	// must survive them.
	assertEqual(t, "empty interim", "Hello.", acc.apply(segment{text: ""}))
	assertEqual(t, "empty final", "Hello.", acc.apply(segment{text: "", final: true}))
	assertEqual(t, "after silence", "Hello. There", acc.apply(segment{text: "There"}))
}

// ---- Constructor tests ----

func TestNew_EmptyAPIKey(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertEqual(t, "model", defaultModel, p.model)
	assertEqual(t, "language", defaultLanguage, p.language)
	if p.sampleRate != defaultSampleRate {
		t.Errorf("expected sampleRate %d, got %d", defaultSampleRate, p.sampleRate)
	}
}

// ---- helpers ----

func assertEqual(t *testing.T, label, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s: want %q, got %q", label, want, got)
	}
}
