package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-complaint-go/internal/extractor"
	"voice-complaint-go/internal/fetcher"
	"voice-complaint-go/internal/language"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/refiner"
	"voice-complaint-go/internal/scratch"
	"voice-complaint-go/internal/transcription"
	"voice-complaint-go/internal/types"
)

var now = time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)

// speechEngine checks that the audio is on disk while it is being recognised.
type speechEngine struct {
	text       string
	err        error
	dir        *scratch.Dir
	mediaID    string
	sawScratch bool
}

func (s *speechEngine) Name() string { return "fake-speech" }

func (s *speechEngine) Recognize(context.Context, transcription.RecognizeRequest) ([]transcription.Utterance, error) {
	s.sawScratch = s.dir.Exists(s.mediaID)
	if s.err != nil {
		return nil, s.err
	}
	return []transcription.Utterance{{Alternatives: []transcription.Alternative{{Transcript: s.text, Confidence: 0.9}}}}, nil
}

type translator struct {
	out   string
	calls int
	src   string
}

func (t *translator) Translate(_ context.Context, text, source, _ string) types.TranslationResult {
	t.calls++
	t.src = source
	if t.out == "" {
		return types.TranslationResult{Text: text}
	}
	return types.TranslationResult{Text: t.out, WasTranslated: true}
}

type generator struct {
	out   string
	calls int
}

func (g *generator) Name() string { return "fake-llm" }

func (g *generator) Generate(context.Context, string) (string, error) {
	g.calls++
	if g.out == "" {
		return "", errors.New("unavailable")
	}
	return g.out, nil
}

type harness struct {
	dir        *scratch.Dir
	speech     *speechEngine
	translator *translator
	generator  *generator
	orch       *Orchestrator
}

func newHarness(t *testing.T, graphURL string) *harness {
	t.Helper()
	dir, err := scratch.New(t.TempDir())
	if err != nil {
		t.Fatalf("scratch: %v", err)
	}
	dir.WithLogger(logger.Discard())
	h := &harness{
		dir:        dir,
		speech:     &speechEngine{dir: dir},
		translator: &translator{},
		generator:  &generator{},
	}
	h.orch = New(Stages{
		Fetcher:     fetcher.New(fetcher.Config{GraphBaseURL: graphURL}, dir).WithLogger(logger.Discard()),
		Transcriber: transcription.New(h.speech).WithLogger(logger.Discard()),
		Router:      language.NewRouter("en"),
		Translator:  h.translator,
		Refiner:     refiner.New(h.generator).WithLogger(logger.Discard()),
		Extractor:   extractor.New(func() time.Time { return now }),
	}).WithLogger(logger.Discard())
	return h
}

func graphServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"` + srv.URL + `/blob","mime_type":"audio/ogg"}`))
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OggS-voice-note"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func ref(id string) types.AudioReference {
	return types.AudioReference{MediaID: id, AccessToken: "token", LanguageHint: "hi-IN"}
}

func TestRunHindiComplaint(t *testing.T) {
	srv := graphServer(t)
	h := newHarness(t, srv.URL+"/graph")
	h.speech.mediaID = "wamid-a"
	h.speech.text = "मुझे ₹50,000 का फ्रॉड कॉल आया कल"
	h.translator.out = "I got a fraud call for ₹50,000 yesterday"
	h.generator.out = "Yesterday I received a fraud call and lost ₹50,000."

	res := h.orch.Run(context.Background(), ref("wamid-a"))

	if !res.Success || res.State != StateDone {
		t.Fatalf("unexpected result %+v", res)
	}
	if !h.speech.sawScratch {
		t.Error("audio was not in scratch during transcription")
	}
	if h.dir.Exists("wamid-a") {
		t.Error("scratch entry not released")
	}
	if h.translator.calls != 1 || h.translator.src != "hi" {
		t.Errorf("translator calls=%d src=%q", h.translator.calls, h.translator.src)
	}
	if res.RawTranscript != h.speech.text || res.TranslatedText != h.translator.out || res.RefinedText != h.generator.out {
		t.Errorf("stage outputs not propagated: %+v", res)
	}
	if !res.Translation.WasTranslated || !res.Refinement.WasRefined {
		t.Error("diagnostic flags not retained")
	}
	env := res.Envelope()
	if env.Details.Amount == nil || *env.Details.Amount != "50000" {
		t.Errorf("amount = %v", env.Details.Amount)
	}
	if env.Details.Date == nil || *env.Details.Date != "2025-11-09" {
		t.Errorf("date = %v", env.Details.Date)
	}
	if env.Details.FraudType != string(types.FraudCall) {
		t.Errorf("fraud type = %q", env.Details.FraudType)
	}
}

func TestRunEnglishComplaintSkipsTranslation(t *testing.T) {
	srv := graphServer(t)
	h := newHarness(t, srv.URL+"/graph")
	h.speech.text = "I received an OTP fraud call and lost 2000 rupees"

	res := h.orch.Run(context.Background(), types.AudioReference{MediaID: "wamid-b", AccessToken: "token", LanguageHint: "en"})

	if !res.Success {
		t.Fatalf("unexpected failure %q", res.ErrorMessage)
	}
	if h.translator.calls != 0 {
		t.Error("translator should not run for English text")
	}
	if res.TranslatedText != h.speech.text || res.Translation.WasTranslated {
		t.Errorf("translation should pass through, got %+v", res.Translation)
	}
	// the generator fails, so the narrative passes through unrefined
	if res.RefinedText != h.speech.text || res.Refinement.WasRefined {
		t.Errorf("refinement should pass through, got %+v", res.Refinement)
	}
	if res.Details.Amount != "2000" {
		t.Errorf("amount = %q", res.Details.Amount)
	}
}

func TestRunSpeechEngineDown(t *testing.T) {
	srv := graphServer(t)
	h := newHarness(t, srv.URL+"/graph")
	h.speech.err = errors.New("dial tcp: connection refused")
	h.generator.out = "should not be used"

	res := h.orch.Run(context.Background(), ref("wamid-c"))

	if !res.Success {
		t.Fatalf("speech failure must not fail the run: %q", res.ErrorMessage)
	}
	if res.RefinedText != types.NoSpeechSentinel || res.Envelope().Transcription != types.NoSpeechSentinel {
		t.Errorf("sentinel not propagated: %q", res.RefinedText)
	}
	if h.translator.calls != 0 || h.generator.calls != 0 {
		t.Error("sentinel should not be sent to translation or refinement")
	}
	if res.Details.FraudType != types.FraudOther {
		t.Errorf("fraud type = %q", res.Details.FraudType)
	}
	if h.dir.Exists("wamid-c") {
		t.Error("scratch entry not released")
	}
}

func TestRunFetchFailure(t *testing.T) {
	srv := graphServer(t)
	base := srv.URL + "/graph"
	srv.Close()
	h := newHarness(t, base)

	res := h.orch.Run(context.Background(), ref("wamid-d"))

	if res.Success || !IsFatal(res) {
		t.Fatalf("expected fatal result, got %+v", res)
	}
	if res.ErrorMessage == "" {
		t.Error("error message missing")
	}
	if res.Details != (types.ExtractedDetails{}) {
		t.Errorf("details should be empty, got %+v", res.Details)
	}
	if h.dir.Exists("wamid-d") {
		t.Error("scratch entry present after failed fetch")
	}
	env := res.Envelope()
	if env.Success || env.Details.Amount != nil || env.Details.Date != nil || env.Error == "" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestRunIgnoresCancellation(t *testing.T) {
	srv := graphServer(t)
	h := newHarness(t, srv.URL+"/graph")
	h.speech.text = "lost Rs 900 on OLX"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.orch.Run(ctx, ref("wamid-e"))

	if !res.Success || res.Details.Amount != "900" {
		t.Fatalf("cancelled caller aborted the run: %+v", res)
	}
	if h.dir.Exists("wamid-e") {
		t.Error("scratch entry not released")
	}
}

func TestRunText(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")
	h.translator.out = "my account was emptied after I shared an OTP on 05/11/2025"

	res := h.orch.RunText(context.Background(), "मैंने 05/11/2025 को OTP बताया और मेरा अकाउंट खाली हो गया", "")

	if !res.Success || res.State != StateDone {
		t.Fatalf("unexpected result %+v", res)
	}
	if h.translator.calls != 1 || h.translator.src != "hi" {
		t.Errorf("translator calls=%d src=%q", h.translator.calls, h.translator.src)
	}
	if res.Details.FraudType != types.FraudBanking {
		t.Errorf("fraud type = %q", res.Details.FraudType)
	}
	if res.Details.IncidentDate == nil || res.Details.IncidentDate.Format(types.DateLayout) != "2025-11-05" {
		t.Errorf("date = %v", res.Details.IncidentDate)
	}
}

func TestStagesValidate(t *testing.T) {
	if err := (Stages{}).Validate(); err == nil {
		t.Error("expected error for empty stages")
	}
}
