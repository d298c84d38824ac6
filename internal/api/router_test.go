package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/processor"
	"voice-complaint-go/internal/queue"
	"voice-complaint-go/internal/types"
)

type fakeService struct {
	env      types.Envelope
	err      error
	stored   map[string]types.Envelope
	gotRef   types.AudioReference
	gotText  string
	replayed []types.SampleCase
}

func (f *fakeService) Process(_ context.Context, ref types.AudioReference) (types.Envelope, error) {
	f.gotRef = ref
	return f.env, f.err
}

func (f *fakeService) ProcessText(_ context.Context, text, _ string) types.Envelope {
	f.gotText = text
	return types.Envelope{Success: true, RawTranscript: text, Transcription: text}
}

func (f *fakeService) Lookup(_ context.Context, id string) (types.Envelope, error) {
	env, ok := f.stored[id]
	if !ok {
		return types.Envelope{}, processor.ErrNotFound
	}
	return env, nil
}

func (f *fakeService) Replay(_ context.Context, cases []types.SampleCase) processor.Report {
	f.replayed = cases
	rep := processor.Report{}
	for _, c := range cases {
		rep.Cases = append(rep.Cases, processor.CaseResult{CaseID: c.CaseID})
	}
	return rep
}

type fakeQueue struct {
	err error
	got []types.AudioReference
}

func (q *fakeQueue) EnqueueVoiceProcess(ref types.AudioReference) error {
	q.got = append(q.got, ref)
	return q.err
}

func newServer(t *testing.T, d Deps) *httptest.Server {
	t.Helper()
	d.Log = &logger.Logger{Entry: logger.Discard()}
	srv := httptest.NewServer(NewRouter(d))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp, readBody(t, resp)
}

func get(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return out
}

const voiceBody = `{"mediaId":"wamid-1","accessToken":"token","languageHint":"hi"}`

func TestProcessVoice(t *testing.T) {
	amount := "50000"
	svc := &fakeService{env: types.Envelope{
		Success:       true,
		Transcription: "I lost ₹50000 to a fraud call.",
		Details:       types.EnvelopeDetails{Amount: &amount, FraudType: "Call Fraud"},
		NextStep:      &types.NextStep{Action: "confirm"},
	}}
	srv := newServer(t, Deps{Service: svc})

	resp, body := post(t, srv.URL+"/v1/voice", voiceBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if svc.gotRef.MediaID != "wamid-1" || svc.gotRef.LanguageHint != "hi" {
		t.Errorf("unexpected reference %+v", svc.gotRef)
	}
	details := body["details"].(map[string]any)
	if details["amount"] != "50000" || details["date"] != nil {
		t.Errorf("unexpected details %v", details)
	}
	if next, _ := body["nextStep"].(map[string]any); next["action"] != "confirm" {
		t.Errorf("nextStep missing: %v", body)
	}
}

func TestProcessVoiceStatuses(t *testing.T) {
	cases := []struct {
		name string
		svc  *fakeService
		body string
		want int
	}{
		{"fetch failure", &fakeService{env: types.Envelope{Success: false, Error: "fetch resolve wamid-1: status 401"}}, voiceBody, http.StatusBadGateway},
		{"in flight", &fakeService{err: processor.ErrRunInFlight}, voiceBody, http.StatusConflict},
		{"store down", &fakeService{err: errors.New("redis: connection refused")}, voiceBody, http.StatusInternalServerError},
		{"missing token", &fakeService{}, `{"mediaId":"wamid-1"}`, http.StatusBadRequest},
		{"bad json", &fakeService{}, `{"mediaId":`, http.StatusBadRequest},
		{"empty body", &fakeService{}, ``, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, Deps{Service: tc.svc})
			resp, body := post(t, srv.URL+"/v1/voice", tc.body)
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d (%v)", resp.StatusCode, tc.want, body)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	srv := newServer(t, Deps{Service: &fakeService{}})
	_, body := post(t, srv.URL+"/v1/voice", `{"mediaId":"wamid-1"}`)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "accessToken: is required") {
		t.Errorf("unexpected error %v", body)
	}
}

func TestEnqueueVoice(t *testing.T) {
	q := &fakeQueue{}
	srv := newServer(t, Deps{Service: &fakeService{}, Queue: q})

	resp, body := post(t, srv.URL+"/v1/voice/async", voiceBody)
	if resp.StatusCode != http.StatusAccepted || body["status"] != "queued" || body["mediaId"] != "wamid-1" {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if len(q.got) != 1 || q.got[0].AccessToken != "token" {
		t.Errorf("unexpected enqueue %+v", q.got)
	}

	q.err = queue.ErrDuplicate
	if resp, _ := post(t, srv.URL+"/v1/voice/async", voiceBody); resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d", resp.StatusCode)
	}

	noQueue := newServer(t, Deps{Service: &fakeService{}})
	if resp, _ := post(t, noQueue.URL+"/v1/voice/async", voiceBody); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d", resp.StatusCode)
	}
}

func TestLookupVoice(t *testing.T) {
	svc := &fakeService{stored: map[string]types.Envelope{"wamid-1": {Success: true, Transcription: "stored"}}}
	srv := newServer(t, Deps{Service: svc})

	resp, body := get(t, srv.URL+"/v1/voice/wamid-1")
	if resp.StatusCode != http.StatusOK || body["transcription"] != "stored" {
		t.Errorf("status %d: %v", resp.StatusCode, body)
	}
	if resp, _ := get(t, srv.URL+"/v1/voice/unknown"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d", resp.StatusCode)
	}
}

func TestProcessText(t *testing.T) {
	svc := &fakeService{}
	srv := newServer(t, Deps{Service: svc})

	resp, body := post(t, srv.URL+"/v1/text", `{"text":"lost Rs 900 on OLX"}`)
	if resp.StatusCode != http.StatusOK || body["transcription"] != "lost Rs 900 on OLX" {
		t.Errorf("status %d: %v", resp.StatusCode, body)
	}
	if resp, _ := post(t, srv.URL+"/v1/text", `{"text":""}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty text status = %d", resp.StatusCode)
	}
}

func TestDemo(t *testing.T) {
	svc := &fakeService{}
	corpus := []types.SampleCase{
		{CaseID: "C-1", Transcript: "one"},
		{CaseID: "C-2", Transcript: "two"},
		{CaseID: "C-3", Transcript: "three"},
	}
	srv := newServer(t, Deps{
		Service:   svc,
		Corpus:    func() ([]types.SampleCase, error) { return corpus, nil },
		DemoLimit: 2,
	})

	resp, body := get(t, srv.URL+"/demo")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if len(svc.replayed) != 2 {
		t.Errorf("replayed %d cases, want 2", len(svc.replayed))
	}
	if c := body["corpus"].(map[string]any); c["total_cases"] != float64(3) {
		t.Errorf("unexpected corpus summary %v", c)
	}

	if resp, _ := get(t, srv.URL+"/demo?limit=1"); resp.StatusCode != http.StatusOK || len(svc.replayed) != 1 {
		t.Errorf("limit override: status %d, replayed %d", resp.StatusCode, len(svc.replayed))
	}
	if resp, _ := get(t, srv.URL+"/demo?limit=x"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", resp.StatusCode)
	}

	broken := newServer(t, Deps{Service: svc, Corpus: func() ([]types.SampleCase, error) { return nil, errors.New("open file: no such file") }})
	if resp, _ := get(t, broken.URL+"/demo"); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("broken corpus status = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, Deps{Service: &fakeService{}})
	if resp, body := get(t, srv.URL+"/healthz"); resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("status %d: %v", resp.StatusCode, body)
	}

	down := newServer(t, Deps{Service: &fakeService{}, Ping: func(context.Context) error { return errors.New("dial tcp: refused") }})
	if resp, body := get(t, down.URL+"/healthz"); resp.StatusCode != http.StatusServiceUnavailable || body["status"] != "unhealthy" {
		t.Errorf("status %d: %v", resp.StatusCode, body)
	}
}
