package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/scratch"
	"voice-complaint-go/internal/types"
)

type graph struct {
	audio       []byte
	lookupCode  int
	downloadErr bool
	auth        []string
	lookupPath  string
	lookupQuery string
}

func (g *graph) server(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/v18.0/", func(w http.ResponseWriter, r *http.Request) {
		g.auth = append(g.auth, r.Header.Get("Authorization"))
		g.lookupPath, g.lookupQuery = r.URL.Path, r.URL.RawQuery
		if g.lookupCode != 0 {
			w.WriteHeader(g.lookupCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"` + srv.URL + `/media/blob","mime_type":"audio/ogg; codecs=opus"}`))
	})
	mux.HandleFunc("/media/blob", func(w http.ResponseWriter, r *http.Request) {
		g.auth = append(g.auth, r.Header.Get("Authorization"))
		if g.downloadErr {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(g.audio)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher(t *testing.T, base string) (*Fetcher, *scratch.Dir) {
	t.Helper()
	dir, err := scratch.New(t.TempDir())
	if err != nil {
		t.Fatalf("scratch: %v", err)
	}
	dir.WithLogger(logger.Discard())
	f := New(Config{GraphBaseURL: base + "/v18.0"}, dir).WithLogger(logger.Discard())
	return f, dir
}

func TestFetchStoresAudio(t *testing.T) {
	g := &graph{audio: []byte("OggS-voice")}
	srv := g.server(t)
	f, dir := newFetcher(t, srv.URL)

	asset, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "wamid1", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(asset.Data) != "OggS-voice" {
		t.Errorf("unexpected data %q", asset.Data)
	}
	if asset.Codec.Encoding != "OGG_OPUS" || asset.Codec.SampleRateHz != 16000 {
		t.Errorf("unexpected codec %+v", asset.Codec)
	}
	if asset.Codec.MimeType != "audio/ogg; codecs=opus" {
		t.Errorf("expected mime type from lookup, got %q", asset.Codec.MimeType)
	}
	if !dir.Exists("wamid1") {
		t.Error("expected scratch entry")
	}
	for _, h := range g.auth {
		if h != "Bearer tok" {
			t.Errorf("expected bearer token on every call, got %q", h)
		}
	}

	if err := f.Release(asset); err != nil {
		t.Fatalf("release: %v", err)
	}
	if dir.Exists("wamid1") {
		t.Error("expected scratch entry to be gone after release")
	}
}

func TestFetchEscapesMediaID(t *testing.T) {
	g := &graph{audio: []byte("OggS-voice")}
	srv := g.server(t)
	f, _ := newFetcher(t, srv.URL)

	asset, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "wamid?fields=x#frag", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Release(asset)
	if g.lookupPath != "/v18.0/wamid?fields=x#frag" {
		t.Errorf("lookup path = %q", g.lookupPath)
	}
	if g.lookupQuery != "" {
		t.Errorf("media id leaked into query %q", g.lookupQuery)
	}
}

func TestFetchIsIdempotentPerReference(t *testing.T) {
	g := &graph{audio: []byte("first-and-longer")}
	srv := g.server(t)
	f, _ := newFetcher(t, srv.URL)
	ref := types.AudioReference{MediaID: "same", AccessToken: "tok"}

	if _, err := f.Fetch(context.Background(), ref); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	g.audio = []byte("second")
	asset, err := f.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	onDisk, err := os.ReadFile(asset.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(onDisk) != "second" {
		t.Errorf("expected overwrite, got %q", onDisk)
	}
}

func TestFetchLookupFailure(t *testing.T) {
	g := &graph{lookupCode: http.StatusUnauthorized}
	srv := g.server(t)
	f, dir := newFetcher(t, srv.URL)

	_, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "m", AccessToken: "bad"})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Stage != StageResolve || fe.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected error detail: %+v", fe)
	}
	if dir.Exists("m") {
		t.Error("no scratch entry expected")
	}
}

func TestFetchDownloadFailure(t *testing.T) {
	g := &graph{downloadErr: true}
	srv := g.server(t)
	f, dir := newFetcher(t, srv.URL)

	_, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "m", AccessToken: "tok"})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Stage != StageDownload {
		t.Fatalf("expected download FetchError, got %v", err)
	}
	if dir.Exists("m") {
		t.Error("no scratch entry expected")
	}
}

func TestFetchEmptyPayload(t *testing.T) {
	g := &graph{audio: nil}
	srv := g.server(t)
	f, _ := newFetcher(t, srv.URL)

	_, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "m", AccessToken: "tok"})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchRejectsPathLikeMediaID(t *testing.T) {
	f, _ := newFetcher(t, "http://127.0.0.1:0")
	_, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "../etc", AccessToken: "tok"})
	if !errors.Is(err, scratch.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	f, _ := newFetcher(t, base)

	_, err := f.Fetch(context.Background(), types.AudioReference{MediaID: "m", AccessToken: "tok"})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Stage != StageResolve {
		t.Fatalf("expected resolve FetchError, got %v", err)
	}
}
