package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/httpx"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/scratch"
	"voice-complaint-go/internal/types"
)

const (
	StageResolve  = "resolve"
	StageDownload = "download"
	StageStore    = "store"
)

// FetchError is the single fatal failure class of the pipeline.
type FetchError struct {
	Stage      string
	MediaID    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s %s: status %d: %v", e.Stage, e.MediaID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.Stage, e.MediaID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Config struct {
	GraphBaseURL string
	Timeout      time.Duration
	Retry        httpx.Retry
	Codec        types.Codec
}

// Fetcher exchanges a media reference for a download URL, downloads the
// voice note and parks it in the scratch area.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	scratch *scratch.Dir
	log     *logrus.Entry
}

func New(cfg Config, dir *scratch.Dir) *Fetcher {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.facebook.com/v18.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Codec.Encoding == "" {
		cfg.Codec = types.Codec{Encoding: "OGG_OPUS", SampleRateHz: 16000, MimeType: "audio/ogg"}
	}
	return &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		scratch: dir,
		log:     logger.Component("fetcher"),
	}
}

func (f *Fetcher) WithLogger(log *logrus.Entry) *Fetcher {
	f.log = log
	return f
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// Fetch downloads the referenced audio. Repeated fetches of one reference
// overwrite the same scratch entry. On error nothing is left on disk.
func (f *Fetcher) Fetch(ctx context.Context, ref types.AudioReference) (*types.AudioAsset, error) {
	log := f.log.WithField("media_id", ref.MediaID)
	if _, err := f.scratch.Path(ref.MediaID); err != nil {
		return nil, &FetchError{Stage: StageResolve, MediaID: ref.MediaID, Err: err}
	}

	var info mediaInfo
	endpoint := strings.TrimRight(f.cfg.GraphBaseURL, "/") + "/" + url.PathEscape(ref.MediaID)
	err := httpx.DoJSON(ctx, f.client, f.cfg.Retry, f.authorized(http.MethodGet, endpoint, ref.AccessToken), &info)
	if err != nil {
		log.WithField("error", err.Error()).Error("media url lookup failed")
		return nil, wrap(StageResolve, ref.MediaID, err)
	}
	if info.URL == "" {
		return nil, &FetchError{Stage: StageResolve, MediaID: ref.MediaID, Err: errors.New("media url missing from response")}
	}

	data, err := httpx.Do(ctx, f.client, f.cfg.Retry, f.authorized(http.MethodGet, info.URL, ref.AccessToken))
	if err != nil {
		log.WithField("error", err.Error()).Error("audio download failed")
		return nil, wrap(StageDownload, ref.MediaID, err)
	}
	if len(data) == 0 {
		return nil, &FetchError{Stage: StageDownload, MediaID: ref.MediaID, Err: errors.New("empty audio payload")}
	}

	path, err := f.scratch.Write(ref.MediaID, data)
	if err != nil {
		return nil, &FetchError{Stage: StageStore, MediaID: ref.MediaID, Err: err}
	}

	codec := f.cfg.Codec
	if info.MimeType != "" {
		codec.MimeType = info.MimeType
	}
	log.WithField("bytes", len(data)).WithField("path", path).Info("audio downloaded")
	return &types.AudioAsset{MediaID: ref.MediaID, Path: path, Data: data, Codec: codec}, nil
}

// Release removes the asset's scratch entry.
func (f *Fetcher) Release(asset *types.AudioAsset) error {
	if asset == nil {
		return nil
	}
	return f.scratch.Remove(asset.MediaID)
}

// Discard removes whatever is stored under the media id.
func (f *Fetcher) Discard(mediaID string) error {
	return f.scratch.Remove(mediaID)
}

func (f *Fetcher) authorized(method, url, token string) httpx.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}
}

func wrap(stage, mediaID string, err error) *FetchError {
	fe := &FetchError{Stage: stage, MediaID: mediaID, Err: err}
	var serr *httpx.StatusError
	if errors.As(err, &serr) {
		fe.StatusCode = serr.Code
	}
	return fe
}
