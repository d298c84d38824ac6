package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"voice-complaint-go/internal/httpx"
)

const defaultGoogleEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

type GoogleConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	Retry    httpx.Retry
}

// GoogleEngine calls the Cloud Speech-to-Text REST recognize method with an
// API key.
type GoogleEngine struct {
	cfg    GoogleConfig
	client *http.Client
}

func NewGoogleEngine(cfg GoogleConfig) *GoogleEngine {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGoogleEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GoogleEngine{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (g *GoogleEngine) Name() string { return "google-speech" }

type recognizeConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	AudioChannelCount          int    `json:"audioChannelCount,omitempty"`
}

type recognizeBody struct {
	Config recognizeConfig `json:"config"`
	Audio  struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []Utterance `json:"results"`
}

func (g *GoogleEngine) Recognize(ctx context.Context, req RecognizeRequest) ([]Utterance, error) {
	if g.cfg.APIKey == "" {
		return nil, errors.New("google speech api key not set")
	}
	var body recognizeBody
	body.Config = recognizeConfig{
		Encoding:                   req.Encoding,
		SampleRateHertz:            req.SampleRateHz,
		LanguageCode:               req.LanguageCode,
		EnableAutomaticPunctuation: req.EnablePunctuation,
		AudioChannelCount:          1,
	}
	body.Audio.Content = req.AudioBase64
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(g.cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", g.cfg.APIKey)
	u.RawQuery = q.Encode()
	endpoint := u.String()

	var resp recognizeResponse
	err = httpx.DoJSON(ctx, g.client, g.cfg.Retry, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
