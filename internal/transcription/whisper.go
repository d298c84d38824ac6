package transcription

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type WhisperConfig struct {
	APIKey  string
	BaseURL string // default: OpenAI
	Model   string // default: whisper-1
	Timeout time.Duration
}

// WhisperEngine transcribes through an OpenAI-compatible audio endpoint.
// The whole note comes back as a single utterance.
type WhisperEngine struct {
	client *openai.Client
	model  string
	keySet bool
}

func NewWhisperEngine(cfg WhisperConfig) *WhisperEngine {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	return &WhisperEngine{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		keySet: cfg.APIKey != "" || cfg.BaseURL != "",
	}
}

func (w *WhisperEngine) Name() string { return "openai-whisper" }

func (w *WhisperEngine) Recognize(ctx context.Context, req RecognizeRequest) ([]Utterance, error) {
	if !w.keySet {
		return nil, errors.New("whisper api key not set")
	}
	name := req.FileName
	if name == "" {
		name = "voice.ogg"
	}
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   bytes.NewReader(req.Audio),
		Language: primaryTag(req.LanguageCode),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, nil
	}
	return []Utterance{{
		Alternatives: []Alternative{{Transcript: resp.Text}},
		LanguageCode: resp.Language,
	}}, nil
}

func primaryTag(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		return code[:i]
	}
	return code
}
