package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/httpx"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/types"
)

const defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	Retry    httpx.Retry
}

// Translator wraps the Google Translate v2 REST API. It never fails the
// pipeline: on any problem the input comes back with WasTranslated=false.
type Translator struct {
	cfg    Config
	client *http.Client
	log    *logrus.Entry
}

func New(cfg Config) *Translator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Translator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger.Component("translation"),
	}
}

func (t *Translator) WithLogger(log *logrus.Entry) *Translator {
	t.log = log
	return t
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translations struct {
	Translations []struct {
		TranslatedText         string `json:"translatedText"`
		DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
	} `json:"translations"`
}

type response struct {
	Data *translations `json:"data"`
	translations
}

func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) types.TranslationResult {
	passThrough := types.TranslationResult{Text: text}
	log := t.log.WithField("source", sourceLang).WithField("target", targetLang)

	if strings.TrimSpace(text) == "" || types.IsNoSpeech(text) {
		return passThrough
	}
	if t.cfg.APIKey == "" {
		log.Warn("translation api key not set, skipping translation")
		return passThrough
	}

	out, err := t.call(ctx, request{Q: text, Source: sourceLang, Target: targetLang, Format: "text"})
	if err != nil {
		log.WithField("error", err.Error()).Error("translation failed, keeping original text")
		return passThrough
	}
	log.WithField("chars", len(out)).Info("translation successful")
	return types.TranslationResult{Text: out, WasTranslated: true}
}

func (t *Translator) call(ctx context.Context, body request) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(t.cfg.Endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", t.cfg.APIKey)
	u.RawQuery = q.Encode()
	endpoint := u.String()

	var resp response
	err = httpx.DoJSON(ctx, t.client, t.cfg.Retry, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}, &resp)
	if err != nil {
		return "", err
	}

	list := resp.Translations
	if resp.Data != nil {
		list = resp.Data.Translations
	}
	if len(list) == 0 {
		return "", errors.New("no translations in response")
	}
	out := strings.TrimSpace(html.UnescapeString(list[0].TranslatedText))
	if out == "" {
		return "", errors.New("empty translation")
	}
	return out, nil
}
