// Package app builds the pipeline and its engines from configuration.
package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/config"
	"voice-complaint-go/internal/extractor"
	"voice-complaint-go/internal/fetcher"
	"voice-complaint-go/internal/httpx"
	"voice-complaint-go/internal/language"
	"voice-complaint-go/internal/pipeline"
	"voice-complaint-go/internal/refiner"
	"voice-complaint-go/internal/scratch"
	"voice-complaint-go/internal/transcription"
	"voice-complaint-go/internal/translation"
	"voice-complaint-go/internal/types"
)

// Pipeline assembles the orchestrator over dir.
func Pipeline(cfg *config.Config, dir *scratch.Dir, log *logrus.Entry) *pipeline.Orchestrator {
	f := fetcher.New(fetcher.Config{
		GraphBaseURL: cfg.Fetch.GraphBaseURL,
		Timeout:      cfg.Fetch.Timeout,
		Retry:        retry(cfg.Fetch.MaxRetries),
		Codec: types.Codec{
			Encoding:     cfg.Speech.Encoding,
			SampleRateHz: cfg.Speech.SampleRateHz,
			MimeType:     "audio/ogg",
		},
	}, dir).WithLogger(component(log, "fetcher"))

	speech := SpeechEngine(cfg.Speech)
	gen := Generator(cfg.Refine)
	if speech == nil {
		log.Warn("no speech engine configured, voice notes will yield the no-speech transcript")
	}
	if gen == nil {
		log.Warn("no refinement engine configured, narratives are kept as transcribed")
	}
	if cfg.Translate.APIKey == "" {
		log.Warn("GOOGLE_TRANSLATE_API_KEY not set, translation disabled")
	}

	tr := transcription.New(speech).
		WithDefaultLanguage(cfg.Speech.LanguageCode).
		WithLogger(component(log, "transcription"))

	return pipeline.New(pipeline.Stages{
		Fetcher:     f,
		Transcriber: tr,
		Router:      language.NewRouter(cfg.Translate.Target),
		Translator: translation.New(translation.Config{
			APIKey:   cfg.Translate.APIKey,
			Endpoint: cfg.Translate.Endpoint,
			Timeout:  cfg.Translate.Timeout,
			Retry:    retry(cfg.Translate.MaxRetries),
		}).WithLogger(component(log, "translation")),
		Refiner:   refiner.New(gen).WithLogger(component(log, "refiner")),
		Extractor: extractor.New(time.Now),
	}).WithLogger(component(log, "pipeline"))
}

func component(log *logrus.Entry, name string) *logrus.Entry {
	return log.WithField("component", name)
}

// SpeechEngine returns nil when recognition is disabled.
func SpeechEngine(cfg config.SpeechConfig) transcription.Engine {
	switch cfg.Provider {
	case "google":
		return transcription.NewGoogleEngine(transcription.GoogleConfig{
			APIKey:   cfg.APIKey,
			Endpoint: cfg.Endpoint,
			Timeout:  cfg.Timeout,
			Retry:    retry(cfg.MaxRetries),
		})
	case "whisper":
		return transcription.NewWhisperEngine(transcription.WhisperConfig{
			APIKey:  cfg.WhisperKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.WhisperModel,
			Timeout: cfg.Timeout,
		})
	default:
		return nil
	}
}

// Generator returns nil when refinement is disabled or has no key.
func Generator(cfg config.RefineConfig) refiner.Generator {
	if cfg.APIKey == "" {
		return nil
	}
	switch cfg.Provider {
	case "gemini":
		return refiner.NewGeminiGenerator(refiner.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "openai":
		return refiner.NewOpenAIGenerator(refiner.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	case "anthropic":
		return refiner.NewAnthropicGenerator(refiner.AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil
	}
}

func retry(n int) httpx.Retry {
	return httpx.Retry{MaxRetries: n, InitialInterval: 500 * time.Millisecond, MaxElapsed: 20 * time.Second}
}
