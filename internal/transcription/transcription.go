package transcription

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/language"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/types"
)

var ErrEmptyAsset = errors.New("transcription: empty audio asset")

// Transcriber turns an audio asset into text. Engine failures never surface
// as errors; they produce types.NoSpeechSentinel instead.
type Transcriber struct {
	engine      Engine
	defaultLang string
	log         *logrus.Entry
}

// New returns a Transcriber. A nil engine means speech recognition is not
// configured and every call yields the sentinel.
func New(engine Engine) *Transcriber {
	return &Transcriber{engine: engine, log: logger.Component("transcription")}
}

func (t *Transcriber) WithLogger(log *logrus.Entry) *Transcriber {
	t.log = log
	return t
}

// WithDefaultLanguage sets the code sent to the engine when the caller has no
// language hint.
func (t *Transcriber) WithDefaultLanguage(code string) *Transcriber {
	t.defaultLang = code
	return t
}

func (t *Transcriber) Transcribe(ctx context.Context, asset *types.AudioAsset, languageHint string) (types.Transcript, error) {
	if asset.Empty() {
		return types.Transcript{}, ErrEmptyAsset
	}
	if languageHint == "" {
		languageHint = t.defaultLang
	}
	log := t.log.WithField("media_id", asset.MediaID).WithField("language", languageHint)

	if t.engine == nil {
		log.Warn("speech engine not configured, using fallback transcript")
		return fallback(languageHint), nil
	}

	req := RecognizeRequest{
		AudioBase64:       base64.StdEncoding.EncodeToString(asset.Data),
		Audio:             asset.Data,
		FileName:          filepath.Base(asset.Path),
		Encoding:          asset.Codec.Encoding,
		SampleRateHz:      asset.Codec.SampleRateHz,
		LanguageCode:      languageHint,
		EnablePunctuation: true,
	}
	utterances, err := t.engine.Recognize(ctx, req)
	if err != nil {
		log.WithField("engine", t.engine.Name()).WithField("error", err.Error()).Error("speech engine failed, using fallback transcript")
		return fallback(languageHint), nil
	}

	text, confidence, detected := join(utterances)
	if text == "" {
		log.WithField("engine", t.engine.Name()).Warn("no transcription results")
		return fallback(languageHint), nil
	}

	hint := languageHint
	if detected != "" {
		hint = detected
	}
	log.WithField("confidence", confidence).WithField("chars", len(text)).Info("transcription successful")
	return types.Transcript{
		Text:           text,
		LanguageHint:   hint,
		DetectedScript: language.DetectScript(text),
		Confidence:     confidence,
	}, nil
}

// join concatenates the top alternative of every utterance in emission order.
func join(utterances []Utterance) (text string, confidence float64, lang string) {
	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		if len(u.Alternatives) == 0 {
			continue
		}
		top := u.Alternatives[0]
		if len(lines) == 0 {
			confidence = top.Confidence
		}
		if lang == "" {
			lang = u.LanguageCode
		}
		lines = append(lines, top.Transcript)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), confidence, lang
}

func fallback(hint string) types.Transcript {
	return types.Transcript{
		Text:           types.NoSpeechSentinel,
		LanguageHint:   hint,
		DetectedScript: types.ScriptLatinLike,
	}
}
