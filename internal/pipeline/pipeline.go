// Package pipeline composes the voice complaint stages into one run:
// fetch, transcribe, route, translate when needed, refine and extract.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/types"
)

const (
	StateFetching     = "fetching"
	StateTranscribing = "transcribing"
	StateRouting      = "routing"
	StateTranslating  = "translating"
	StateRefining     = "refining"
	StateExtracting   = "extracting"
	StateDone         = "done"
	StateFailed       = "failed"
)

type Fetcher interface {
	Fetch(ctx context.Context, ref types.AudioReference) (*types.AudioAsset, error)
	Release(asset *types.AudioAsset) error
	Discard(mediaID string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, asset *types.AudioAsset, languageHint string) (types.Transcript, error)
}

type Router interface {
	NeedsTranslation(t types.Transcript) bool
	SourceLanguage(t types.Transcript) string
	Target() string
}

type Translator interface {
	Translate(ctx context.Context, text, source, target string) types.TranslationResult
}

type Refiner interface {
	Refine(ctx context.Context, text string) types.RefinedNarrative
}

type Extractor interface {
	Extract(text string) types.ExtractedDetails
}

// Stages bundles the collaborators of an Orchestrator.
type Stages struct {
	Fetcher     Fetcher
	Transcriber Transcriber
	Router      Router
	Translator  Translator
	Refiner     Refiner
	Extractor   Extractor
}

type Orchestrator struct {
	Stages
	log *logrus.Entry
}

func New(s Stages) *Orchestrator {
	return &Orchestrator{Stages: s, log: logger.Component("pipeline")}
}

func (o *Orchestrator) WithLogger(log *logrus.Entry) *Orchestrator {
	o.log = log
	return o
}

// Run processes one voice message. Only a fetch failure yields
// Success=false; every later stage degrades to a fallback value. The
// scratch entry of the run is gone when Run returns.
//
// A cancelled ctx does not abort a run in progress.
func (o *Orchestrator) Run(ctx context.Context, ref types.AudioReference) types.PipelineResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := o.log.WithField("run_id", uuid.NewString()).WithField("media_id", ref.MediaID)

	log.WithField("state", StateFetching).Info("downloading voice note")
	asset, err := o.Fetcher.Fetch(ctx, ref)
	if err != nil {
		if derr := o.Fetcher.Discard(ref.MediaID); derr != nil {
			log.WithField("error", derr.Error()).Warn("scratch cleanup failed")
		}
		log.WithField("state", StateFailed).WithField("error", err.Error()).Error("voice note unavailable")
		return types.PipelineResult{
			ErrorMessage: err.Error(),
			State:        StateFailed,
			Duration:     time.Since(start),
		}
	}
	defer func() {
		if err := o.Fetcher.Release(asset); err != nil {
			log.WithField("error", err.Error()).Warn("scratch cleanup failed")
		}
	}()

	log.WithField("state", StateTranscribing).Info("transcribing")
	transcript, err := o.Transcriber.Transcribe(ctx, asset, ref.LanguageHint)
	if err != nil {
		// an asset without audio is treated like silence
		log.WithField("error", err.Error()).Warn("transcription unavailable")
		transcript = types.Transcript{Text: types.NoSpeechSentinel, LanguageHint: ref.LanguageHint}
	}

	res := o.process(ctx, log, transcript)
	res.Duration = time.Since(start)
	return res
}

// RunText processes a typed complaint: route, translate, refine, extract.
func (o *Orchestrator) RunText(ctx context.Context, text, languageHint string) types.PipelineResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := o.log.WithField("run_id", uuid.NewString())

	transcript := types.Transcript{Text: text, LanguageHint: languageHint}
	res := o.process(ctx, log, transcript)
	res.Duration = time.Since(start)
	return res
}

func (o *Orchestrator) process(ctx context.Context, log *logrus.Entry, t types.Transcript) types.PipelineResult {
	res := types.PipelineResult{
		Success:       true,
		RawTranscript: t.Text,
		Transcript:    t,
	}

	log.WithField("state", StateRouting).Debug("routing")
	res.Translation = types.TranslationResult{Text: t.Text}
	if o.Router.NeedsTranslation(t) {
		log.WithField("state", StateTranslating).Info("translating")
		res.Translation = o.Translator.Translate(ctx, t.Text, o.Router.SourceLanguage(t), o.Router.Target())
	}
	res.TranslatedText = res.Translation.Text

	log.WithField("state", StateRefining).Info("refining")
	res.Refinement = o.Refiner.Refine(ctx, res.TranslatedText)
	res.RefinedText = res.Refinement.Text

	log.WithField("state", StateExtracting).Debug("extracting details")
	res.Details = o.Extractor.Extract(res.RefinedText)

	res.State = StateDone
	log.WithFields(logrus.Fields{
		"state":      StateDone,
		"translated": res.Translation.WasTranslated,
		"refined":    res.Refinement.WasRefined,
		"fraud_type": res.Details.FraudType,
		"has_amount": res.Details.Amount != "",
		"has_date":   res.Details.IncidentDate != nil,
	}).Info("complaint processed")
	return res
}

// IsFatal reports whether the run stopped at the fetch stage.
func IsFatal(res types.PipelineResult) bool {
	return !res.Success && res.State == StateFailed
}

var errNoStages = errors.New("pipeline: missing stage")

// Validate reports a missing collaborator.
func (s Stages) Validate() error {
	if s.Fetcher == nil || s.Transcriber == nil || s.Router == nil || s.Translator == nil || s.Refiner == nil || s.Extractor == nil {
		return errNoStages
	}
	return nil
}
