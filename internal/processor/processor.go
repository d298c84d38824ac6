// Package processor is the service layer between transports and the
// pipeline: it serialises runs per media id, stores results and attaches the
// caller guidance.
package processor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/actionable"
	"voice-complaint-go/internal/aggregator"
	"voice-complaint-go/internal/cache"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/types"
)

var (
	ErrRunInFlight = errors.New("processor: a run for this media id is already in progress")
	ErrNotFound    = errors.New("processor: no result for this media id")
)

type Runner interface {
	Run(ctx context.Context, ref types.AudioReference) types.PipelineResult
	RunText(ctx context.Context, text, languageHint string) types.PipelineResult
}

// Store persists results and run locks. *cache.Cache implements it.
type Store interface {
	GetResult(ctx context.Context, mediaID string) (types.Envelope, error)
	SaveResult(ctx context.Context, mediaID string, env types.Envelope) error
	Lock(ctx context.Context, mediaID string) (token string, ok bool, err error)
	Unlock(ctx context.Context, mediaID, token string) error
}

type Service struct {
	runner Runner
	store  Store
	log    *logrus.Entry
}

// New returns a Service. A nil store disables locking and result lookups.
func New(runner Runner, store Store) *Service {
	return &Service{runner: runner, store: store, log: logger.Component("processor")}
}

func (s *Service) WithLogger(log *logrus.Entry) *Service {
	s.log = log
	return s
}

// Process runs the pipeline for one voice note. The only errors are
// ErrRunInFlight and lock store failures; a failed fetch is reported in the
// envelope.
func (s *Service) Process(ctx context.Context, ref types.AudioReference) (types.Envelope, error) {
	log := s.log.WithField("media_id", ref.MediaID)
	if s.store != nil {
		token, ok, err := s.store.Lock(ctx, ref.MediaID)
		if err != nil {
			return types.Envelope{}, err
		}
		if !ok {
			log.Warn("run already in progress")
			return types.Envelope{}, ErrRunInFlight
		}
		defer func() {
			if err := s.store.Unlock(context.WithoutCancel(ctx), ref.MediaID, token); err != nil {
				log.WithError(err).Warn("unlock failed")
			}
		}()
	}

	res := s.runner.Run(ctx, ref)
	env := envelope(res)
	if s.store != nil {
		if err := s.store.SaveResult(context.WithoutCancel(ctx), ref.MediaID, env); err != nil {
			log.WithError(err).Warn("result not cached")
		}
	}
	log.WithFields(logrus.Fields{
		"success":     res.Success,
		"next_step":   env.NextStep.Action,
		"duration_ms": res.Duration.Milliseconds(),
	}).Info("voice note processed")
	return env, nil
}

// ProcessText runs a typed complaint.
func (s *Service) ProcessText(ctx context.Context, text, languageHint string) types.Envelope {
	return envelope(s.runner.RunText(ctx, text, languageHint))
}

// Lookup returns the stored envelope of an earlier run.
func (s *Service) Lookup(ctx context.Context, mediaID string) (types.Envelope, error) {
	if s.store == nil {
		return types.Envelope{}, ErrNotFound
	}
	env, err := s.store.GetResult(ctx, mediaID)
	if errors.Is(err, cache.ErrMiss) {
		return types.Envelope{}, ErrNotFound
	}
	return env, err
}

type CaseResult struct {
	CaseID   string         `json:"case_id"`
	Envelope types.Envelope `json:"result"`
}

type Report struct {
	Cases      []CaseResult          `json:"cases"`
	Insight    aggregator.Insight    `json:"insight"`
	ActionCard actionable.ActionCard `json:"action_card"`
	DurationMs int64                 `json:"duration_ms"`
}

// Replay runs typed sample cases in order and summarises them.
func (s *Service) Replay(ctx context.Context, cases []types.SampleCase) Report {
	start := time.Now()
	results := make([]types.PipelineResult, 0, len(cases))
	rep := Report{Cases: make([]CaseResult, 0, len(cases))}
	for _, c := range cases {
		res := s.runner.RunText(ctx, c.Transcript, c.LanguageHint)
		results = append(results, res)
		rep.Cases = append(rep.Cases, CaseResult{CaseID: c.CaseID, Envelope: envelope(res)})
	}
	rep.Insight = aggregator.Aggregate(results)
	rep.ActionCard = actionable.Generate(rep.Insight)
	rep.DurationMs = time.Since(start).Milliseconds()
	s.log.WithField("cases", len(cases)).WithField("duration_ms", rep.DurationMs).Info("sample corpus replayed")
	return rep
}

func envelope(res types.PipelineResult) types.Envelope {
	env := res.Envelope()
	env.NextStep = actionable.NextStep(res)
	return env
}
