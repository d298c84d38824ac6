package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/processor"
	"voice-complaint-go/internal/queue"
	"voice-complaint-go/internal/types"
)

type VoiceProcessor interface {
	Process(ctx context.Context, ref types.AudioReference) (types.Envelope, error)
}

type VoiceWorker struct {
	svc VoiceProcessor
	log *logrus.Entry
}

func NewVoiceWorker(svc VoiceProcessor) *VoiceWorker {
	return &VoiceWorker{svc: svc, log: logger.Component("worker.voice")}
}

func (w *VoiceWorker) WithLogger(log *logrus.Entry) *VoiceWorker {
	w.log = log
	return w
}

// ProcessTask runs one queued voice note. A run already in flight is retried
// later; an unavailable voice note is not retried since the fetcher already
// retried transient failures.
func (w *VoiceWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.VoiceProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	log := w.log.WithField("media_id", payload.MediaID)
	log.Info("processing voice note")

	env, err := w.svc.Process(ctx, types.AudioReference{
		MediaID:      payload.MediaID,
		AccessToken:  payload.AccessToken,
		LanguageHint: payload.LanguageHint,
	})
	if errors.Is(err, processor.ErrRunInFlight) {
		return err
	}
	if err != nil {
		return fmt.Errorf("process %s: %w", payload.MediaID, err)
	}
	if !env.Success {
		log.WithField("error", env.Error).Error("voice note unavailable")
		return fmt.Errorf("%s: %w", env.Error, asynq.SkipRetry)
	}
	return nil
}
