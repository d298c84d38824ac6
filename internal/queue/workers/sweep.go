package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/scratch"
)

// SweepWorker removes stale scratch entries left by crashed runs.
type SweepWorker struct {
	dir       *scratch.Dir
	retention time.Duration
	now       func() time.Time
	log       *logrus.Entry
}

func NewSweepWorker(dir *scratch.Dir, retention time.Duration) *SweepWorker {
	return &SweepWorker{dir: dir, retention: retention, now: time.Now, log: logger.Component("worker.sweep")}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := w.dir.Sweep(w.now(), w.retention)
	if err != nil {
		return fmt.Errorf("sweep %s: %w", w.dir.Root(), err)
	}
	w.log.WithField("removed", n).Debug("scratch swept")
	return nil
}
