// Package api exposes the complaint pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/processor"
	"voice-complaint-go/internal/types"
)

type Processor interface {
	Process(ctx context.Context, ref types.AudioReference) (types.Envelope, error)
	ProcessText(ctx context.Context, text, languageHint string) types.Envelope
	Lookup(ctx context.Context, mediaID string) (types.Envelope, error)
	Replay(ctx context.Context, cases []types.SampleCase) processor.Report
}

type Enqueuer interface {
	EnqueueVoiceProcess(ref types.AudioReference) error
}

// Deps wires the handlers. Queue, Corpus and Ping are optional.
type Deps struct {
	Service   Processor
	Queue     Enqueuer
	Corpus    func() ([]types.SampleCase, error)
	DemoLimit int
	Ping      func(ctx context.Context) error
	Log       *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.New()
	}
	h := &handlers{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/demo", h.demo)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/voice", h.processVoice)
		r.Post("/voice/async", h.enqueueVoice)
		r.Get("/voice/{mediaId}", h.lookupVoice)
		r.Post("/text", h.processText)
	})
	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithRequest(r).
				WithField("status", ww.Status()).
				WithField("bytes", ww.BytesWritten()).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				Info("request completed")
		})
	}
}
