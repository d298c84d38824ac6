package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"voice-complaint-go/internal/dataset"
	"voice-complaint-go/internal/processor"
	"voice-complaint-go/internal/queue"
	"voice-complaint-go/internal/types"
)

type handlers struct {
	Deps
}

type textRequest struct {
	Text         string `json:"text" validate:"required,max=10000"`
	LanguageHint string `json:"languageHint,omitempty" validate:"omitempty,max=16"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := http.StatusOK
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}
	state := "ok"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

func (h *handlers) processVoice(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithRequest(r).WithField("handler", "voice")
	var ref types.AudioReference
	if err := decode(w, r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := h.Service.Process(r.Context(), ref)
	switch {
	case errors.Is(err, processor.ErrRunInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.WithField("error", err.Error()).Error("voice processing failed")
		writeError(w, http.StatusInternalServerError, "voice processing failed")
		return
	}
	status := http.StatusOK
	if !env.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, env)
}

func (h *handlers) enqueueVoice(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "async processing is not configured")
		return
	}
	var ref types.AudioReference
	if err := decode(w, r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.Queue.EnqueueVoiceProcess(ref)
	switch {
	case errors.Is(err, queue.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.WithRequest(r).WithField("error", err.Error()).Error("enqueue failed")
		writeError(w, http.StatusInternalServerError, "could not queue voice note")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"mediaId": ref.MediaID, "status": "queued"})
}

func (h *handlers) lookupVoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mediaId")
	env, err := h.Service.Lookup(r.Context(), id)
	switch {
	case errors.Is(err, processor.ErrNotFound):
		writeError(w, http.StatusNotFound, "no result for "+id)
		return
	case err != nil:
		h.Log.WithRequest(r).WithField("error", err.Error()).Error("lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *handlers) processText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Service.ProcessText(r.Context(), req.Text, req.LanguageHint))
}

// demo replays the first rows of the sample corpus; ?limit= overrides the
// configured count.
func (h *handlers) demo(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithRequest(r).WithField("handler", "demo")
	if h.Corpus == nil {
		writeError(w, http.StatusServiceUnavailable, "sample corpus is not configured")
		return
	}
	cases, err := h.Corpus()
	if err != nil {
		log.WithField("error", err.Error()).Error("dataset load error")
		writeError(w, http.StatusInternalServerError, "dataset load error")
		return
	}
	limit := h.DemoLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	report := h.Service.Replay(r.Context(), dataset.Head(cases, limit))
	writeJSON(w, http.StatusOK, map[string]any{
		"corpus": dataset.Summarize(cases),
		"report": report,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
