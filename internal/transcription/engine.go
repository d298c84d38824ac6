package transcription

import "context"

// RecognizeRequest is what the speech engine receives for one voice note.
type RecognizeRequest struct {
	AudioBase64       string
	Audio             []byte
	FileName          string
	Encoding          string
	SampleRateHz      int
	LanguageCode      string
	EnablePunctuation bool
}

type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Utterance is one recognised segment with its ranked alternatives.
type Utterance struct {
	Alternatives []Alternative `json:"alternatives"`
	LanguageCode string        `json:"languageCode,omitempty"`
}

// Engine is a speech-to-text backend.
type Engine interface {
	Recognize(ctx context.Context, req RecognizeRequest) ([]Utterance, error)
	Name() string
}
