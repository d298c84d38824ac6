package types

import (
	"strings"
	"time"
)

// NoSpeechSentinel is the transcript text produced when the speech engine
// returned nothing usable. Callers route it to human review.
const NoSpeechSentinel = "[no usable speech detected]"

// IsNoSpeech reports whether text is the no-speech sentinel.
func IsNoSpeech(text string) bool {
	return strings.TrimSpace(text) == NoSpeechSentinel
}

// AudioReference is the inbound pointer to a voice message held by the
// messaging transport. It is consumed exactly once by the fetcher.
type AudioReference struct {
	MediaID      string `json:"mediaId" validate:"required,max=256"`
	AccessToken  string `json:"accessToken" validate:"required"`
	LanguageHint string `json:"languageHint,omitempty" validate:"omitempty,max=16"`
}

type Codec struct {
	Encoding     string `json:"encoding"`
	SampleRateHz int    `json:"sample_rate_hz"`
	MimeType     string `json:"mime_type,omitempty"`
}

// AudioAsset is the downloaded audio of a single pipeline run.
type AudioAsset struct {
	MediaID string
	Path    string
	Data    []byte
	Codec   Codec
}

// Empty reports whether the asset carries no audio.
func (a *AudioAsset) Empty() bool {
	return a == nil || len(a.Data) == 0
}

type Script int

const (
	ScriptLatinLike Script = iota
	ScriptDevanagari
	ScriptOther
)

func (s Script) String() string {
	switch s {
	case ScriptDevanagari:
		return "devanagari"
	case ScriptOther:
		return "other"
	default:
		return "latin"
	}
}

type Transcript struct {
	Text           string  `json:"text"`
	LanguageHint   string  `json:"language_hint"`
	DetectedScript Script  `json:"detected_script"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// TranslationResult with WasTranslated=false is a valid outcome, not an error.
type TranslationResult struct {
	Text          string `json:"text"`
	WasTranslated bool   `json:"was_translated"`
}

type RefinedNarrative struct {
	Text       string `json:"text"`
	WasRefined bool   `json:"was_refined"`
}

type FraudType string

const (
	FraudUPI        FraudType = "UPI Fraud"
	FraudBanking    FraudType = "Banking Fraud"
	FraudWhatsApp   FraudType = "WhatsApp Fraud"
	FraudCall       FraudType = "Call Fraud"
	FraudInvestment FraudType = "Investment Fraud"
	FraudJob        FraudType = "Job Fraud"
	FraudLottery    FraudType = "Lottery Fraud"
	FraudOLX        FraudType = "OLX Fraud"
	FraudOther      FraudType = "Other Cyber Crime"
)

// ExtractedDetails holds the structured fields derived from the narrative.
// Amount is the numeral with separators stripped, empty when absent.
type ExtractedDetails struct {
	Amount       string     `json:"amount,omitempty"`
	IncidentDate *time.Time `json:"incident_date,omitempty"`
	FraudType    FraudType  `json:"fraud_type"`
	Description  string     `json:"description"`
}

type PipelineResult struct {
	Success        bool
	RawTranscript  string
	TranslatedText string
	RefinedText    string
	Details        ExtractedDetails
	ErrorMessage   string

	// diagnostics, simplified away by Envelope
	Transcript  Transcript
	Translation TranslationResult
	Refinement  RefinedNarrative
	State       string
	Duration    time.Duration
}

// SampleCase is one typed transcript from the replay corpus.
type SampleCase struct {
	CaseID       string `json:"case_id"`
	Transcript   string `json:"transcript"`
	LanguageHint string `json:"language_hint,omitempty"`
}
