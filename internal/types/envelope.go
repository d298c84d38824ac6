package types

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Envelope is the JSON object handed to the messaging collaborator.
type Envelope struct {
	Success            bool            `json:"success"`
	RawTranscript      string          `json:"rawTranscript"`
	EnglishTranslation string          `json:"englishTranslation"`
	Transcription      string          `json:"transcription"`
	Confidence         float64         `json:"confidence,omitempty"`
	Details            EnvelopeDetails `json:"details"`
	NextStep           *NextStep       `json:"nextStep,omitempty"`
	Error              string          `json:"error,omitempty"`
}

type EnvelopeDetails struct {
	Amount      *string `json:"amount"`
	Date        *string `json:"date"`
	FraudType   string  `json:"fraudType"`
	Description string  `json:"description"`
}

// NextStep tells the caller how to continue the conversation with the user.
type NextStep struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Envelope converts the result into its outbound form.
func (r PipelineResult) Envelope() Envelope {
	env := Envelope{
		Success:            r.Success,
		RawTranscript:      r.RawTranscript,
		EnglishTranslation: r.TranslatedText,
		Transcription:      r.RefinedText,
		Confidence:         r.Transcript.Confidence,
		Error:              r.ErrorMessage,
		Details: EnvelopeDetails{
			FraudType:   string(r.Details.FraudType),
			Description: r.Details.Description,
		},
	}
	if r.Details.Amount != "" {
		amount := r.Details.Amount
		env.Details.Amount = &amount
	}
	if r.Details.IncidentDate != nil {
		date := r.Details.IncidentDate.Format(DateLayout)
		env.Details.Date = &date
	}
	return env
}
