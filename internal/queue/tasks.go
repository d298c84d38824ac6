package queue

const (
	TypeVoiceProcess = "voice:process"
	TypeScratchSweep = "scratch:sweep"
)

type VoiceProcessPayload struct {
	MediaID      string `json:"media_id"`
	AccessToken  string `json:"access_token"`
	LanguageHint string `json:"language_hint,omitempty"`
}
