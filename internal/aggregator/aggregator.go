package aggregator

import "voice-complaint-go/internal/types"

// Insight summarises a batch of pipeline results.
type Insight struct {
	Total           int            `json:"total"`
	Failed          int            `json:"failed"`
	NoSpeech        int            `json:"no_speech"`
	FraudTypeCounts map[string]int `json:"fraud_type_counts"`
	TranslatedRate  float64        `json:"translated_rate"`
	RefinedRate     float64        `json:"refined_rate"`
	AmountRate      float64        `json:"amount_rate"`
	DateRate        float64        `json:"date_rate"`
	NoSpeechRate    float64        `json:"no_speech_rate"`
}

func Aggregate(results []types.PipelineResult) Insight {
	ins := Insight{Total: len(results), FraudTypeCounts: map[string]int{}}
	var translated, refined, amount, date, ok int
	for _, r := range results {
		if !r.Success {
			ins.Failed++
			continue
		}
		ok++
		if types.IsNoSpeech(r.RawTranscript) {
			ins.NoSpeech++
		}
		if r.Translation.WasTranslated {
			translated++
		}
		if r.Refinement.WasRefined {
			refined++
		}
		if r.Details.Amount != "" {
			amount++
		}
		if r.Details.IncidentDate != nil {
			date++
		}
		if r.Details.FraudType != "" {
			ins.FraudTypeCounts[string(r.Details.FraudType)]++
		}
	}
	ins.TranslatedRate = rate(translated, ok)
	ins.RefinedRate = rate(refined, ok)
	ins.AmountRate = rate(amount, ok)
	ins.DateRate = rate(date, ok)
	ins.NoSpeechRate = rate(ins.NoSpeech, ok)
	return ins
}

// rate is n/of, or 0 for an empty batch.
func rate(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of)
}
