package actionable

import (
	"fmt"
	"sort"
	"strings"

	"voice-complaint-go/internal/aggregator"
	"voice-complaint-go/internal/types"
)

const (
	ActionConfirm     = "confirm"
	ActionHumanReview = "human_review"
	ActionRetry       = "retry"
)

// NextStep tells the messaging side what to ask the complainant next.
func NextStep(res types.PipelineResult) *types.NextStep {
	switch {
	case !res.Success:
		return &types.NextStep{
			Action:  ActionRetry,
			Message: "Sorry, we could not download your voice message. Please send it again or type your complaint.",
		}
	case strings.TrimSpace(res.RefinedText) == "" || types.IsNoSpeech(res.RefinedText):
		return &types.NextStep{
			Action:  ActionHumanReview,
			Message: "We could not understand the voice message. An officer will review it, or you can type your complaint.",
		}
	}
	return &types.NextStep{Action: ActionConfirm, Message: confirmation(res.Details)}
}

func confirmation(d types.ExtractedDetails) string {
	amount := "Not detected"
	if d.Amount != "" {
		amount = "₹" + d.Amount
	}
	date := "Not detected"
	if d.IncidentDate != nil {
		date = d.IncidentDate.Format(types.DateLayout)
	}
	return fmt.Sprintf("Amount: %s\nDate: %s\nFraud Type: %s\n\nIs this information correct? Reply YES to continue, EDIT to modify details or CANCEL to cancel.",
		amount, date, d.FraudType)
}

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate turns a batch insight into one recommendation.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Total > ins.Failed && ins.NoSpeechRate >= 0.35 {
		return ActionCard{
			Insight: fmt.Sprintf("High share of unusable voice notes (%.0f%%)", ins.NoSpeechRate*100),
			Action:  "Ask complainants to re-record in a quieter place or offer typed intake",
			Impact:  "Fewer complaints routed to manual review",
		}
	}
	if top, n := dominant(ins.FraudTypeCounts); n > 0 && float64(n) >= 0.5*float64(ins.Total-ins.Failed) {
		return ActionCard{
			Insight: fmt.Sprintf("%s dominates intake (%d of %d)", top, n, ins.Total-ins.Failed),
			Action:  fmt.Sprintf("Publish an advisory on %s and prioritise its triage queue", strings.ToLower(top)),
			Impact:  "Faster response on the most frequent complaint type",
		}
	}
	return ActionCard{
		Insight: "No strong complaint pattern detected",
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}

// dominant returns the most frequent category, ties broken by name.
func dominant(counts map[string]int) (string, int) {
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Strings(names)
	top, best := "", 0
	for _, k := range names {
		if counts[k] > best {
			top, best = k, counts[k]
		}
	}
	return top, best
}
