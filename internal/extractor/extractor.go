// Package extractor derives amount, incident date and fraud category from a
// complaint narrative. It performs no I/O and is deterministic for a given
// clock.
package extractor

import (
	"strings"
	"time"

	"voice-complaint-go/internal/types"
)

type Extractor struct {
	now func() time.Time
}

// New returns an Extractor resolving relative dates against now. A nil now
// uses time.Now.
func New(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// Extract never fails: missing fields stay empty and the category defaults to
// types.FraudOther.
func (e *Extractor) Extract(text string) types.ExtractedDetails {
	details := types.ExtractedDetails{
		FraudType:   Classify(text),
		Description: text,
	}
	if types.IsNoSpeech(text) {
		return details
	}
	details.Amount = FindAmount(text)
	if d, ok := FindDate(text, e.now()); ok {
		details.IncidentDate = &d
	}
	return details
}

// FindAmount returns the first amount found by AmountMatchers, in order.
func FindAmount(text string) string {
	for _, m := range AmountMatchers {
		if amount, ok := m(text); ok {
			return amount
		}
	}
	return ""
}

// FindDate returns the first date found by DateMatchers, in order.
func FindDate(text string, now time.Time) (time.Time, bool) {
	for _, m := range DateMatchers {
		if d, ok := m(text, now); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func normalizeAmount(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
