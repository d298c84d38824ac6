package refiner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/types"
)

// Generator is a generative text model taking one instruction.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Refiner rewrites a complaint narrative into concise, corrected English.
// A nil generator disables refinement.
type Refiner struct {
	gen Generator
	log *logrus.Entry
}

func New(gen Generator) *Refiner {
	return &Refiner{gen: gen, log: logger.Component("refiner")}
}

func (r *Refiner) WithLogger(log *logrus.Entry) *Refiner {
	r.log = log
	return r
}

const promptTemplate = `You are helping to refine voice-to-text transcriptions for a cybercrime complaint system.

Raw complaint text: "%s"

Rewrite it as a complaint narrative:
1. Fix grammar and spelling mistakes.
2. Reorganize the sentences for clarity in a professional tone.
3. Preserve every concrete detail exactly as written: dates, amounts, currency symbols, account or phone numbers, transaction ids, names and places.
4. Do not add any information that is not in the original text.
5. Keep it to 3-4 sentences.

Return ONLY the refined text, no explanations.`

// BuildPrompt embeds text in the refinement instruction.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(text))
}

func (r *Refiner) Refine(ctx context.Context, text string) types.RefinedNarrative {
	passThrough := types.RefinedNarrative{Text: text}
	if strings.TrimSpace(text) == "" || types.IsNoSpeech(text) {
		return passThrough
	}
	if r.gen == nil {
		r.log.Warn("refinement engine not configured, keeping text as is")
		return passThrough
	}
	log := r.log.WithField("engine", r.gen.Name())

	out, err := r.gen.Generate(ctx, BuildPrompt(text))
	if err != nil {
		log.WithField("error", err.Error()).Error("refinement failed, keeping text as is")
		return passThrough
	}
	out = clean(out)
	if out == "" {
		log.Warn("refinement returned empty output")
		return passThrough
	}
	if missing := MissingFacts(text, out); len(missing) > 0 {
		log.WithField("missing", missing).Warn("refinement dropped factual tokens, keeping text as is")
		return passThrough
	}
	log.WithField("chars_in", len(text)).WithField("chars_out", len(out)).Info("refinement successful")
	return types.RefinedNarrative{Text: out, WasRefined: true}
}

var (
	digitRun      = regexp.MustCompile(`\d+(?:[,.]\d+)*`)
	currencySigns = []string{"₹", "$", "€", "£"}
	fence         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// MissingFacts lists digit runs and currency symbols of in that do not
// survive in out. Thousands separators are ignored when comparing numbers.
func MissingFacts(in, out string) []string {
	have := map[string]bool{}
	for _, m := range digitRun.FindAllString(out, -1) {
		have[strings.ReplaceAll(m, ",", "")] = true
	}
	var missing []string
	for _, m := range digitRun.FindAllString(in, -1) {
		if !have[strings.ReplaceAll(m, ",", "")] {
			missing = append(missing, m)
		}
	}
	for _, sign := range currencySigns {
		if strings.Contains(in, sign) && !strings.Contains(out, sign) {
			missing = append(missing, sign)
		}
	}
	return missing
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if m := fence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
