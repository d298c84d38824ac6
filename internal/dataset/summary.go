package dataset

import (
	"voice-complaint-go/internal/language"
	"voice-complaint-go/internal/types"
)

type Summary struct {
	TotalCases     int            `json:"total_cases"`
	ByLanguage     map[string]int `json:"by_language"`
	ByScript       map[string]int `json:"by_script"`
	ExampleCaseIDs []string       `json:"example_case_ids"`
}

// Summarize counts the corpus by declared language and detected script.
// Cases without a language are counted under "auto".
func Summarize(cases []types.SampleCase) Summary {
	s := Summary{
		TotalCases: len(cases),
		ByLanguage: map[string]int{},
		ByScript:   map[string]int{},
	}
	for _, c := range cases {
		lang := language.Normalize(c.LanguageHint)
		if lang == "" {
			lang = "auto"
		}
		s.ByLanguage[lang]++
		s.ByScript[language.DetectScript(c.Transcript).String()]++
		if len(s.ExampleCaseIDs) < 3 {
			s.ExampleCaseIDs = append(s.ExampleCaseIDs, c.CaseID)
		}
	}
	return s
}

// Head returns at most n cases; n <= 0 returns all.
func Head(cases []types.SampleCase, n int) []types.SampleCase {
	if n <= 0 || n >= len(cases) {
		return cases
	}
	return cases[:n]
}
